package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/raine/myyntiapuri/config"
	"github.com/raine/myyntiapuri/internal/llm"
	"golang.org/x/term"
)

// geminiModelsURL lists models; it is a cheap way to check a key.
var geminiModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

// isInteractiveTerminal returns true if both stdin and stdout are TTYs.
// This is used to determine if we can run the interactive setup wizard.
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runSetupWizard asks for the Gemini API key and stores it in the config
// file. Returns true if the server should continue starting.
func runSetupWizard() bool {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("🛍  Myyntiapuri - First-time Setup"))
	fmt.Println()

	var geminiKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description("Get yours at https://aistudio.google.com/apikey").
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("API key is required")
					}
					return validateGeminiKey(s)
				}),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return false
		}
		fmt.Printf("\nError: %v\n", err)
		return false
	}

	configPath, err := config.WriteEnvFile(map[string]string{"GEMINI_API_KEY": geminiKey})
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		waitOnWindows()
		return false
	}
	os.Setenv("GEMINI_API_KEY", geminiKey)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + configPath))
	fmt.Println()
	fmt.Println("Starting relay...")
	fmt.Println()

	return true
}

// validateGeminiKey validates a Gemini API key by making a simple API call.
func validateGeminiKey(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := resty.New().R().
		SetContext(ctx).
		SetQueryParam("key", key).
		Get(geminiModelsURL)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.New("connection timed out - check your internet")
		}
		return errors.New("connection failed - check your internet")
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
		if msg := llm.ErrorMessage(resp.Body()); msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", status)
	case status != http.StatusOK:
		return fmt.Errorf("unexpected response (HTTP %d)", status)
	}

	return nil
}
