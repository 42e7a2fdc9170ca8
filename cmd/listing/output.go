package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/dedent"
	"github.com/raine/myyntiapuri/internal/listing"
	"github.com/raine/myyntiapuri/internal/storage"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func formatText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

type labels struct {
	listing, price, styling, selling, empty string
}

func labelsFor(lang listing.Language) labels {
	if lang == listing.LanguageEnglish {
		return labels{"Listing", "Price estimate", "Styling tips", "Selling tip", "Empty"}
	}
	return labels{"Ilmoitus", "Hinta-arvio", "Stailausvinkit", "Myyntivinkki", "Tyhjä"}
}

func printResult(res *listing.Result, lang listing.Language) {
	l := labelsFor(lang)

	fmt.Println(headingStyle.Render(l.listing))
	fmt.Println()
	fmt.Println(titleStyle.Render(res.Listing.Title))
	fmt.Println()
	fmt.Println(res.Listing.Description)
	fmt.Println()

	if res.Insights.Price != "" {
		fmt.Println(labelStyle.Render(l.price))
		fmt.Println(res.Insights.Price)
		fmt.Println()
	}
	if tips := res.Insights.StylingTipLines(); len(tips) > 0 {
		fmt.Println(labelStyle.Render(l.styling))
		for _, tip := range tips {
			fmt.Println("  " + tip)
		}
		fmt.Println()
	}
	if res.Insights.Selling != "" {
		fmt.Println(labelStyle.Render(l.selling))
		fmt.Println(res.Insights.Selling)
	}
}

func printHistory(entries []storage.HistoryEntry, lang listing.Language) {
	if len(entries) == 0 {
		fmt.Println(labelStyle.Render(labelsFor(lang).empty))
		return
	}
	for _, e := range entries {
		fmt.Printf("%d  %s  %s\n", e.ID, labelStyle.Render(fmt.Sprintf("%-10s", e.Date)), e.Title)
	}
}
