package listing

import (
	"fmt"
	"strings"
	"time"
)

// Language selects prompt and message language.
type Language string

const (
	LanguageFinnish Language = "fi"
	LanguageEnglish Language = "en"
)

// DefaultClosingMessage is appended to every description unless the user
// has configured their own.
const DefaultClosingMessage = "Toimitus hyvin pakattuna samana tai seuraavana päivänä. PS. Katso myös muut kohteeni ja säästä postikuluissa tilaamalla useampi tuote kerralla😊"

// Status texts shown while a generation is running.
const (
	StatusAnalyzingFi  = "Analysoidaan..."
	StatusFinalizingFi = "Viimeistellään..."
	StatusAnalyzingEn  = "Analyzing..."
	StatusFinalizingEn = "Finalizing..."
)

// ParseLanguage parses a language code. Empty input means Finnish.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fi":
		return LanguageFinnish, nil
	case "en":
		return LanguageEnglish, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

func (l Language) english() bool {
	return l == LanguageEnglish
}

// TitlePlaceholder is used when the model returned no title.
func (l Language) TitlePlaceholder() string {
	if l.english() {
		return "Listing"
	}
	return "Ilmoitus"
}

// GenerationFailedMessage is the single user-facing message for any failed
// generation.
func (l Language) GenerationFailedMessage() string {
	if l.english() {
		return "Error. Could not generate the listing, check the relay settings and try again."
	}
	return "Virhe. Ilmoituksen luonti epäonnistui, tarkista välityspalvelimen asetukset ja yritä uudelleen."
}

// StatusAnalyzing is shown during the listing request.
func (l Language) StatusAnalyzing() string {
	if l.english() {
		return StatusAnalyzingEn
	}
	return StatusAnalyzingFi
}

// StatusFinalizing is shown during the market insights request.
func (l Language) StatusFinalizing() string {
	if l.english() {
		return StatusFinalizingEn
	}
	return StatusFinalizingFi
}

// FormatDate formats t the way the user's locale writes short dates.
func (l Language) FormatDate(t time.Time) string {
	if l.english() {
		return t.Format("1/2/2006")
	}
	return t.Format("2.1.2006")
}
