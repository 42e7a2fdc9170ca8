package listing

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/raine/myyntiapuri/internal/llm"
	"google.golang.org/genai"
)

// The listing instruction and InsightsFormat/ListingFormat must agree on
// segment order and the delimiter.
const (
	listingSystemInstructionFi = `
		Olet myyntiasiantuntija. Palauta BRAND, SIZE, MATERIAL, MEASUREMENTS --- TITLE --- DESCRIPTION.
		Ei tähtiä tekstissä.`

	listingSystemInstructionEn = `
		You are a resale expert. Return BRAND, SIZE, MATERIAL, MEASUREMENTS --- TITLE --- DESCRIPTION.
		Write the listing in English. No asterisks in the text.`

	listingPromptFi = `Luo ilmoitus: %s. %s`
	listingPromptEn = `Create a listing: %s. %s`

	insightsPromptFi = `Tuote: %s. Hinta-arvio, 3 lyhyttä stailausvinkkiä, 1 myyntivinkki. Erota ---.`
	insightsPromptEn = `Product: %s. Price estimate, 3 short styling tips, 1 selling tip. Separate with ---. Answer in English.`
)

func formatPromptText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// BuildListingRequest creates the first pipeline request: one text part with
// the condition and details, one inline image part per asset, and the
// system instruction describing the reply shape.
func BuildListingRequest(assets []ImageAsset, condition Condition, details string, lang Language) *llm.GenerationRequest {
	prompt, instruction := listingPromptFi, listingSystemInstructionFi
	if lang.english() {
		prompt, instruction = listingPromptEn, listingSystemInstructionEn
	}

	parts := make([]*genai.Part, 0, len(assets)+1)
	text := formatPromptText(prompt, condition.Label(lang), strings.TrimSpace(details))
	parts = append(parts, genai.NewPartFromText(strings.TrimSpace(text)))
	for _, a := range assets {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}

	return llm.NewUserRequest(parts...).WithSystemInstruction(formatPromptText(instruction))
}

// BuildInsightsRequest creates the second pipeline request for the product
// title, with search augmentation enabled.
func BuildInsightsRequest(title string, lang Language) *llm.GenerationRequest {
	prompt := insightsPromptFi
	if lang.english() {
		prompt = insightsPromptEn
	}
	return llm.NewUserRequest(genai.NewPartFromText(formatPromptText(prompt, title))).WithSearch()
}
