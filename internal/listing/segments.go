package listing

import (
	"fmt"
	"strings"
)

// SegmentDelimiter separates fields in model replies. The system
// instructions ask for it explicitly, so prompts and parsing change together.
const SegmentDelimiter = "---"

// Format names the fields of a delimiter separated reply in order.
type Format struct {
	Delimiter string
	Fields    []string
}

var (
	// ListingFormat is the reply shape of the listing request.
	ListingFormat = Format{Delimiter: SegmentDelimiter, Fields: []string{"info", "title", "description"}}
	// InsightsFormat is the reply shape of the market insights request.
	InsightsFormat = Format{Delimiter: SegmentDelimiter, Fields: []string{"price", "styling", "selling"}}
)

// MissingFieldsError reports that a reply had fewer segments than the
// format names. The fields that were present are still usable.
type MissingFieldsError struct {
	Missing []string
	Found   int
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("reply has %d segments, missing %s", e.Found, strings.Join(e.Missing, ", "))
}

// Parse splits text on the delimiter and trims each segment. The result
// always has one entry per field; absent fields are "" and reported in a
// *MissingFieldsError. Segments beyond the last field are ignored.
func (f Format) Parse(text string) ([]string, error) {
	segments := strings.Split(text, f.Delimiter)
	fields := make([]string, len(f.Fields))

	found := 0
	for i := range fields {
		if i >= len(segments) {
			break
		}
		fields[i] = strings.TrimSpace(segments[i])
		found++
	}

	if found < len(f.Fields) {
		missing := append([]string(nil), f.Fields[found:]...)
		return fields, &MissingFieldsError{Missing: missing, Found: found}
	}
	return fields, nil
}
