package tripplanner

import "strings"

// MaxHighlights caps the highlights kept from an answer.
const MaxHighlights = 5

const (
	descriptionMarker = "OPIS:"
	highlightsMarker  = "ATRAKCJE:"
)

type section int

const (
	sectionNone section = iota
	sectionDescription
	sectionHighlights
)

// ParseSuggestion extracts the description and highlights from a model
// answer. Markers match case-insensitively at the start of a line. Lines
// after the description marker are joined with spaces; lines starting with
// "-" after the highlights marker become highlights. Anything else is
// ignored, so blank or unstructured text yields an empty suggestion.
func ParseSuggestion(text string) *Suggestion {
	s := &Suggestion{Highlights: []string{}}
	if strings.TrimSpace(text) == "" {
		return s
	}

	var (
		current     section
		description []string
	)

	for raw := range strings.SplitSeq(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case hasPrefixFold(line, descriptionMarker):
			current = sectionDescription
			continue
		case hasPrefixFold(line, highlightsMarker):
			current = sectionHighlights
			continue
		}

		switch current {
		case sectionDescription:
			description = append(description, line)
		case sectionHighlights:
			if !strings.HasPrefix(line, "-") {
				continue
			}
			if h := strings.TrimSpace(strings.TrimLeft(line, "-")); h != "" {
				s.Highlights = append(s.Highlights, h)
			}
		}
	}

	s.Description = strings.Join(description, " ")
	if len(s.Highlights) > MaxHighlights {
		s.Highlights = s.Highlights[:MaxHighlights]
	}
	return s
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
