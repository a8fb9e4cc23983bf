package embedding

import (
	"strings"

	"vidShare/domain"
)

const (
	titleWeight       = 3
	descriptionWeight = 2
)

// BuildText renders the weighted text an entity is embedded from. Titles are repeated three
// times and bodies twice so they dominate the encoder's pooled output.
func BuildText(entity domain.Embeddable) string {
	var parts []string

	switch e := entity.(type) {
	case *domain.Video:
		parts = appendRepeated(parts, e.Title, titleWeight)
		parts = appendRepeated(parts, e.Description, descriptionWeight)

		tags := make([]string, 0, len(e.Tags))
		for _, t := range e.Tags {
			tags = append(tags, t.Name)
		}
		parts = appendRepeated(parts, strings.Join(tags, " "), 1)

		cats := make([]string, 0, len(e.Categories))
		for _, c := range e.Categories {
			cats = append(cats, c.Name)
		}
		parts = appendRepeated(parts, strings.Join(cats, " "), 1)
	case *domain.Post:
		parts = appendRepeated(parts, e.Title, titleWeight)
		parts = appendRepeated(parts, e.Content, descriptionWeight)
	case *domain.Blog:
		parts = appendRepeated(parts, e.Title, titleWeight)
		parts = appendRepeated(parts, e.Content, descriptionWeight)
	}

	return strings.Join(parts, " ")
}

func appendRepeated(parts []string, s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return parts
	}
	for i := 0; i < n; i++ {
		parts = append(parts, s)
	}
	return parts
}
