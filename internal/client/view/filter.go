package view

import (
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

// Filter keeps conversations whose name contains query, ignoring case.
// An empty (or blank) query keeps everything.
func Filter(convs []models.Conversation, query string) []models.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return convs
	}
	out := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
