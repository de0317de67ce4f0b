package flows

import (
	"context"
	"errors"

	"github.com/mbd888/scamcheck/internal/logging"
)

// CategoryEntry is one item of the top-level menu.
type CategoryEntry struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	QuestionCount int    `json:"questionCount"`
}

// Menu lists the menu categories that src can serve, in display order.
// Missing or empty flows are left out.
func Menu(ctx context.Context, src Source) []CategoryEntry {
	entries := make([]CategoryEntry, 0, len(MenuCategories()))
	for _, category := range MenuCategories() {
		f, err := src.GetFlow(ctx, category)
		if err != nil {
			if !errors.Is(err, ErrFlowNotFound) {
				logging.L(ctx).Warn("failed to load flow for menu", "category", category, "error", err)
			}
			continue
		}
		if f.Len() == 0 {
			continue
		}
		entries = append(entries, CategoryEntry{Category: f.Category, Title: f.Title, QuestionCount: f.Len()})
	}
	return entries
}
