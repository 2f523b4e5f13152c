package model

import (
	"fmt"
	"strings"
)

// Filter holds the search and status criteria for the visible lead list.
// The zero value matches every lead.
type Filter struct {
	Search string `json:"search,omitempty"` // case-insensitive substring on name/email/aiMessage
	Status Status `json:"status,omitempty"` // exact match; empty = all statuses
}

// Validate rejects a status filter outside the selectable set.
func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return fmt.Errorf("invalid status filter %q", f.Status)
	}
	return nil
}

// Matches reports whether the lead passes both criteria.
func (f Filter) Matches(l Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(l.Name), needle) ||
		strings.Contains(strings.ToLower(l.Email), needle) ||
		strings.Contains(strings.ToLower(l.AIMessage), needle)
}

// Apply returns the leads that match, preserving input order. The input
// slice is not modified.
func (f Filter) Apply(leads []Lead) []Lead {
	visible := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if f.Matches(l) {
			visible = append(visible, l)
		}
	}
	return visible
}
