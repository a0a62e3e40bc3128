package services

import (
	"strings"
	"time"

	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/models"
)

// FilterSpec narrows the dataset. All active predicates must hold. A zero
// Start or End disables that bound, an empty Divisions list disables the
// division predicate, and an empty Search disables the text predicate.
type FilterSpec struct {
	Start     time.Time `json:"start,omitzero"`
	End       time.Time `json:"end,omitzero"`
	Divisions []string  `json:"divisions,omitempty"`
	Search    string    `json:"search,omitempty"`
}

// Filter returns the records satisfying spec. It is pure and idempotent:
// refiltering its output with the same spec returns the same set. Start after
// End is an invalid range, not an empty result.
func Filter(records []models.Record, spec FilterSpec) ([]models.Record, error) {
	if !spec.Start.IsZero() && !spec.End.IsZero() && spec.Start.After(spec.End) {
		return nil, apperrors.InvalidRange("start date is after end date")
	}

	divisions := make(map[string]struct{}, len(spec.Divisions))
	for _, d := range spec.Divisions {
		divisions[d] = struct{}{}
	}
	search := strings.ToLower(spec.Search)

	filtered := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !spec.Start.IsZero() && r.Date.Before(spec.Start) {
			continue
		}
		if !spec.End.IsZero() && r.Date.After(spec.End) {
			continue
		}
		if len(divisions) > 0 {
			if _, ok := divisions[r.Division]; !ok {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(r.ProductName), search) {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered, nil
}
