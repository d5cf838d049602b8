package presentation

import (
	"time"

	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/store"
)

// CacheDTO represents a persisted cache snapshot for presentation
type CacheDTO struct {
	Key            string    `json:"key"`
	Items          int       `json:"items"`
	ScrollPosition float64   `json:"scroll_position"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FlagDTO represents a feature flag for presentation
type FlagDTO struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// FromSummary converts a store summary to a DTO
func FromSummary(s store.Summary) CacheDTO {
	return CacheDTO{
		Key:            s.Key,
		Items:          s.Items,
		ScrollPosition: s.ScrollPosition,
		UpdatedAt:      s.UpdatedAt.UTC(),
	}
}

// FromSummaries converts store summaries to DTOs
func FromSummaries(summaries []store.Summary) []CacheDTO {
	dtos := make([]CacheDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = FromSummary(s)
	}
	return dtos
}

// FromFlags lists every flag of r in name order
func FromFlags(r *flags.Registry) []FlagDTO {
	names := r.Names()
	dtos := make([]FlagDTO, len(names))
	for i, name := range names {
		dtos[i] = FlagDTO{Name: name, Enabled: r.Enabled(name)}
	}
	return dtos
}
