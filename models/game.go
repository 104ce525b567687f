package models

import "time"

// ResolutionMode controls when submitted results settle a match
type ResolutionMode string

const (
	// ResolutionFirstFinish settles on the first submitted result; the opponent scores zero
	ResolutionFirstFinish ResolutionMode = "first_finish"
	// ResolutionBestScore waits for both results and compares them
	ResolutionBestScore ResolutionMode = "best_score"
)

// Game is an entry in the game catalog
type Game struct {
	ID             int64          `db:"id" json:"id"`
	Slug           string         `db:"slug" json:"slug"`
	Name           string         `db:"name" json:"name"`
	ResolutionMode ResolutionMode `db:"resolution_mode" json:"resolutionMode"`
	IsActive       bool           `db:"is_active" json:"isActive"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}
