// Package model defines the data structures used throughout the application.
package model

import "time"

// Column limits, in runes.
const (
	MaxTitleLength   = 128
	MaxSourceLength  = 256
	MaxAddedByLength = 64
)

// Opinion is a stored movie opinion.
//
// ID and Timestamp are assigned by the repository on Create and never change.
// Source and AddedBy are optional and stored as empty strings when absent.
type Opinion struct {
	ID        int64     `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Text      string    `json:"text"      db:"text"` // unique across all opinions
	Source    string    `json:"source"    db:"source"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"` // UTC
	AddedBy   string    `json:"addedBy"   db:"added_by"`
}

// OpinionDraft is a validated candidate that has not been persisted yet.
// Only the form and loader packages build drafts.
type OpinionDraft struct {
	Title   string
	Text    string
	Source  string
	AddedBy string
}

// Opinion turns the draft into an unsaved Opinion ready for the repository.
func (d OpinionDraft) Opinion() *Opinion {
	return &Opinion{
		Title:   d.Title,
		Text:    d.Text,
		Source:  d.Source,
		AddedBy: d.AddedBy,
	}
}
