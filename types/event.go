package types

import "time"

// Event is a dated happening organised by a club.
type Event struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date"`

	// Finished is stored on write and re-derived from Date on every read.
	Finished bool `json:"finished" db:"finished"`

	ClubID    int       `json:"club_id" db:"club_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FinishedAt reports whether an event dated at date is over at now.
func FinishedAt(date, now time.Time) bool {
	return now.After(date)
}

// SortOrder orders event listings by date.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// EventFilter narrows an event listing.
type EventFilter struct {
	// Finished restricts the listing to finished or upcoming events when set.
	Finished *bool
	Order    SortOrder
	// Now is the instant Finished is evaluated at.
	Now time.Time
}
