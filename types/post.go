package types

import "time"

// Post is a message published to a club by one of its members.
type Post struct {
	ID       int    `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Content  string `json:"content" db:"content"`
	AuthorID int    `json:"author_id" db:"author_id"`
	ClubID   int    `json:"club_id" db:"club_id"`

	// AuthorName and ClubName are joined in by read queries.
	AuthorName string `json:"author_name,omitempty" db:"author_name"`
	ClubName   string `json:"club_name,omitempty" db:"club_name"`

	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}
