package types

import "time"

// Club is a group of users with exactly one owner.
type Club struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	OwnerID     int    `json:"owner_id" db:"owner_id"`

	// OwnerName, MemberCount and PostCount are joined in by read queries.
	OwnerName   string `json:"owner_name,omitempty" db:"owner_name"`
	MemberCount int    `json:"member_count" db:"member_count"`
	PostCount   int    `json:"post_count" db:"post_count"`

	// LogoKey is the object storage key of the club logo, if any.
	LogoKey         *string `json:"-" db:"logo_key"`
	LogoContentType *string `json:"-" db:"logo_content_type"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasLogo reports whether a logo has been uploaded for the club.
func (c Club) HasLogo() bool {
	return c.LogoKey != nil && *c.LogoKey != ""
}

// ClubMember is a member of a club along with the elevated roles they hold.
type ClubMember struct {
	UserID   int       `json:"user_id" db:"user_id"`
	Name     string    `json:"name" db:"name"`
	Email    string    `json:"email" db:"email"`
	IsAdmin  bool      `json:"is_admin" db:"is_admin"`
	IsOwner  bool      `json:"is_owner" db:"is_owner"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}
