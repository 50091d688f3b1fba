package entities

import (
	"strings"
	"time"
	"unicode"
)

// Site is a physical location owned by a team
type Site struct {
	ID          string    `json:"id" db:"id"`
	TeamID      string    `json:"team_id" db:"team_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Address1    string    `json:"address1" db:"address1"`
	Address2    string    `json:"address2" db:"address2"`
	City        string    `json:"city" db:"city"`
	State       string    `json:"state" db:"state"`
	PostalCode  string    `json:"postal_code" db:"postal_code"`
	Phone       string    `json:"phone" db:"phone"`
	SlugName    string    `json:"slug_name" db:"slug_name"`
	Base64Image string    `json:"base64_image,omitempty" db:"base64_image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SiteSummary adds capacity figures and the viewer's role
type SiteSummary struct {
	Site
	ResourceCount int  `json:"resource_count" db:"resource_count"`
	TotalCapacity int  `json:"total_capacity" db:"total_capacity"`
	UserRole      Role `json:"user_role" db:"user_role"`
}

// Slugify builds a url-friendly name: lower-case letters and digits joined
// by single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
