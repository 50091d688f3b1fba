package entities

import (
	"sort"
	"time"
)

// Team is an organizational unit owning sites and members
type Team struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TeamSummary is a team as seen by one of its members
type TeamSummary struct {
	Team
	MemberCount int  `json:"member_count" db:"member_count"`
	SiteCount   int  `json:"site_count" db:"site_count"`
	UserRole    Role `json:"user_role" db:"user_role"`
}

// TeamMember links a user to a team with a role
type TeamMember struct {
	ID        string    `json:"id" db:"id"`
	TeamID    string    `json:"team_id" db:"team_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SortMembers orders members by role priority, then email.
func SortMembers(members []*TeamMember) {
	sort.SliceStable(members, func(i, j int) bool {
		pi, pj := members[i].Role.Priority(), members[j].Role.Priority()
		if pi != pj {
			return pi < pj
		}
		return members[i].Email < members[j].Email
	})
}
