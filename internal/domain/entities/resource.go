package entities

import "time"

// Resource is a bookable unit (room, desk) at a site
type Resource struct {
	ID                  string    `json:"id" db:"id"`
	SiteID              string    `json:"site_id" db:"site_id"`
	Name                string    `json:"name" db:"name"`
	Description         string    `json:"description" db:"description"`
	LocationDescription string    `json:"location_description" db:"location_description"`
	MaxOccupants        int       `json:"max_occupants" db:"max_occupants"`
	AmenityCount        int       `json:"amenity_count" db:"amenity_count"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Amenity is an entry of the shared amenity catalog
type Amenity struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Icon string `json:"icon" db:"icon"`
}

// ResourceAmenity attaches a catalog amenity to a resource
type ResourceAmenity struct {
	ID           string    `json:"id" db:"id"`
	ResourceID   string    `json:"resource_id" db:"resource_id"`
	AmenityID    string    `json:"amenity_id" db:"amenity_id"`
	NameOverride string    `json:"name_override,omitempty" db:"name_override"`
	Amenity      Amenity   `json:"amenity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName prefers the per-resource override over the catalog name.
func (ra *ResourceAmenity) DisplayName() string {
	if ra.NameOverride != "" {
		return ra.NameOverride
	}
	return ra.Amenity.Name
}

// ResourceLocation is the site/team a resource belongs to
type ResourceLocation struct {
	ResourceID   string `json:"resource_id" db:"resource_id"`
	ResourceName string `json:"resource_name" db:"resource_name"`
	SiteID       string `json:"site_id" db:"site_id"`
	SiteName     string `json:"site_name" db:"site_name"`
	TeamID       string `json:"team_id" db:"team_id"`
	TeamName     string `json:"team_name" db:"team_name"`
}

// ReservationContext returns the denormalized context attached to reservations on this resource
func (l *ResourceLocation) ReservationContext() *ReservationContext {
	return &ReservationContext{
		ResourceName: l.ResourceName,
		SiteID:       l.SiteID,
		SiteName:     l.SiteName,
		TeamID:       l.TeamID,
		TeamName:     l.TeamName,
	}
}

// ResourceSearchDocument is what the search index stores per resource
type ResourceSearchDocument struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	LocationDescription string   `json:"location_description"`
	MaxOccupants        int      `json:"max_occupants"`
	SiteID              string   `json:"site_id"`
	SiteName            string   `json:"site_name"`
	City                string   `json:"city"`
	TeamID              string   `json:"team_id"`
	Amenities           []string `json:"amenities"`
	UpdatedAt           int64    `json:"updated_at"`
}
