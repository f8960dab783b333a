package entities

import "time"

// Story is a user-submitted post with a photo and optional coordinates.
// The remote service assigns the identifier; locally cached copies keep it
// as the primary key so re-saving the same story overwrites the old record.
type Story struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	PhotoURL    string    `gorm:"size:2048" json:"photoUrl"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (Story) TableName() string {
	return "stories"
}

// HasLocation reports whether both coordinates are present.
func (s *Story) HasLocation() bool {
	return s.Lat != nil && s.Lon != nil
}

// NormalizeLocation clears a half-set coordinate pair. A story with only
// one of lat/lon is treated as having no location at all.
func (s *Story) NormalizeLocation() {
	if s.Lat == nil || s.Lon == nil {
		s.Lat = nil
		s.Lon = nil
	}
}
