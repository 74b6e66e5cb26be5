package models

import (
	"time"
)

// CurationRecord is a curation pipeline entry. Like Collection, the aggregate
// is stored as JSON and the columns serve the pipeline listing.
type CurationRecord struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"`
	Name     string    `json:"name" gorm:"type:text;index"`
	Document string    `json:"document" gorm:"type:text"`
	State    string    `json:"state" gorm:"type:text;not null;index"`
	Comment  string    `json:"comment" gorm:"type:text"`
	PublicID string    `json:"publicID" gorm:"type:text"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate    time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// RestrictionCategory is the closed taxonomy restriction annotations point at.
type RestrictionCategory struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:text;not null"`
	Description string `json:"description" gorm:"type:text"`
}
