package models

import (
	"time"
)

// Collection is a published registry record. The full aggregate lives in the
// Document JSON column; the remaining columns are lookup indexes.
type Collection struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Name      string    `json:"name" gorm:"type:text;index"`
	Namespace string    `json:"namespace" gorm:"type:text;index:collection_namespace,unique"`
	Document  string    `json:"document" gorm:"type:text"`
	Version   int       `json:"version" gorm:"not null;default:0"`
	Obsolete  bool      `json:"obsolete" gorm:"type:boolean;not null;default:false;index"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate     time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// URIEntry indexes every URI value a record has ever carried, across both
// partitions, so duplicate submissions can be caught with one query.
type URIEntry struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	CollectionID string `json:"collectionID" gorm:"type:text;index"`
	Partition    string `json:"partition" gorm:"type:text;not null"`
	Value        string `json:"value" gorm:"type:text;index"`
	Deprecated   bool   `json:"deprecated" gorm:"type:boolean;not null;default:false"`
}

// SynonymEntry indexes names and synonyms for the duplicate check.
type SynonymEntry struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	CollectionID string `json:"collectionID" gorm:"type:text;index"`
	Partition    string `json:"partition" gorm:"type:text;not null"`
	Value        string `json:"value" gorm:"type:text;index"`
}

// EditHistory is append-only. Rows are never updated or deleted.
type EditHistory struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CollectionID string    `json:"collectionID" gorm:"type:text;index"`
	Actor        string    `json:"actor" gorm:"type:text"`
	Diff         string    `json:"diff" gorm:"type:text"`
	Checksum     string    `json:"checksum" gorm:"type:text"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// ResourceOwnership links a user to a resource they maintain. Status follows
// registry.OwnershipStatus; resources without a row are not owned.
type ResourceOwnership struct {
	ID         int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Login      string `json:"login" gorm:"type:text;uniqueIndex:ownership_login_resource"`
	ResourceID string `json:"resourceID" gorm:"type:text;uniqueIndex:ownership_login_resource"`
	Status     int    `json:"status" gorm:"not null;default:0"`
}

// Sequence hands out the numeric parts of MIR identifiers.
type Sequence struct {
	Name string `json:"name" gorm:"primaryKey;type:text"`
	Next int64  `json:"next" gorm:"not null;default:1"`
}
