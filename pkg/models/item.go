package models

import "time"

// ItemType distinguishes the two report variants that get matched against each other
type ItemType string

const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// IsValid returns true if the type is one of the two known variants
func (t ItemType) IsValid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// Opposite returns the type matched against this one
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeLost {
		return ItemTypeFound
	}
	return ItemTypeLost
}

// ItemStatus tracks the lifecycle of an item report
type ItemStatus string

const (
	ItemStatusOpen    ItemStatus = "open"
	ItemStatusClaimed ItemStatus = "claimed"
	ItemStatusClosed  ItemStatus = "closed"
)

// ItemRecord is a lost or found item report. Immutable once matched except for
// status transitions.
type ItemRecord struct {
	ID          string     `db:"id" json:"id"`
	ItemType    ItemType   `db:"item_type" json:"type"`
	Description string     `db:"description" json:"description"`
	Category    string     `db:"category" json:"category"`
	Color       string     `db:"color" json:"color,omitempty"`
	Brand       string     `db:"brand" json:"brand,omitempty"`
	Location    string     `db:"location" json:"location"`
	EventDate   time.Time  `db:"event_date" json:"event_date"`
	ReporterID  string     `db:"reporter_id" json:"reporter_id"`
	Status      ItemStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
