package models

import (
	"time"

	"gorm.io/datatypes"
)

// FetchRun protokolliert einen Pipeline-Lauf (Audit, keine Wiederaufnahme).
type FetchRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Provider       string `json:"provider" gorm:"index"`
	RecordsFetched int    `json:"records_fetched"`
	RecordsDropped int    `json:"records_dropped"`

	RestaurantsInserted int `json:"restaurants_inserted"`
	CodesInserted       int `json:"codes_inserted"`
	LinksInserted       int `json:"links_inserted"`

	DurationMS int64  `json:"duration_ms"`
	Succeeded  bool   `json:"succeeded" gorm:"index"`
	ErrorText  string `json:"error_text,omitempty" gorm:"type:text"`

	SnapshotKey string `json:"snapshot_key,omitempty"`

	// Stats nimmt unstrukturierte Zusatzkennzahlen auf (z.B. Projektionsgrößen).
	Stats datatypes.JSON `json:"stats,omitempty" gorm:"type:jsonb"`
}

// TableName gibt explizit den Tabellennamen an.
func (FetchRun) TableName() string {
	return "fetch_runs"
}
