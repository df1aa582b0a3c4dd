package models

import "time"

// BoroughUnknown ist der Platzhalter für fehlende oder als "0" kodierte Bezirke.
const BoroughUnknown = "Unknown"

// Restaurant repräsentiert ein Lokal aus dem DOHMH-Datensatz, eine Zeile pro CAMIS.
type Restaurant struct {
	// CAMIS ist die eindeutige Restaurant-ID der Quelle, kein Autoincrement.
	CAMIS     uint64    `json:"camis" gorm:"column:camis;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`

	Name     string `json:"name" gorm:"column:name"` // "dba" im Datensatz
	Building string `json:"building,omitempty"`
	Street   string `json:"street,omitempty"`
	Zipcode  string `json:"zipcode,omitempty" gorm:"size:16"`
	Phone    string `json:"phone,omitempty" gorm:"size:32"`

	// Borough ist nie leer; fehlende Werte werden beim Normalisieren durch
	// BoroughUnknown ersetzt.
	Borough            string `json:"borough" gorm:"index;not null;default:'Unknown'"`
	CuisineDescription string `json:"cuisine_description,omitempty" gorm:"index"`
}

// TableName gibt explizit den Tabellennamen an.
func (Restaurant) TableName() string {
	return "restaurants"
}
