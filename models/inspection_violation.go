package models

import "time"

// InspectionViolation modelliert die Junction-Tabelle: ein zitierter Verstoß
// einer Inspektion. Der zusammengesetzte Primärschlüssel (camis, violation_code,
// inspection_date) macht wiederholte Läufe idempotent.
type InspectionViolation struct {
	CAMIS         uint64 `json:"camis" gorm:"column:camis;primaryKey;autoIncrement:false"`
	ViolationCode string `json:"violation_code" gorm:"primaryKey;size:16"`
	// InspectionDate ist kanonisch YYYY-MM-DD. Leerer String statt NULL, weil
	// die Spalte Teil des Primärschlüssels ist.
	InspectionDate string `json:"inspection_date" gorm:"primaryKey;size:10"`

	CreatedAt time.Time `json:"created_at"`

	Action       string `json:"action,omitempty" gorm:"type:text"`
	CriticalFlag string `json:"critical_flag,omitempty" gorm:"size:32"`
	Score        *int   `json:"score,omitempty"`
	Grade        string `json:"grade,omitempty" gorm:"size:4"`

	// Kanonisch YYYY-MM-DD, NULL bei fehlendem oder unlesbarem Datum.
	GradeDate  *string `json:"grade_date,omitempty" gorm:"size:10"`
	RecordDate *string `json:"record_date,omitempty" gorm:"size:10"`

	InspectionType string `json:"inspection_type,omitempty" gorm:"index"`

	// Belongs-to-Assoziationen; AutoMigrate legt daraus die FK-Constraints an.
	Restaurant *Restaurant    `json:"-" gorm:"foreignKey:CAMIS;references:CAMIS"`
	CodeRef    *ViolationCode `json:"-" gorm:"foreignKey:ViolationCode;references:Code"`
}

// TableName gibt explizit den Tabellennamen an.
func (InspectionViolation) TableName() string {
	return "inspection_violations"
}
