package models

// ViolationCode repräsentiert einen Verstoß-Code aus dem DOHMH-Katalog.
type ViolationCode struct {
	Code        string `json:"code" gorm:"primaryKey;size:16"`
	Description string `json:"description" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (ViolationCode) TableName() string {
	return "violation_codes"
}
