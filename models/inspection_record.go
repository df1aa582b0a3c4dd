package models

// InspectionRecord ist die flache Roh-Zeile der SODA-API (Feldnamen = Datensatz).
// Alle Werte kommen als Strings; keine Tabelle, nur Transportform zwischen
// Provider und Normalizer.
type InspectionRecord struct {
	CAMIS              string `json:"camis"`
	DBA                string `json:"dba"`
	Boro               string `json:"boro"`
	Building           string `json:"building"`
	Street             string `json:"street"`
	Zipcode            string `json:"zipcode"`
	Phone              string `json:"phone"`
	CuisineDescription string `json:"cuisine_description"`

	InspectionDate       string `json:"inspection_date"`
	Action               string `json:"action"`
	ViolationCode        string `json:"violation_code"`
	ViolationDescription string `json:"violation_description"`
	CriticalFlag         string `json:"critical_flag"`
	Score                string `json:"score"`
	Grade                string `json:"grade"`
	GradeDate            string `json:"grade_date"`
	RecordDate           string `json:"record_date"`
	InspectionType       string `json:"inspection_type"`
}
