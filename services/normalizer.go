package services

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"inspection-hand/models"
)

// dateLayouts deckt die im Datensatz vorkommenden Formen ab: SODA floating
// timestamps, nackte ISO-Daten und US-Schreibweise.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Projections bündelt die drei normalisierten Projektionen eines Roh-Batches.
// Reihenfolge ist deterministisch (Reihenfolge des ersten Auftretens).
type Projections struct {
	Restaurants []models.Restaurant
	Codes       []models.ViolationCode
	Links       []models.InspectionViolation

	// Dropped zählt Roh-Zeilen ohne brauchbare CAMIS.
	Dropped int
}

// Normalizer zerlegt den flachen Datensatz-Strom in die drei Projektionen.
type Normalizer struct {
	Logger *zap.Logger
}

// NewNormalizer erstellt einen neuen Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{Logger: logger}
}

// Normalize ist rein und deterministisch: gleicher Input ergibt identische
// Projektionen. Dedupliziert wird first-seen je Schlüssel.
func (n *Normalizer) Normalize(records []models.InspectionRecord) Projections {
	p := Projections{}

	seenRestaurants := make(map[uint64]bool)
	seenCodes := make(map[string]bool)
	seenLinks := make(map[linkKey]bool)

	for _, rec := range records {
		camis, err := strconv.ParseUint(strings.TrimSpace(rec.CAMIS), 10, 64)
		if err != nil {
			p.Dropped++
			n.Logger.Warn("Zeile ohne brauchbare CAMIS verworfen", zap.String("camis", rec.CAMIS))
			continue
		}

		if !seenRestaurants[camis] {
			seenRestaurants[camis] = true
			p.Restaurants = append(p.Restaurants, models.Restaurant{
				CAMIS:              camis,
				Name:               cleanText(rec.DBA),
				Building:           cleanText(rec.Building),
				Street:             cleanText(rec.Street),
				Zipcode:            strings.TrimSpace(rec.Zipcode),
				Phone:              strings.TrimSpace(rec.Phone),
				Borough:            normalizeBorough(rec.Boro),
				CuisineDescription: cleanText(rec.CuisineDescription),
			})
		}

		code := strings.TrimSpace(rec.ViolationCode)
		if code == "" {
			// Inspektion ohne zitierten Verstoß: Restaurant-Zeile ja,
			// Code- und Link-Zeile nein.
			continue
		}

		if !seenCodes[code] {
			seenCodes[code] = true
			p.Codes = append(p.Codes, models.ViolationCode{
				Code:        code,
				Description: cleanText(rec.ViolationDescription),
			})
		}

		inspDate := normalizeDateKey(rec.InspectionDate)
		key := linkKey{camis: camis, code: code, date: inspDate}
		if seenLinks[key] {
			continue
		}
		seenLinks[key] = true

		p.Links = append(p.Links, models.InspectionViolation{
			CAMIS:          camis,
			ViolationCode:  code,
			InspectionDate: inspDate,
			Action:         cleanText(rec.Action),
			CriticalFlag:   strings.TrimSpace(rec.CriticalFlag),
			Score:          parseScore(rec.Score),
			Grade:          strings.TrimSpace(rec.Grade),
			GradeDate:      normalizeDate(rec.GradeDate),
			RecordDate:     normalizeDate(rec.RecordDate),
			InspectionType: cleanText(rec.InspectionType),
		})
	}

	n.Logger.Info("Normalisierung abgeschlossen",
		zap.Int("records", len(records)),
		zap.Int("restaurants", len(p.Restaurants)),
		zap.Int("violation_codes", len(p.Codes)),
		zap.Int("links", len(p.Links)),
		zap.Int("dropped", p.Dropped))

	return p
}

type linkKey struct {
	camis uint64
	code  string
	date  string
}

// normalizeDate kanonisiert auf YYYY-MM-DD; unlesbare Daten werden NULL,
// nicht verworfen.
func normalizeDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			out := t.Format("2006-01-02")
			return &out
		}
	}
	return nil
}

// normalizeDateKey wie normalizeDate, aber für die Schlüsselspalte: leerer
// String als NULL-Ersatz, weil die Spalte Teil des Primärschlüssels ist.
func normalizeDateKey(s string) string {
	if d := normalizeDate(s); d != nil {
		return *d
	}
	return ""
}

// normalizeBorough ersetzt fehlende bzw. als "0" kodierte Bezirke durch den Platzhalter.
func normalizeBorough(s string) string {
	s = cleanText(s)
	if s == "" || s == "0" {
		return models.BoroughUnknown
	}
	return s
}

// parseScore liefert NULL bei leerem oder unlesbarem Score.
func parseScore(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// cleanText trimmt und bringt Freitext in NFC (Quelle liefert gemischte Kodierungen).
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
