package services

import (
	"reflect"
	"testing"

	"go.uber.org/zap"

	"inspection-hand/models"
)

func sampleBatch() []models.InspectionRecord {
	return []models.InspectionRecord{
		{
			CAMIS: "41234567", DBA: "PIZZA PALACE", Boro: "Brooklyn",
			Building: "123", Street: "FLATBUSH AVE", Zipcode: "11217", Phone: "7185551234",
			CuisineDescription: "Pizza",
			InspectionDate:     "2019-05-21T00:00:00.000",
			Action:             "Violations were cited in the following area(s).",
			ViolationCode:      "10F", ViolationDescription: "Non-food contact surface improperly constructed.",
			CriticalFlag: "Not Critical", Score: "7", Grade: "A",
			GradeDate: "2019-05-21T00:00:00.000", RecordDate: "2019-06-01T00:00:00.000",
			InspectionType: "Cycle Inspection / Initial Inspection",
		},
		{
			CAMIS: "41234567", DBA: "PIZZA PALACE", Boro: "Brooklyn",
			InspectionDate: "2019-05-21T00:00:00.000",
			ViolationCode:  "08A", ViolationDescription: "Facility not vermin proof.",
			CriticalFlag: "Critical", Score: "7", Grade: "A",
		},
		{
			CAMIS: "50098765", DBA: "CURRY HOUSE", Boro: "0",
			InspectionDate: "05/03/2021",
			ViolationCode:  "10F", ViolationDescription: "Different text for same code.",
			CriticalFlag: "Not Critical",
		},
		{
			// Inspektion ohne zitierten Verstoß
			CAMIS: "40011111", DBA: "CLEAN DINER", Boro: "Queens",
			InspectionDate: "2022-01-15T00:00:00.000",
			Action:         "No violations were recorded at the time of this inspection.",
		},
	}
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(zap.NewNop())
}

func TestNormalizeSplitsProjections(t *testing.T) {
	p := newTestNormalizer().Normalize(sampleBatch())

	if got, want := len(p.Restaurants), 3; got != want {
		t.Errorf("restaurants = %d, want %d", got, want)
	}
	if got, want := len(p.Codes), 2; got != want {
		t.Errorf("codes = %d, want %d", got, want)
	}
	if got, want := len(p.Links), 3; got != want {
		t.Errorf("links = %d, want %d", got, want)
	}
	if p.Dropped != 0 {
		t.Errorf("dropped = %d, want 0", p.Dropped)
	}
}

func TestNormalizeReferentialClosure(t *testing.T) {
	p := newTestNormalizer().Normalize(sampleBatch())

	restaurants := make(map[uint64]bool)
	for _, r := range p.Restaurants {
		restaurants[r.CAMIS] = true
	}
	codes := make(map[string]bool)
	for _, c := range p.Codes {
		codes[c.Code] = true
	}

	for _, l := range p.Links {
		if !restaurants[l.CAMIS] {
			t.Errorf("link references camis %d missing from restaurant projection", l.CAMIS)
		}
		if !codes[l.ViolationCode] {
			t.Errorf("link references code %q missing from code projection", l.ViolationCode)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer()
	batch := sampleBatch()

	first := n.Normalize(batch)
	second := n.Normalize(batch)

	if !reflect.DeepEqual(first, second) {
		t.Error("normalizing the same batch twice produced different projections")
	}
}

func TestNormalizeBoroughSentinel(t *testing.T) {
	p := newTestNormalizer().Normalize([]models.InspectionRecord{
		{CAMIS: "1", DBA: "A", Boro: "0"},
		{CAMIS: "2", DBA: "B", Boro: ""},
		{CAMIS: "3", DBA: "C", Boro: "Manhattan"},
	})

	want := map[uint64]string{1: models.BoroughUnknown, 2: models.BoroughUnknown, 3: "Manhattan"}
	for _, r := range p.Restaurants {
		if r.Borough != want[r.CAMIS] {
			t.Errorf("camis %d: borough = %q, want %q", r.CAMIS, r.Borough, want[r.CAMIS])
		}
	}
}

func TestNormalizeMissingViolationCode(t *testing.T) {
	p := newTestNormalizer().Normalize([]models.InspectionRecord{
		{CAMIS: "40011111", DBA: "CLEAN DINER", Boro: "Queens", InspectionDate: "2022-01-15"},
	})

	if len(p.Restaurants) != 1 {
		t.Fatalf("restaurants = %d, want 1", len(p.Restaurants))
	}
	if len(p.Codes) != 0 {
		t.Errorf("codes = %d, want 0", len(p.Codes))
	}
	if len(p.Links) != 0 {
		t.Errorf("links = %d, want 0", len(p.Links))
	}
}

func TestNormalizeFirstSeenWins(t *testing.T) {
	p := newTestNormalizer().Normalize([]models.InspectionRecord{
		{CAMIS: "7", DBA: "FIRST NAME", Boro: "Bronx", ViolationCode: "04L", ViolationDescription: "first description"},
		{CAMIS: "7", DBA: "SECOND NAME", Boro: "Queens", ViolationCode: "04L", ViolationDescription: "second description"},
	})

	if len(p.Restaurants) != 1 || p.Restaurants[0].Name != "FIRST NAME" {
		t.Errorf("restaurant projection did not keep first-seen attributes: %+v", p.Restaurants)
	}
	if len(p.Codes) != 1 || p.Codes[0].Description != "first description" {
		t.Errorf("code projection did not keep first-seen description: %+v", p.Codes)
	}
}

func TestNormalizeDedupesLinksOnCompositeKey(t *testing.T) {
	rec := models.InspectionRecord{
		CAMIS: "9", DBA: "X", Boro: "Queens",
		InspectionDate: "2020-02-02", ViolationCode: "02B",
	}
	p := newTestNormalizer().Normalize([]models.InspectionRecord{rec, rec})

	if len(p.Links) != 1 {
		t.Errorf("links = %d, want 1", len(p.Links))
	}
}

func TestNormalizeDropsUnparseableCAMIS(t *testing.T) {
	p := newTestNormalizer().Normalize([]models.InspectionRecord{
		{CAMIS: "", DBA: "NO ID"},
		{CAMIS: "abc", DBA: "BAD ID"},
		{CAMIS: "5", DBA: "OK"},
	})

	if p.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", p.Dropped)
	}
	if len(p.Restaurants) != 1 {
		t.Errorf("restaurants = %d, want 1", len(p.Restaurants))
	}
}

func TestNormalizeDateHandling(t *testing.T) {
	cases := []struct {
		in   string
		want string // "" = NULL erwartet
	}{
		{"2019-05-21T00:00:00.000", "2019-05-21"},
		{"2019-05-21T13:45:00", "2019-05-21"},
		{"2019-05-21", "2019-05-21"},
		{"05/21/2019", "2019-05-21"},
		{"not a date", ""},
		{"", ""},
	}

	for _, tc := range cases {
		got := normalizeDate(tc.in)
		if tc.want == "" {
			if got != nil {
				t.Errorf("normalizeDate(%q) = %q, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("normalizeDate(%q) = %v, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeMalformedDatesKeptAsNull(t *testing.T) {
	p := newTestNormalizer().Normalize([]models.InspectionRecord{
		{
			CAMIS: "11", DBA: "X", Boro: "Queens",
			InspectionDate: "garbage", ViolationCode: "06D",
			GradeDate: "also garbage", RecordDate: "",
		},
	})

	if len(p.Links) != 1 {
		t.Fatalf("links = %d, want 1 (malformed dates must not drop the record)", len(p.Links))
	}
	l := p.Links[0]
	if l.InspectionDate != "" {
		t.Errorf("inspection date = %q, want empty key sentinel", l.InspectionDate)
	}
	if l.GradeDate != nil || l.RecordDate != nil {
		t.Errorf("grade/record date = %v/%v, want nil", l.GradeDate, l.RecordDate)
	}
}

func TestNormalizeScore(t *testing.T) {
	p := newTestNormalizer().Normalize([]models.InspectionRecord{
		{CAMIS: "12", DBA: "A", Boro: "Queens", ViolationCode: "06D", InspectionDate: "2020-01-01", Score: "13"},
		{CAMIS: "13", DBA: "B", Boro: "Queens", ViolationCode: "06D", InspectionDate: "2020-01-01", Score: "n/a"},
	})

	if p.Links[0].Score == nil || *p.Links[0].Score != 13 {
		t.Errorf("score = %v, want 13", p.Links[0].Score)
	}
	if p.Links[1].Score != nil {
		t.Errorf("score = %v, want nil for unparseable input", p.Links[1].Score)
	}
}
