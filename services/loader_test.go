package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inspection-hand/models"
)

// newDryRunLoader baut einen Loader über einen DryRun-GORM (Postgres-Dialekt,
// keine Verbindung) und fängt das generierte SQL pro Create ab.
func newDryRunLoader(t *testing.T) (*Loader, *[]string) {
	t.Helper()

	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test"), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var statements []string
	err = db.Callback().Create().After("gorm:create").Register("capture_sql", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("register capture callback: %v", err)
	}

	return NewLoader(db, zap.NewNop()), &statements
}

func loadProjections() Projections {
	score := 7
	date := "2019-05-21"
	return Projections{
		Restaurants: []models.Restaurant{
			{CAMIS: 41234567, Name: "PIZZA PALACE", Borough: "Brooklyn"},
		},
		Codes: []models.ViolationCode{
			{Code: "10F", Description: "Non-food contact surface improperly constructed."},
		},
		Links: []models.InspectionViolation{
			{
				CAMIS: 41234567, ViolationCode: "10F", InspectionDate: "2019-05-21",
				CriticalFlag: "Not Critical", Score: &score, Grade: "A", GradeDate: &date,
			},
		},
	}
}

func TestLoadUsesConflictIgnoringInserts(t *testing.T) {
	loader, statements := newDryRunLoader(t)

	if _, err := loader.Load(context.Background(), loadProjections()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(*statements) != 3 {
		t.Fatalf("statements = %d, want 3 (one insert per table)", len(*statements))
	}

	// FK-sichere Reihenfolge: Restaurants und Codes vor Links.
	wantTables := []string{`"restaurants"`, `"violation_codes"`, `"inspection_violations"`}
	for i, sql := range *statements {
		if !strings.Contains(sql, "INSERT INTO "+wantTables[i]) {
			t.Errorf("statement %d targets wrong table: %s", i, sql)
		}
		if !strings.Contains(sql, "ON CONFLICT DO NOTHING") {
			t.Errorf("statement %d is not conflict-ignoring: %s", i, sql)
		}
	}
}

func TestLoadSameBatchTwiceProducesNoError(t *testing.T) {
	loader, statements := newDryRunLoader(t)
	p := loadProjections()

	for i := 0; i < 2; i++ {
		if _, err := loader.Load(context.Background(), p); err != nil {
			t.Fatalf("Load (pass %d): %v", i+1, err)
		}
	}

	// Beide Durchläufe schreiben ausschließlich insert-or-ignore; Duplikate
	// können so keine Fehler und keine Doppelzeilen erzeugen.
	if len(*statements) != 6 {
		t.Fatalf("statements = %d, want 6", len(*statements))
	}
	for i, sql := range *statements {
		if !strings.Contains(sql, "ON CONFLICT DO NOTHING") {
			t.Errorf("statement %d is not conflict-ignoring: %s", i, sql)
		}
	}
}

func TestLoadSkipsEmptyProjections(t *testing.T) {
	loader, statements := newDryRunLoader(t)

	stats, err := loader.Load(context.Background(), Projections{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats != (LoadStats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
	if len(*statements) != 0 {
		t.Errorf("statements = %d, want 0 for empty batch", len(*statements))
	}
}

func TestMapLoadErrorForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgForeignKeyViolation,
		TableName:      "inspection_violations",
		ConstraintName: "fk_inspection_violations_restaurant",
	}
	wrapped := fmt.Errorf("create failed: %w", pgErr)

	mapped := mapLoadError(wrapped)

	var cve *ConstraintViolationError
	if !errors.As(mapped, &cve) {
		t.Fatalf("mapLoadError returned %T, want *ConstraintViolationError", mapped)
	}
	if cve.Table != "inspection_violations" {
		t.Errorf("table = %q, want inspection_violations", cve.Table)
	}
	if cve.Constraint != "fk_inspection_violations_restaurant" {
		t.Errorf("constraint = %q, want fk_inspection_violations_restaurant", cve.Constraint)
	}
	if !errors.Is(mapped, pgErr) {
		t.Error("mapped error no longer unwraps to the pg error")
	}
}

func TestMapLoadErrorPassesOtherErrorsThrough(t *testing.T) {
	plain := errors.New("connection refused")
	if got := mapLoadError(plain); got != plain {
		t.Errorf("mapLoadError(%v) = %v, want unchanged", plain, got)
	}

	// Andere SQLSTATEs (z.B. unique violation) bleiben untypisiert; Duplikate
	// werden ohnehin per ON CONFLICT ignoriert.
	uniqueErr := &pgconn.PgError{Code: "23505"}
	var cve *ConstraintViolationError
	if errors.As(mapLoadError(uniqueErr), &cve) {
		t.Error("unique violation must not map to ConstraintViolationError")
	}
}
