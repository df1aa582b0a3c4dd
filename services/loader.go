package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inspection-hand/models"
)

// insertBatchSize begrenzt die Zeilen pro INSERT-Statement.
const insertBatchSize = 500

// pgForeignKeyViolation ist der Postgres-SQLSTATE für FK-Verletzungen.
const pgForeignKeyViolation = "23503"

// ConstraintViolationError meldet eine Link-Zeile, deren Restaurant oder Code
// in der Zieltabelle fehlt. Darf bei korrekter Ladereihenfolge nicht auftreten,
// wird aber nie stillschweigend verschluckt.
type ConstraintViolationError struct {
	Table      string
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation on %s (%s): %v", e.Table, e.Constraint, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// LoadStats enthält die tatsächlich eingefügten Zeilen je Tabelle
// (Konflikt-ignorierte Duplikate zählen nicht).
type LoadStats struct {
	Restaurants int64
	Codes       int64
	Links       int64
}

// Loader schreibt die Projektionen mit Insert-or-Ignore-Semantik nach Postgres.
type Loader struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewLoader erstellt einen neuen Loader.
func NewLoader(db *gorm.DB, logger *zap.Logger) *Loader {
	return &Loader{DB: db, Logger: logger}
}

// EnsureSchema legt die Zieltabellen samt deklarierter Primär- und
// Fremdschlüssel an (idempotent).
func (l *Loader) EnsureSchema() error {
	return l.DB.AutoMigrate(
		&models.Restaurant{},
		&models.ViolationCode{},
		&models.InspectionViolation{},
		&models.FetchRun{},
	)
}

// Load schreibt in FK-sicherer Reihenfolge: Restaurants und Codes vor Links.
// Duplikate (gleicher Schlüssel) werden ignoriert; Wiederholungsläufe sind
// dadurch idempotent.
func (l *Loader) Load(ctx context.Context, p Projections) (LoadStats, error) {
	stats := LoadStats{}

	n, err := l.insertIgnoring(ctx, &p.Restaurants, len(p.Restaurants))
	if err != nil {
		return stats, fmt.Errorf("loading restaurants: %w", err)
	}
	stats.Restaurants = n

	n, err = l.insertIgnoring(ctx, &p.Codes, len(p.Codes))
	if err != nil {
		return stats, fmt.Errorf("loading violation codes: %w", err)
	}
	stats.Codes = n

	n, err = l.insertIgnoring(ctx, &p.Links, len(p.Links))
	if err != nil {
		return stats, fmt.Errorf("loading inspection violations: %w", err)
	}
	stats.Links = n

	l.Logger.Info("Laden abgeschlossen",
		zap.Int64("restaurants_inserted", stats.Restaurants),
		zap.Int64("codes_inserted", stats.Codes),
		zap.Int64("links_inserted", stats.Links))

	return stats, nil
}

// insertIgnoring führt ON CONFLICT DO NOTHING in Batches aus und gibt die
// Zahl tatsächlich eingefügter Zeilen zurück.
func (l *Loader) insertIgnoring(ctx context.Context, rows any, count int) (int64, error) {
	if count == 0 {
		return 0, nil
	}
	tx := l.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, insertBatchSize)
	if tx.Error != nil {
		return 0, mapLoadError(tx.Error)
	}
	return tx.RowsAffected, nil
}

// mapLoadError hebt Postgres-FK-Verletzungen in den typisierten Fehler.
func mapLoadError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return &ConstraintViolationError{
			Table:      pgErr.TableName,
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	}
	return err
}
