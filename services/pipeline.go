package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"inspection-hand/config"
	"inspection-hand/models"
	"inspection-hand/providers"
	"inspection-hand/storage"
)

// PipelineService orchestriert einen Lauf: Extract -> Snapshot -> Normalize -> Load.
// Kein Retry, keine Teilwiederaufnahme; ein Fehlschlag bricht den Lauf ab.
type PipelineService struct {
	Config     *config.Config
	DB         *gorm.DB
	S3Client   *s3.Client // nil, wenn Snapshots deaktiviert sind
	Logger     *zap.Logger
	Provider   providers.Provider
	Normalizer *Normalizer
	Loader     *Loader
}

// NewPipelineService erstellt eine neue Instanz des PipelineService.
func NewPipelineService(cfg *config.Config, db *gorm.DB, s3Client *s3.Client, logger *zap.Logger, provider providers.Provider) *PipelineService {
	return &PipelineService{
		Config:     cfg,
		DB:         db,
		S3Client:   s3Client,
		Logger:     logger,
		Provider:   provider,
		Normalizer: NewNormalizer(logger),
		Loader:     NewLoader(db, logger),
	}
}

// RunResult fasst einen abgeschlossenen Lauf zusammen.
type RunResult struct {
	RecordsFetched int
	Projections    Projections
	Stats          LoadStats
	SnapshotKey    string
	Duration       time.Duration
}

// Run führt die Pipeline einmal bis zum Ende aus. Jeder Lauf hinterlässt eine
// FetchRun-Zeile, auch bei Fehlschlag.
func (p *PipelineService) Run(ctx context.Context) (*RunResult, error) {
	log := p.Logger.With(zap.String("provider", p.Provider.Name()))
	log.Info("Starte Pipeline-Lauf.")
	start := time.Now()

	records, err := p.Provider.Fetch(ctx, p.Config.FetchLimit)
	if err != nil {
		// Fetch-Fehler: nichts normalisieren, nichts laden.
		p.recordRun(nil, nil, start, err)
		return nil, fmt.Errorf("extract failed: %w", err)
	}

	result := &RunResult{RecordsFetched: len(records)}

	// Roh-Batch optional als gzip-JSON archivieren; rein informativ,
	// ein Fehler hier bricht den Lauf nicht ab.
	if p.S3Client != nil && p.Config.SnapshotsEnabled() {
		key, err := storage.UploadBatchSnapshot(ctx, p.S3Client, p.Config, records)
		if err != nil {
			log.Warn("Snapshot-Upload fehlgeschlagen", zap.Error(err))
		} else {
			result.SnapshotKey = key
			log.Info("Roh-Batch archiviert", zap.String("snapshot_key", key))
		}
	}

	result.Projections = p.Normalizer.Normalize(records)

	stats, err := p.Loader.Load(ctx, result.Projections)
	result.Stats = stats
	result.Duration = time.Since(start)
	if err != nil {
		p.recordRun(result, &stats, start, err)
		return nil, fmt.Errorf("load failed: %w", err)
	}

	p.recordRun(result, &stats, start, nil)
	log.Info("Pipeline-Lauf abgeschlossen",
		zap.Int("records_fetched", result.RecordsFetched),
		zap.Int64("restaurants_inserted", stats.Restaurants),
		zap.Int64("codes_inserted", stats.Codes),
		zap.Int64("links_inserted", stats.Links),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// recordRun schreibt die Audit-Zeile; Fehler dabei werden nur geloggt.
func (p *PipelineService) recordRun(result *RunResult, stats *LoadStats, start time.Time, runErr error) {
	run := models.FetchRun{
		Provider:   p.Provider.Name(),
		DurationMS: time.Since(start).Milliseconds(),
		Succeeded:  runErr == nil,
	}
	if runErr != nil {
		run.ErrorText = runErr.Error()
	}
	if result != nil {
		run.RecordsFetched = result.RecordsFetched
		run.RecordsDropped = result.Projections.Dropped
		run.SnapshotKey = result.SnapshotKey

		extra := map[string]int{
			"restaurants": len(result.Projections.Restaurants),
			"codes":       len(result.Projections.Codes),
			"links":       len(result.Projections.Links),
		}
		if b, err := json.Marshal(extra); err == nil {
			run.Stats = datatypes.JSON(b)
		}
	}
	if stats != nil {
		run.RestaurantsInserted = int(stats.Restaurants)
		run.CodesInserted = int(stats.Codes)
		run.LinksInserted = int(stats.Links)
	}

	if err := p.DB.Create(&run).Error; err != nil {
		p.Logger.Warn("Konnte FetchRun nicht speichern", zap.Error(err))
	}
}
