package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"inspection-hand/config"
	"inspection-hand/models"
	"inspection-hand/providers"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher implementiert das Provider-Interface für die Socrata SODA-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen SODA-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "socrata"
}

// Fetch blättert mit $limit/$offset durch den Datensatz, bis limit Datensätze
// erreicht sind, eine kurze Seite kommt oder SodaMaxPages überschritten wäre.
// Jeder Fehler bricht den gesamten Abruf ab (kein Teilergebnis).
func (f *Fetcher) Fetch(ctx context.Context, limit int) ([]models.InspectionRecord, error) {
	log := f.Logger.With(zap.String("dataset", f.Config.SodaDataset), zap.Int("limit", limit))
	log.Info("Starte SODA-Abruf.")

	pageSize := f.Config.SodaPageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var records []models.InspectionRecord
	for page := 0; ; page++ {
		if limit > 0 && len(records) >= limit {
			break
		}
		if f.Config.SodaMaxPages > 0 && page >= f.Config.SodaMaxPages {
			log.Warn("Seitenlimit erreicht, Abruf wird abgeschnitten", zap.Int("max_pages", f.Config.SodaMaxPages))
			break
		}

		size := pageSize
		if limit > 0 && limit-len(records) < size {
			size = limit - len(records)
		}

		batch, err := f.fetchPage(ctx, size, page*pageSize)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
		log.Debug("Seite geladen", zap.Int("page", page), zap.Int("count", len(batch)))

		if len(batch) < size {
			break // Datensatz erschöpft
		}
	}

	log.Info("SODA-Abruf abgeschlossen", zap.Int("total_records", len(records)))
	return records, nil
}

// fetchPage holt eine einzelne Ergebnis-Seite.
func (f *Fetcher) fetchPage(ctx context.Context, limit, offset int) ([]models.InspectionRecord, error) {
	pageURL := f.buildPageURL(limit, offset)
	f.Logger.Debug("Rufe SODA-URL auf", zap.String("url", pageURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &providers.TransientFetchError{Provider: f.Name(), Err: err}
	}
	if f.Config.SodaAppToken != "" {
		req.Header.Set("X-App-Token", f.Config.SodaAppToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &providers.TransientFetchError{Provider: f.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		f.Logger.Error("SODA-API hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &providers.TransientFetchError{
			Provider: f.Name(),
			Err:      fmt.Errorf("soda request failed: status %d", resp.StatusCode),
		}
	}

	var records []models.InspectionRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &providers.TransientFetchError{Provider: f.Name(), Err: err}
	}
	return records, nil
}

// buildPageURL baut die URL für eine einzelne SODA-Seite.
func (f *Fetcher) buildPageURL(limit, offset int) string {
	q := url.Values{}
	q.Set("$limit", fmt.Sprintf("%d", limit))
	q.Set("$offset", fmt.Sprintf("%d", offset))
	q.Set("$order", "camis") // stabile Reihenfolge beim Blättern
	return fmt.Sprintf("%s/%s.json?%s", f.Config.SodaBaseURL, f.Config.SodaDataset, q.Encode())
}
