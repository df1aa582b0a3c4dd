package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// SODA-API (NYC Open Data). Der App-Token ist optional, hebt aber das Throttling auf.
	SodaBaseURL  string `envconfig:"SODA_BASE_URL" default:"https://data.cityofnewyork.us/resource"`
	SodaDataset  string `envconfig:"SODA_DATASET" default:"43nn-pn8j"`
	SodaAppToken string `envconfig:"SODA_APP_TOKEN"`
	SodaPageSize int    `envconfig:"SODA_PAGE_SIZE" default:"1000"`
	SodaMaxPages int    `envconfig:"SODA_MAX_PAGES" default:"50"`

	// Obergrenze an Datensätzen pro Lauf.
	FetchLimit int `envconfig:"FETCH_LIMIT" default:"1000"`

	// Leer = einmaliger Lauf bis zum Ende, sonst resident mit Cron-Zeitplan.
	CronSchedule string `envconfig:"CRON_SCHEDULE"`

	// Optionales S3-Archiv für Roh-Batches. Leerer Bucket = deaktiviert.
	SnapshotS3Key    string `envconfig:"SNAPSHOT_S3_KEY"`
	SnapshotS3Secret string `envconfig:"SNAPSHOT_S3_SECRET"`
	SnapshotS3URL    string `envconfig:"SNAPSHOT_S3_URL"`
	SnapshotS3Region string `envconfig:"SNAPSHOT_S3_REGION"`
	SnapshotS3Bucket string `envconfig:"SNAPSHOT_S3_BUCKET"`

	// Provider-Konfiguration
	EnabledProvider string `envconfig:"ENABLED_PROVIDER" default:"socrata"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// SnapshotsEnabled meldet, ob Roh-Batches nach S3 archiviert werden sollen.
func (c *Config) SnapshotsEnabled() bool {
	return c.SnapshotS3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
