package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inspection-hand/config"
	"inspection-hand/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt einen S3-Client für den konfigurierten Snapshot-Endpunkt.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.SnapshotS3URL,
				SigningRegion:     cfg.SnapshotS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.SnapshotS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.SnapshotS3Key, cfg.SnapshotS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadBatchSnapshot archiviert einen Roh-Batch als gzip-JSON und gibt den
// Objekt-Key zurück.
func UploadBatchSnapshot(ctx context.Context, client *s3.Client, cfg *config.Config, records []models.InspectionRecord) (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(records); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("snapshots/inspections-%s.json.gz", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.SnapshotS3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}
