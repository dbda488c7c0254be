package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/gcp"
	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
	"github.com/Lllllllleong/orderdocumentflow/internal/ocr"
)

// Scan record statuses maintained by the worker.
const (
	scanStatusProcessing = "PROCESSING"
	scanStatusCompleted  = "COMPLETED"
	scanStatusFailed     = "FAILED"
)

// WorkerConfig holds configuration for the scan-worker entrypoint.
type WorkerConfig struct {
	ProjectID      string
	ResultsBucket  string
	ScanCollection string
}

// ScanWorkerFunction reacts to a document landing in the intake bucket: it
// downloads the object, runs the scan pipeline on it, writes the result JSON
// to the results bucket, and tracks the job in a Firestore record.
type ScanWorkerFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	pipeline        *ScanPipeline
	config          WorkerConfig
}

// GCSEvent is the payload of a GCS object-finalize event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// NewScanWorker wires the worker's clients and the pipeline from the
// environment.
func NewScanWorker(ctx context.Context) (*ScanWorkerFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if cfg.ResultsBucket == "" {
		return nil, fmt.Errorf("RESULTS_BUCKET environment variable must be set")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	engine, err := ocr.NewEngine(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	store, err := mapping.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping store: %w", err)
	}

	f := &ScanWorkerFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		pipeline:        NewScanPipeline(cfg, engine, store),
		config: WorkerConfig{
			ProjectID:      cfg.ProjectID,
			ResultsBucket:  cfg.ResultsBucket,
			ScanCollection: cfg.ScanCollection,
		},
	}
	slog.Info("Scan worker initialized.", "ocrEngine", engine.Name(), "resultsBucket", cfg.ResultsBucket)
	return f, nil
}

// Process handles one uploaded document end to end.
func (f *ScanWorkerFunction) Process(ctx context.Context, e GCSEvent) error {
	scanID := uuid.NewString()
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name, "scanId", scanID)
	logCtx.Info("Processing new upload.")

	tempDir, err := os.MkdirTemp("", "scan-worker-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, filepath.Base(e.Name))
	if err := gcp.StreamObject(ctx, f.storageClient, e.Bucket, e.Name, localPath); err != nil {
		logCtx.Error("Failed to download upload", "error", err)
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read staged upload: %w", err)
	}

	docRef, err := f.createScanRecord(ctx, scanID, e)
	if err != nil {
		logCtx.Error("Failed to create scan record", "error", err)
		return err
	}

	doc := &models.UploadedDocument{
		Filename: filepath.Base(e.Name),
		MIMEType: e.ContentType,
		Size:     int64(len(data)),
		Data:     data,
	}

	result, failure := f.pipeline.Process(ctx, doc)
	if failure != nil {
		logCtx.Warn("Scan failed.", "code", failure.Code, "error", failure.Error)
		if err := f.finishRecord(ctx, docRef, scanStatusFailed, failure.Error, 0, ""); err != nil {
			logCtx.Error("CRITICAL: Failed to record scan failure.", "updateError", err)
		}
		// A fatal scan is terminal for this object; retrying the event
		// would only fail the same way.
		return nil
	}

	resultObject := fmt.Sprintf("%s/%s.json", time.Now().UTC().Format("2006-01-02"), scanID)
	if err := f.saveResult(ctx, result, resultObject); err != nil {
		logCtx.Error("Failed to save scan result", "error", err)
		if uerr := f.finishRecord(ctx, docRef, scanStatusFailed, err.Error(), 0, ""); uerr != nil {
			logCtx.Error("CRITICAL: Failed to record scan failure.", "updateError", uerr)
		}
		return err
	}

	if err := f.finishRecord(ctx, docRef, scanStatusCompleted, "", len(result.LineItems), resultObject); err != nil {
		logCtx.Error("Failed to finalize scan record", "error", err)
		return err
	}

	logCtx.Info("Scan complete.", "items", len(result.LineItems), "resultObject", resultObject)
	return nil
}

func (f *ScanWorkerFunction) createScanRecord(ctx context.Context, scanID string, e GCSEvent) (*firestore.DocumentRef, error) {
	rec := models.ScanRecord{
		ScanID:           scanID,
		OriginalFilename: filepath.Base(e.Name),
		SourceObject:     fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name),
		Status:           scanStatusProcessing,
		CreatedAt:        time.Now(),
	}
	docRef := f.firestoreClient.Collection(f.config.ScanCollection).Doc(scanID)
	if _, err := docRef.Set(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create scan record: %w", err)
	}
	return docRef, nil
}

func (f *ScanWorkerFunction) finishRecord(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string, itemCount int, resultObject string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	if itemCount > 0 {
		updates = append(updates, firestore.Update{Path: "itemCount", Value: itemCount})
	}
	if resultObject != "" {
		updates = append(updates, firestore.Update{Path: "resultObject", Value: resultObject})
	}
	_, err := docRef.Update(ctx, updates)
	return err
}

// saveResult uploads the result JSON with retries. Event redelivery makes
// the write idempotent via the if-not-exists condition.
func (f *ScanWorkerFunction) saveResult(ctx context.Context, result *models.ScanResult, objectName string) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}

	const maxRetries = 4
	backoff := 1 * time.Second
	var lastErr error

	bucket := f.storageClient.Bucket(f.config.ResultsBucket)
	for i := 0; i < maxRetries; i++ {
		writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
		err := gcp.SaveToGCSAtomically(writeCtx, bucket, objectName, string(payload))
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		slog.Warn("Result upload failed, will retry.",
			"gcsObject", objectName,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("upload for %s failed after all retries: %w", objectName, lastErr)
}
