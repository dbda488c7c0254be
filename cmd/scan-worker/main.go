package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"

	"github.com/Lllllllleong/orderdocumentflow/internal/services"
)

var (
	workerInstance *services.ScanWorkerFunction
	once           sync.Once
	initErr        error
)

func init() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ScanUploadedDocument", scanUploadedDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// scanUploadedDocument is the Cloud Function entry point for GCS
// object-finalize events on the intake bucket.
func scanUploadedDocument(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		workerInstance, initErr = services.NewScanWorker(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return workerInstance.Process(ctx, gcsEvent)
}
