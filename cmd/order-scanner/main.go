package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/joho/godotenv"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
	"github.com/Lllllllleong/orderdocumentflow/internal/ocr"
	"github.com/Lllllllleong/orderdocumentflow/internal/services"
)

// uploadField is the multipart form field carrying the document.
const uploadField = "invoiceFile"

var (
	pipelineInstance *services.ScanPipeline
	cfg              *config.Config
	once             sync.Once
	initErr          error
)

func init() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("ScanOrderDocument", handleScan)
}

// main is required by the Go Functions Framework.
func main() {}

func initPipeline() {
	ctx := context.Background()

	cfg, initErr = config.Load()
	if initErr != nil {
		return
	}

	engine, err := ocr.NewEngine(ctx, cfg)
	if err != nil {
		initErr = err
		return
	}

	store, err := mapping.NewStore(ctx, cfg)
	if err != nil {
		initErr = err
		return
	}

	pipelineInstance = services.NewScanPipeline(cfg, engine, store)
	slog.Info("Order scanner initialized.", "ocrEngine", engine.Name())
}

func handleScan(w http.ResponseWriter, r *http.Request) {
	once.Do(initPipeline)
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, ok := readUpload(w, r)
	if !ok {
		return
	}

	result, failure := pipelineInstance.Process(r.Context(), doc)
	if failure != nil {
		writeJSON(w, failureStatus(failure.Code), failure)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readUpload pulls the single file out of the multipart form. A missing or
// oversized upload is answered directly with a failure payload.
func readUpload(w http.ResponseWriter, r *http.Request) (*models.UploadedDocument, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxFileSize+1024)
	if err := r.ParseMultipartForm(cfg.MaxFileSize); err != nil {
		writeJSON(w, http.StatusBadRequest, &models.ScanFailure{
			Error: "File upload error: " + err.Error(),
			Code:  models.CodeFileTooLarge,
		})
		return nil, false
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &models.ScanFailure{
			Error: "No file uploaded",
			Code:  models.CodeNoFile,
		})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, &models.ScanFailure{
			Error: "Failed to read upload",
			Code:  models.CodeInternalError,
		})
		return nil, false
	}

	return &models.UploadedDocument{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     int64(len(data)),
		Data:     data,
	}, true
}

// failureStatus maps fatal pipeline codes onto HTTP statuses: caller
// problems are 400s, everything else is a 500.
func failureStatus(code models.ErrorCode) int {
	switch code {
	case models.CodeNoFile, models.CodeInvalidFileType, models.CodeFileTooLarge,
		models.CodeFileTooSmall, models.CodeInvalidFilename, models.CodePDFInvalid,
		models.CodeTooManyPages:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
