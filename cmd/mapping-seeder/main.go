// mapping-seeder loads inventory-mapping records from a JSON file into the
// configured mapping backend. The input is an array of records:
//
//	[
//	  {
//	    "printavoStyleCode": "PC61",
//	    "color": "Black",
//	    "size": "L",
//	    "sanmarInventoryKey": "PC61BLK",
//	    "sizeIndex": "L",
//	    "warehouse": "ATL",
//	    "description": "Port & Company Essential T-Shirt - Black"
//	  }
//	]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	file := flag.String("file", "", "path to the mappings JSON file")
	flag.Parse()
	if *file == "" {
		slog.Error("-file is required")
		os.Exit(1)
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := mapping.NewStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open mapping store", "error", err)
		os.Exit(1)
	}

	seeder, ok := store.(mapping.Seeder)
	if !ok {
		slog.Error("Configured mapping backend does not support seeding")
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		slog.Error("Failed to read mappings file", "error", err, "file", *file)
		os.Exit(1)
	}
	var records []models.MappingRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.Error("Failed to parse mappings file", "error", err, "file", *file)
		os.Exit(1)
	}

	for _, rec := range records {
		if err := seeder.Put(ctx, rec); err != nil {
			slog.Error("Failed to write mapping", "error", err, "style", rec.StyleCode, "color", rec.Color, "size", rec.Size)
			os.Exit(1)
		}
	}
	slog.Info("Mappings seeded.", "count", len(records))

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("Failed to close mapping store", "error", err)
		}
	}
}
