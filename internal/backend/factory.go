// Package backend selects where exported expenses are written.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/config"
	"spendwise/internal/sheets"
	gsheet "spendwise/internal/sheets/google"
	"spendwise/internal/sheets/memory"
)

// Type names an export backend.
type Type string

const (
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

// TypeFor picks Google Sheets when a spreadsheet is configured and the
// in-memory store otherwise.
func TypeFor(cfg *config.Config) Type {
	if cfg.SheetsEnabled() {
		return SheetsBackend
	}
	return MemoryBackend
}

// Factory builds export writers.
type Factory struct {
	logger *slog.Logger
	// sheets is swapped in tests to avoid calling Google.
	sheets func(ctx context.Context, cfg gsheet.Config) (sheets.ExpenseWriter, error)
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		logger: logger,
		sheets: func(ctx context.Context, cfg gsheet.Config) (sheets.ExpenseWriter, error) {
			return gsheet.New(ctx, cfg)
		},
	}
}

// ExpenseWriter returns the writer selected by cfg.
func (f *Factory) ExpenseWriter(ctx context.Context, cfg *config.Config) (sheets.ExpenseWriter, error) {
	switch t := TypeFor(cfg); t {
	case SheetsBackend:
		w, err := f.sheets(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets export: %w", err)
		}
		f.logger.Info("Initialized export backend",
			"backend", t,
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
		return w, nil
	case MemoryBackend:
		f.logger.Info("Initialized export backend", "backend", t)
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", t)
	}
}
