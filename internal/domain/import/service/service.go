// Package service orchestrates spreadsheet uploads: reading the workbook,
// choosing a parser per sheet and persisting the extracted records.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/grid"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/family-finance-tracker/pkg/metrics"
	"github.com/FACorreiaa/family-finance-tracker/pkg/storage"
)

var tracer = otel.Tracer("github.com/FACorreiaa/family-finance-tracker/internal/domain/import/service")

var (
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("uploaded file exceeds the size limit")
	ErrNoSheets        = errors.New("workbook has no sheets")
	ErrTooManyRows     = errors.New("sheet exceeds the row limit")
)

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
	".csv":  true,
}

// Config holds the upload limits and currency defaults
type Config struct {
	MaxFileBytes    int64
	MaxRows         int
	DefaultCurrency string
	LedgerCurrency  string
}

// DefaultConfig returns a 10 MiB / 10,000 row cap with ARS amounts.
func DefaultConfig() Config {
	return Config{
		MaxFileBytes:    10 << 20,
		MaxRows:         10000,
		DefaultCurrency: "ARS",
		LedgerCurrency:  "ARS",
	}
}

// SheetSummary describes how one sheet was handled
type SheetSummary struct {
	Name        string         `json:"name"`
	Layout      sniffer.Layout `json:"layout,omitempty"`
	Records     int            `json:"records"`
	TotalRows   int            `json:"total_rows"`
	SkippedRows int            `json:"skipped_rows"`
	Empty       bool           `json:"empty,omitempty"`
}

// ParseResult is the outcome of reading and parsing an upload
type ParseResult struct {
	UploadID uuid.UUID       `json:"upload_id"`
	FileName string          `json:"file_name"`
	Sheets   []SheetSummary  `json:"sheets"`
	Records  []parser.Record `json:"records"`
	Errors   []parser.Issue  `json:"errors"`
	Warnings []parser.Issue  `json:"warnings"`
}

// ImportResult is the outcome of a parse followed by a save
type ImportResult struct {
	UploadID uuid.UUID         `json:"upload_id"`
	State    State             `json:"state"`
	Sheets   []SheetSummary    `json:"sheets"`
	Archived *storage.FileInfo `json:"archived,omitempty"`
	*SaveResult
}

// Option adjusts a single upload
type Option func(*uploadOptions)

type uploadOptions struct {
	person string
	year   int
	now    func() time.Time
}

// WithPerson attributes every ledger record to the named person.
func WithPerson(name string) Option {
	return func(o *uploadOptions) { o.person = name }
}

// WithYear pins the ledger year for every sheet, overriding sheet names.
func WithYear(year int) Option {
	return func(o *uploadOptions) { o.year = year }
}

// WithClock replaces time.Now as the fallback source of the ledger year.
func WithClock(now func() time.Time) Option {
	return func(o *uploadOptions) { o.now = now }
}

// Archive keeps the raw bytes of imported files
type Archive interface {
	Save(ctx context.Context, id uuid.UUID, filename string, data []byte) (*storage.FileInfo, error)
}

// UploadService handles preview, confirm and one-shot import of spreadsheets
type UploadService struct {
	cfg        Config
	reconciler *Reconciler
	archive    Archive
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUploadService creates a new upload service. Zero-valued config fields
// fall back to DefaultConfig.
func NewUploadService(repo Repository, cfg Config, logger *slog.Logger, m *metrics.Metrics) *UploadService {
	def := DefaultConfig()
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = def.MaxFileBytes
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = def.MaxRows
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = def.DefaultCurrency
	}
	if cfg.LedgerCurrency == "" {
		cfg.LedgerCurrency = def.LedgerCurrency
	}

	return &UploadService{
		cfg:        cfg,
		reconciler: NewReconciler(repo, logger, m),
		logger:     logger,
		metrics:    m,
	}
}

// WithArchive makes Import keep a copy of every file it parses.
func (s *UploadService) WithArchive(a Archive) *UploadService {
	s.archive = a
	return s
}

// Preview parses an upload without touching the database.
func (s *UploadService) Preview(ctx context.Context, name string, data []byte, opts ...Option) (*ParseResult, error) {
	up := s.begin(name)
	result, err := s.parse(ctx, up, name, data, opts...)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveUpload("previewed")
	return result, nil
}

// Confirm saves records previously returned by Preview.
func (s *UploadService) Confirm(ctx context.Context, records []parser.Record, parseErrors, parseWarnings []parser.Issue) (*SaveResult, error) {
	up := s.begin("confirm")
	if err := up.advance(StateParsing); err != nil {
		return nil, err
	}
	if err := up.advance(StateParsed); err != nil {
		return nil, err
	}
	return s.save(ctx, up, records, parseErrors, parseWarnings)
}

// Import parses an upload and saves every extracted record.
func (s *UploadService) Import(ctx context.Context, name string, data []byte, opts ...Option) (*ImportResult, error) {
	up := s.begin(name)
	parsed, err := s.parse(ctx, up, name, data, opts...)
	if err != nil {
		return nil, err
	}

	var archived *storage.FileInfo
	if s.archive != nil {
		archived, err = s.archive.Save(ctx, up.id, name, data)
		if err != nil {
			up.logger.Warn("failed to archive upload", "error", err)
		}
	}

	saved, err := s.save(ctx, up, parsed.Records, parsed.Errors, parsed.Warnings)
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		UploadID:   up.id,
		State:      up.state,
		Sheets:     parsed.Sheets,
		Archived:   archived,
		SaveResult: saved,
	}, nil
}

func (s *UploadService) begin(name string) *upload {
	return newUpload(s.logger.With(slog.String("file", name)))
}

func (s *UploadService) parse(ctx context.Context, up *upload, name string, data []byte, opts ...Option) (*ParseResult, error) {
	_, span := tracer.Start(ctx, "import.parse")
	defer span.End()

	started := time.Now()
	defer func() { s.metrics.ObserveParseDuration(time.Since(started)) }()

	if err := up.advance(StateParsing); err != nil {
		return nil, err
	}

	result, err := s.parseUpload(up, name, data, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		s.metrics.ObserveUpload(string(StateParseFailed))
		if advErr := up.advance(StateParseFailed); advErr != nil {
			return nil, errors.Join(err, advErr)
		}
		up.logger.Warn("upload rejected", slog.Any("error", err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("sheets", len(result.Sheets)),
		attribute.Int("records", len(result.Records)),
	)
	s.metrics.ObserveIssues("parse", string(parser.SeverityError), len(result.Errors))
	s.metrics.ObserveIssues("parse", string(parser.SeverityWarning), len(result.Warnings))

	if err := up.advance(StateParsed); err != nil {
		return nil, err
	}
	up.logger.Info("upload parsed",
		slog.Int("records", len(result.Records)),
		slog.Int("errors", len(result.Errors)),
		slog.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (s *UploadService) parseUpload(up *upload, name string, data []byte, opts ...Option) (*ParseResult, error) {
	o := uploadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (allowed: .xlsx, .xlsm, .xls, .csv)", ErrUnsupportedFile, ext)
	}
	if int64(len(data)) > s.cfg.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), s.cfg.MaxFileBytes)
	}

	sheets, err := readSheets(name, ext, data)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	for _, sheet := range sheets {
		if sheet.Len() > s.cfg.MaxRows {
			return nil, fmt.Errorf("%w: sheet %s has %d rows (max %d)", ErrTooManyRows, sheet.Name, sheet.Len(), s.cfg.MaxRows)
		}
	}

	result := &ParseResult{
		UploadID: up.id,
		FileName: name,
		Sheets:   make([]SheetSummary, 0, len(sheets)),
		Records:  make([]parser.Record, 0),
		Errors:   make([]parser.Issue, 0),
		Warnings: make([]parser.Issue, 0),
	}

	for _, sheet := range sheets {
		if sheet.IsBlank() {
			result.Sheets = append(result.Sheets, SheetSummary{Name: sheet.Name, Empty: true})
			result.Warnings = append(result.Warnings, parser.Issue{
				Severity: parser.SeverityWarning,
				Sheet:    sheet.Name,
				Message:  "sheet is empty",
			})
			continue
		}

		layout := sniffer.Detect(sheet)
		parsed, err := s.parseSheet(sheet, layout, o)
		if err != nil {
			return nil, err
		}

		up.logger.Debug("sheet parsed",
			slog.String("sheet", sheet.Name),
			slog.String("layout", string(layout)),
			slog.Int("records", len(parsed.Records)),
		)
		s.metrics.ObserveParsed(string(layout), len(parsed.Records))

		result.Sheets = append(result.Sheets, SheetSummary{
			Name:        sheet.Name,
			Layout:      layout,
			Records:     len(parsed.Records),
			TotalRows:   parsed.TotalRows,
			SkippedRows: parsed.SkippedRows,
		})
		result.Records = append(result.Records, parsed.Records...)
		result.Errors = append(result.Errors, parsed.Errors...)
		result.Warnings = append(result.Warnings, parsed.Warnings...)
		if parsed.TotalRows == 0 {
			result.Warnings = append(result.Warnings, parser.Issue{
				Severity: parser.SeverityWarning,
				Sheet:    sheet.Name,
				Message:  "sheet has no data rows",
			})
		}
	}

	return result, nil
}

func (s *UploadService) parseSheet(sheet grid.Sheet, layout sniffer.Layout, o uploadOptions) (*parser.Result, error) {
	popts := parser.Options{
		DefaultCurrency: s.cfg.DefaultCurrency,
		LedgerCurrency:  s.cfg.LedgerCurrency,
		Person:          o.person,
		Now:             o.now,
		YearHint:        o.year,
	}
	if popts.YearHint == 0 {
		if year, ok := sniffer.YearFromSheetName(sheet.Name); ok {
			popts.YearHint = year
		}
	}

	if layout == sniffer.LayoutLedger {
		return parser.ParseLedger(sheet, popts)
	}
	return parser.ParseColumnar(sheet, popts)
}

func readSheets(name, ext string, data []byte) ([]grid.Sheet, error) {
	if ext == ".csv" {
		sheet, err := grid.ReadCSV(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), data)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return []grid.Sheet{sheet}, nil
	}

	sheets, err := grid.ReadExcelBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return sheets, nil
}

func (s *UploadService) save(ctx context.Context, up *upload, records []parser.Record, parseErrors, parseWarnings []parser.Issue) (*SaveResult, error) {
	if err := up.advance(StateSaving); err != nil {
		return nil, err
	}

	result := s.reconciler.Save(ctx, records, parseErrors, parseWarnings)

	if err := up.advance(StateSaved); err != nil {
		return nil, err
	}
	s.metrics.ObserveUpload(string(StateSaved))
	up.logger.Info("upload saved",
		slog.Int("saved", result.SavedCount),
		slog.Int("total", result.Total),
		slog.Int("errors", len(result.Errors)),
	)
	return result, nil
}
