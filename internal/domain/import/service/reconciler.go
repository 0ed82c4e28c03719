package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/normalizer"
	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/family-finance-tracker/pkg/metrics"
	"github.com/FACorreiaa/family-finance-tracker/pkg/money"
)

const maxIssueMessage = 200

// CategoryRef identifies a stored category
type CategoryRef struct {
	ID   uuid.UUID
	Name string
	Kind parser.Kind
}

// PersonRef identifies a stored person
type PersonRef struct {
	ID   uuid.UUID
	Name string
}

// RecordRef identifies a stored expense or income row
type RecordRef struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// NewTransaction is the row written for one record
type NewTransaction struct {
	Kind       parser.Kind
	CategoryID uuid.UUID
	PersonID   *uuid.UUID
	Concept    string
	Note       string
	Amount     decimal.Decimal
	Currency   string
	Date       time.Time
	Sheet      string
	Row        int
}

// Store is the transactional write surface used while saving one record.
type Store interface {
	FindOrCreateCategory(ctx context.Context, name string, kind parser.Kind) (CategoryRef, error)
	FindOrCreatePerson(ctx context.Context, name string) (PersonRef, error)
	CreateTransaction(ctx context.Context, tx NewTransaction) (RecordRef, error)
}

// Repository runs fn inside a database transaction. fn returning an error
// rolls the transaction back.
type Repository interface {
	RunInTx(ctx context.Context, fn func(Store) error) error
}

// SavedRecord is a record that reached the database
type SavedRecord struct {
	ID         uuid.UUID     `json:"id"`
	CategoryID uuid.UUID     `json:"category_id"`
	PersonID   *uuid.UUID    `json:"person_id,omitempty"`
	Record     parser.Record `json:"record"`
}

// SaveResult combines parse-phase and save-phase outcomes
type SaveResult struct {
	Saved      []SavedRecord  `json:"saved"`
	SavedCount int            `json:"saved_count"`
	Total      int            `json:"total"`
	Errors     []parser.Issue `json:"errors"`
	Warnings   []parser.Issue `json:"warnings"`
	Message    string         `json:"message"`
}

// resolutionCache remembers categories and persons resolved during one
// Save call. It is never shared between uploads.
type resolutionCache struct {
	categories map[string]CategoryRef
	persons    map[string]PersonRef
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{
		categories: make(map[string]CategoryRef),
		persons:    make(map[string]PersonRef),
	}
}

func categoryKey(kind parser.Kind, name string) string {
	return string(kind) + "|" + strings.ToLower(name)
}

func personKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Reconciler persists parsed records one at a time, each in its own
// transaction, so a failing record never aborts the batch.
type Reconciler struct {
	repo    Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewReconciler(repo Repository, logger *slog.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{repo: repo, logger: logger, metrics: m}
}

// Save persists records and returns the combined result. Parse issues are
// reported first, followed by issues raised while saving.
func (r *Reconciler) Save(ctx context.Context, records []parser.Record, parseErrors, parseWarnings []parser.Issue) *SaveResult {
	result := &SaveResult{
		Saved:    make([]SavedRecord, 0, len(records)),
		Total:    len(records),
		Errors:   append(make([]parser.Issue, 0, len(parseErrors)), parseErrors...),
		Warnings: append(make([]parser.Issue, 0, len(parseWarnings)), parseWarnings...),
	}

	ctx, span := tracer.Start(ctx, "import.save")
	defer span.End()

	cache := newResolutionCache()
	for i, record := range records {
		index := i + 1
		if reason := validateRecord(record); reason != "" {
			result.Errors = append(result.Errors, saveIssue(index, record, reason))
			continue
		}
		record.Currency = strings.ToUpper(strings.TrimSpace(record.Currency))

		saved, err := r.saveOne(ctx, cache, record)
		if err != nil {
			r.logger.Warn("failed to save record",
				slog.Int("index", index),
				slog.String("sheet", record.Sheet),
				slog.Int("row", record.Row),
				slog.Any("error", err),
			)
			result.Errors = append(result.Errors, saveIssue(index, record, redact(err.Error())))
			continue
		}

		result.Saved = append(result.Saved, *saved)
		r.metrics.ObserveSaved(string(record.Kind))
	}

	result.SavedCount = len(result.Saved)
	r.metrics.ObserveIssues("save", string(parser.SeverityError), len(result.Errors)-len(parseErrors))
	result.Message = summarize(result, len(result.Errors), len(result.Warnings))
	span.SetAttributes(
		attribute.Int("records.total", result.Total),
		attribute.Int("records.saved", result.SavedCount),
	)
	return result
}

// saveOne resolves the record's category and person and writes it. Cache
// entries created inside the transaction are published only on commit.
func (r *Reconciler) saveOne(ctx context.Context, cache *resolutionCache, record parser.Record) (*SavedRecord, error) {
	var (
		saved         SavedRecord
		newCategories = map[string]CategoryRef{}
		newPersons    = map[string]PersonRef{}
	)

	err := r.repo.RunInTx(ctx, func(store Store) error {
		name := normalizer.CategoryName(record.Category)
		category, ok := cache.categories[categoryKey(record.Kind, name)]
		if !ok {
			ref, err := store.FindOrCreateCategory(ctx, name, record.Kind)
			if err != nil {
				return fmt.Errorf("failed to resolve category %q: %w", name, err)
			}
			category = ref
			newCategories[categoryKey(record.Kind, name)] = ref
		}

		var personID *uuid.UUID
		if who := strings.TrimSpace(record.Person); who != "" {
			person, ok := cache.persons[personKey(who)]
			if !ok {
				ref, err := store.FindOrCreatePerson(ctx, who)
				if err != nil {
					return fmt.Errorf("failed to resolve person %q: %w", who, err)
				}
				person = ref
				newPersons[personKey(who)] = ref
			}
			personID = &person.ID
		}

		ref, err := store.CreateTransaction(ctx, NewTransaction{
			Kind:       record.Kind,
			CategoryID: category.ID,
			PersonID:   personID,
			Concept:    record.Concept,
			Note:       record.Note,
			Amount:     record.Amount,
			Currency:   record.Currency,
			Date:       normalizer.MonthAnchor(record.Date),
			Sheet:      record.Sheet,
			Row:        record.Row,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", record.Kind, err)
		}

		record.Date = normalizer.MonthAnchor(record.Date)
		saved = SavedRecord{ID: ref.ID, CategoryID: category.ID, PersonID: personID, Record: record}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for k, v := range newCategories {
		cache.categories[k] = v
	}
	for k, v := range newPersons {
		cache.persons[k] = v
	}
	return &saved, nil
}

func validateRecord(record parser.Record) string {
	switch {
	case strings.TrimSpace(record.Category) == "":
		return "missing category"
	case strings.TrimSpace(record.Concept) == "":
		return "missing concept"
	case record.Amount.IsZero():
		return "amount is zero"
	case record.Kind != parser.KindExpense && record.Kind != parser.KindIncome:
		return fmt.Sprintf("unknown record kind %q", record.Kind)
	case !money.IsValidCurrency(record.Currency):
		return fmt.Sprintf("invalid currency %q", record.Currency)
	}
	return ""
}

func saveIssue(index int, record parser.Record, reason string) parser.Issue {
	return parser.Issue{
		Severity: parser.SeverityError,
		Sheet:    record.Sheet,
		Row:      record.Row,
		Message:  fmt.Sprintf("record %d: %s", index, reason),
	}
}

// redact keeps the first line of msg, capped at maxIssueMessage runes.
func redact(msg string) string {
	if i := strings.IndexAny(msg, "\r\n"); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) <= maxIssueMessage {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:maxIssueMessage-3]) + "..."
}

func summarize(result *SaveResult, errs, warns int) string {
	msg := fmt.Sprintf("%d of %d records saved", result.SavedCount, result.Total)
	var parts []string
	if errs > 0 {
		parts = append(parts, plural(errs, "error"))
	}
	if warns > 0 {
		parts = append(parts, plural(warns, "warning"))
	}
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
