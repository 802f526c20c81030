package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockflow/internal/amqp"
	"stockflow/internal/core"
	"stockflow/internal/interchange"
	"stockflow/internal/ports"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrNoValidRecords    = errors.New("no valid records")
	ErrInvalidImportMode = errors.New("invalid import mode")
)

// ImportMode selects how an import combines with stored records.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

// ParseImportMode accepts "replace" or "merge"; empty means replace.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImportReplace:
		return ImportReplace, nil
	case ImportMerge:
		return ImportMerge, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidImportMode, s)
	}
}

type (
	ImportPayload struct {
		Mode    string `json:"mode"`
		Records []any  `json:"records"`
	}

	ImportResult struct {
		Mode     ImportMode `json:"mode"`
		Imported int        `json:"imported"`
		Rejected int        `json:"rejected"`
	}

	// Publisher announces store changes to the sync worker.
	Publisher interface {
		PublishRecordSync(ctx context.Context, op amqp.Op, id string) error
	}
)

// InventoryService orchestrates record operations across the store and the
// sync publisher.
type InventoryService struct {
	store     ports.RecordStore
	publisher Publisher
	now       func() time.Time
}

func NewInventoryService(store ports.RecordStore, publisher Publisher) *InventoryService {
	return &InventoryService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *InventoryService) List(ctx context.Context) ([]core.Record, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (core.Record, error) {
	r, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}
	if !ok {
		return core.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Save normalizes an untyped record and stores it, replacing any record
// with the same id.
func (s *InventoryService) Save(ctx context.Context, raw any) (core.Record, error) {
	r, err := core.Normalize(raw)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.put(ctx, r); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

func (s *InventoryService) CreateItem(ctx context.Context, in core.ItemInput) (core.Record, error) {
	r, err := core.NewItem(in, s.now())
	if err != nil {
		return core.Record{}, err
	}
	if err := s.put(ctx, r); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

func (s *InventoryService) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Record, error) {
	r, err := core.NewExpense(in, s.now())
	if err != nil {
		return core.Record{}, err
	}
	if err := s.put(ctx, r); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

func (s *InventoryService) MarkSold(ctx context.Context, id string, price decimal.Decimal, date string) (core.Record, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	sold, err := core.MarkSold(r, price, date)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.put(ctx, sold); err != nil {
		return core.Record{}, err
	}
	return sold, nil
}

func (s *InventoryService) MarkUnsold(ctx context.Context, id string) (core.Record, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	back, err := core.MarkUnsold(r)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.put(ctx, back); err != nil {
		return core.Record{}, err
	}
	return back, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.publish(ctx, amqp.OpDelete, id)
	return nil
}

// Import normalizes a batch and stores the survivors. A batch in which no
// entry survives is rejected as a whole and leaves the store untouched.
func (s *InventoryService) Import(ctx context.Context, p ImportPayload) (ImportResult, error) {
	mode, err := ParseImportMode(p.Mode)
	if err != nil {
		return ImportResult{}, err
	}

	records, rejected := core.NormalizeAll(p.Records)
	for _, rej := range rejected {
		slog.DebugContext(ctx, "Import entry rejected", "index", rej.Index, "error", rej.Err)
	}
	if len(records) == 0 {
		return ImportResult{}, fmt.Errorf("%w: %d entries rejected", ErrNoValidRecords, len(rejected))
	}

	switch mode {
	case ImportReplace:
		err = s.store.ReplaceAll(ctx, records)
	case ImportMerge:
		err = s.store.InsertMany(ctx, records)
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("import records: %w", err)
	}

	slog.InfoContext(ctx, "Records imported",
		"mode", mode,
		"imported", len(records),
		"rejected", len(rejected))
	s.publish(ctx, amqp.OpReplace, "")

	return ImportResult{Mode: mode, Imported: len(records), Rejected: len(rejected)}, nil
}

// ImportCSV reads an interchange table and imports it with mode.
func (s *InventoryService) ImportCSV(ctx context.Context, r io.Reader, mode string) (ImportResult, error) {
	if _, err := ParseImportMode(mode); err != nil {
		return ImportResult{}, err
	}
	raw, err := interchange.ParseRows(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", core.ErrInvalidRecord, err)
	}
	return s.Import(ctx, ImportPayload{Mode: mode, Records: raw})
}

// ExportCSV writes every record as an interchange table.
func (s *InventoryService) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}
	return interchange.Export(w, records)
}

func (s *InventoryService) Summary(ctx context.Context) (core.Summary, error) {
	records, err := s.List(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(records), nil
}

func (s *InventoryService) Cashflow(ctx context.Context, g core.Granularity) ([]core.CashflowBucket, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.Cashflow(records, g), nil
}

func (s *InventoryService) Categories(ctx context.Context, period string) ([]core.CategoryBucket, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.CategoryBreakdown(records, period), nil
}

// Periods lists the calendar periods that have cash movements.
func (s *InventoryService) Periods(ctx context.Context, g core.Granularity) ([]string, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.Periods(records, g), nil
}

// Ready checks that the store is reachable. Stores without a health check
// are always ready.
func (s *InventoryService) Ready(ctx context.Context) error {
	p, ok := s.store.(ports.Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// DataVersion returns the store's write counter. ok is false for stores
// that do not keep one.
func (s *InventoryService) DataVersion(ctx context.Context) (v uint64, ok bool, err error) {
	vs, ok := s.store.(ports.Versioner)
	if !ok {
		return 0, false, nil
	}
	if v, err = vs.DataVersion(ctx); err != nil {
		return 0, true, fmt.Errorf("data version: %w", err)
	}
	return v, true, nil
}

func (s *InventoryService) put(ctx context.Context, r core.Record) error {
	if err := s.store.Upsert(ctx, r); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	s.publish(ctx, amqp.OpUpsert, r.ID)
	return nil
}

// publish never fails the caller: the record is already stored locally.
func (s *InventoryService) publish(ctx context.Context, op amqp.Op, id string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No sync publisher configured, skipping message", "op", op)
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"op", op,
			"id", id,
			"error", err)
	}
}

// IsValidation reports whether err was caused by bad input rather than by
// the store.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidRecord,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrNotAnItem,
		core.ErrNegativeAmount,
		ErrNoValidRecords,
		ErrInvalidImportMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
