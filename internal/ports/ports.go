package ports

import (
	"context"

	"stockflow/internal/core"
)

// Ports for the record store and outbound adapters.
type (
	RecordReader interface {
		// GetAll returns every record, most recently created first.
		GetAll(ctx context.Context) ([]core.Record, error)
		// Get returns the record with id; ok is false when it does not exist.
		Get(ctx context.Context, id string) (r core.Record, ok bool, err error)
	}

	RecordWriter interface {
		// Upsert inserts the record or overwrites the one with the same id.
		Upsert(ctx context.Context, r core.Record) error
		// Delete removes a record; unknown ids are not an error.
		Delete(ctx context.Context, id string) error
		// ReplaceAll atomically clears the store and inserts records.
		ReplaceAll(ctx context.Context, records []core.Record) error
		// InsertMany upserts a batch atomically.
		InsertMany(ctx context.Context, records []core.Record) error
	}

	RecordStore interface {
		RecordReader
		RecordWriter
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Versioner is implemented by stores that expose a counter changing on
	// every committed write, including writes from other processes.
	Versioner interface {
		DataVersion(ctx context.Context) (uint64, error)
	}

	// SheetMirror replaces the content of an external table with rows.
	SheetMirror interface {
		Mirror(ctx context.Context, rows [][]string) error
	}
)
