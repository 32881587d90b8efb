package handlers

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"adforge/internal/domain"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// valueRow scans a canned column slice, in the same order the sqlinline
// query selects them.
type valueRow struct {
	vals []any
	err  error
}

func (r valueRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan arity: %d destinations for %d columns", len(dest), len(r.vals))
	}
	for i, d := range dest {
		if err := assignScanDest(d, r.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func assignScanDest(dest, val any) error {
	switch d := dest.(type) {
	case *string:
		if v, ok := val.(string); ok {
			*d = v
			return nil
		}
	case **string:
		switch v := val.(type) {
		case nil:
			*d = nil
			return nil
		case *string:
			*d = v
			return nil
		case string:
			s := v
			*d = &s
			return nil
		}
	case *bool:
		if v, ok := val.(bool); ok {
			*d = v
			return nil
		}
	case *int:
		if v, ok := val.(int); ok {
			*d = v
			return nil
		}
	case **int:
		switch v := val.(type) {
		case nil:
			*d = nil
			return nil
		case *int:
			*d = v
			return nil
		case int:
			n := v
			*d = &n
			return nil
		}
	case *time.Time:
		if v, ok := val.(time.Time); ok {
			*d = v
			return nil
		}
	case **time.Time:
		switch v := val.(type) {
		case nil:
			*d = nil
			return nil
		case *time.Time:
			*d = v
			return nil
		case time.Time:
			t := v
			*d = &t
			return nil
		}
	case *domain.MoodMediaType:
		if v, ok := val.(string); ok {
			*d = domain.MoodMediaType(v)
			return nil
		}
	case *domain.ScheduleType:
		if v, ok := val.(string); ok {
			*d = domain.ScheduleType(v)
			return nil
		}
	case *domain.ScheduleStatus:
		if v, ok := val.(string); ok {
			*d = domain.ScheduleStatus(v)
			return nil
		}
	}
	return fmt.Errorf("cannot scan %T into %T", val, dest)
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

// valueRows iterates canned rows of column slices.
type valueRows struct {
	testRowsBase
	rows [][]any
	idx  int
}

func (r *valueRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *valueRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return valueRow{vals: r.rows[r.idx-1]}.Scan(dest...)
}

func (r *valueRows) Err() error { return nil }

func (r *valueRows) Close() {}
