package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syssam/entityhistory"
	"github.com/syssam/entityhistory/dialect"
)

// Store persists history records of one entity in a single table with
// columns (id, state, created_at, updated_at).
type Store[S any] struct {
	drv    *Driver
	table  string
	column string
	conv   entityhistory.StateConverter[S]
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	column string
	now    func() time.Time
}

// WithColumn sets the state column definition used by CreateTable.
// Defaults to dialect.DefaultColumn.
func WithColumn(def string) StoreOption {
	return func(c *storeConfig) {
		c.column = def
	}
}

// WithClock sets the clock used for updated_at.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewStore returns a Store for table using conv to encode states.
func NewStore[S any](drv *Driver, table string, conv entityhistory.StateConverter[S], opts ...StoreOption) (*Store[S], error) {
	if drv == nil {
		return nil, errors.New("dialect/sql: nil driver")
	}
	if !isValidIdentifier(table) {
		return nil, fmt.Errorf("dialect/sql: invalid table name %q", table)
	}
	if conv == nil {
		return nil, errors.New("dialect/sql: nil state converter")
	}
	cfg := storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.column == "" {
		cfg.column = dialect.DefaultColumn(drv.Dialect())
	}
	if strings.Contains(cfg.column, ";") || strings.Contains(cfg.column, "--") {
		return nil, fmt.Errorf("dialect/sql: invalid column definition %q", cfg.column)
	}
	return &Store[S]{
		drv:    drv,
		table:  table,
		column: cfg.column,
		conv:   conv,
		now:    cfg.now,
	}, nil
}

// Table returns the table name.
func (s *Store[S]) Table() string { return s.table }

// CreateTable creates the history table and its updated_at index if they do
// not exist.
func (s *Store[S]) CreateTable(ctx context.Context) error {
	for _, stmt := range s.createStmts() {
		if _, err := s.drv.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dialect/sql: create table %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *Store[S]) createStmts() []string {
	table := s.drv.Quote(s.table)
	index := s.drv.Quote(strings.ReplaceAll(s.table, ".", "_") + "_updated_at")
	switch s.drv.Dialect() {
	case dialect.Postgres:
		return []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, state %s, created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL)", table, s.column),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (updated_at)", index, table),
		}
	case dialect.MySQL:
		return []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGINT AUTO_INCREMENT PRIMARY KEY, state %s, created_at DATETIME(6) NOT NULL, updated_at DATETIME(6) NOT NULL, INDEX %s (updated_at))", table, s.column, index),
		}
	default:
		return []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, state %s, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL)", table, s.column),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (updated_at)", index, table),
		}
	}
}

// Insert records a snapshot of state taken at createdAt.
func (s *Store[S]) Insert(ctx context.Context, state S, createdAt time.Time) (*entityhistory.History[S], error) {
	v, err := s.conv.ToColumn(state)
	if err != nil {
		return nil, err
	}
	h := entityhistory.NewHistory(state, createdAt)
	h.SetUpdatedAt(s.now())
	query := fmt.Sprintf("INSERT INTO %s (state, created_at, updated_at) VALUES (%s, %s, %s)",
		s.drv.Quote(s.table), s.drv.Placeholder(1), s.drv.Placeholder(2), s.drv.Placeholder(3))
	args := []any{v, h.CreatedAt, h.UpdatedAt}
	if s.drv.Dialect() == dialect.Postgres {
		if err := s.drv.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&h.ID); err != nil {
			return nil, fmt.Errorf("dialect/sql: insert into %s: %w", s.table, err)
		}
		return h, nil
	}
	res, err := s.drv.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: insert into %s: %w", s.table, err)
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("dialect/sql: insert into %s: last insert id: %w", s.table, err)
	}
	return h, nil
}

// Get returns the record with the given id.
func (s *Store[S]) Get(ctx context.Context, id int64) (*entityhistory.History[S], error) {
	query := fmt.Sprintf("SELECT id, state, created_at, updated_at FROM %s WHERE id = %s",
		s.drv.Quote(s.table), s.drv.Placeholder(1))
	rows, err := s.drv.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: get from %s: %w", s.table, err)
	}
	hs, err := s.scan(rows)
	if err != nil {
		return nil, err
	}
	if len(hs) == 0 {
		return nil, entityhistory.NewNotFoundErrorWithID(s.table, id)
	}
	return hs[0], nil
}

// ListOptions filters and limits List results.
type ListOptions struct {
	// Since keeps records created at or after Since.
	Since time.Time
	// Until keeps records created before Until.
	Until time.Time
	// Limit caps the number of records. Zero means no limit.
	Limit int
}

// List returns records ordered from the newest to the oldest.
func (s *Store[S]) List(ctx context.Context, opts ListOptions) ([]*entityhistory.History[S], error) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)
	fmt.Fprintf(&b, "SELECT id, state, created_at, updated_at FROM %s", s.drv.Quote(s.table))
	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		where = append(where, "created_at >= "+s.drv.Placeholder(len(args)))
	}
	if !opts.Until.IsZero() {
		args = append(args, opts.Until)
		where = append(where, "created_at < "+s.drv.Placeholder(len(args)))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if opts.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", opts.Limit)
	}
	rows, err := s.drv.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: list %s: %w", s.table, err)
	}
	return s.scan(rows)
}

// DeleteBefore removes records created before t and returns how many were
// removed.
func (s *Store[S]) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE created_at < %s", s.drv.Quote(s.table), s.drv.Placeholder(1))
	res, err := s.drv.ExecContext(ctx, query, t)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: delete from %s: %w", s.table, err)
	}
	return res.RowsAffected()
}

func (s *Store[S]) scan(rows *sql.Rows) (hs []*entityhistory.History[S], rerr error) {
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	for rows.Next() {
		var (
			h   entityhistory.History[S]
			raw any
		)
		if err := rows.Scan(&h.ID, &raw, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan %s: %w", s.table, err)
		}
		state, err := s.conv.FromColumn(raw)
		if err != nil {
			return nil, err
		}
		h.State = state
		hs = append(hs, &h)
	}
	return hs, rows.Err()
}
