// Package rowsource feeds PostgreSQL rows to the table renderer. A query
// either runs directly, for LIMIT/OFFSET paging, or through a scroll cursor
// kept per session so the same sorted result can be paged back and forth.
package rowsource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gnemet/quicktable"
)

// Page selects which window of a cursor Fetch returns
type Page string

const (
	First Page = "FIRST"
	Next  Page = "NEXT"
	Prior Page = "PRIOR"
	Last  Page = "LAST"
)

// ParsePage reads a page request parameter. Anything unknown means Next.
func ParsePage(s string) Page {
	switch p := Page(strings.ToUpper(strings.TrimSpace(s))); p {
	case First, Prior, Last:
		return p
	}
	return Next
}

// Options tunes the connection pool and cursor lifetimes
type Options struct {
	MaxConns    int
	IdleTimeout time.Duration
	MaxAge      time.Duration
}

type cursor struct {
	name     string
	query    string
	conn     *sql.Conn
	tx       *sql.Tx
	created  time.Time
	lastUsed time.Time
	sync.Mutex
}

// Source runs table queries and returns their rows ready for rendering.
// *Source satisfies quicktable.RowSource.
type Source struct {
	db      *sql.DB
	opts    Options
	mu      sync.Mutex
	cursors map[string]*cursor
	stop    chan struct{}
}

// Open connects to PostgreSQL and starts sweeping expired cursors
func Open(ctx context.Context, connStr string, opts Options) (*Source, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns / 2)
	db.SetConnMaxLifetime(opts.MaxAge)
	db.SetConnMaxIdleTime(opts.IdleTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db, opts)
	go s.sweepLoop(30 * time.Second)
	return s, nil
}

// New wraps an existing handle without starting the sweeper.
// Cursors are capped at opts.MaxConns since each one pins a connection.
func New(db *sql.DB, opts Options) *Source {
	return &Source{
		db:      db,
		opts:    opts,
		cursors: make(map[string]*cursor),
		stop:    make(chan struct{}),
	}
}

// Close releases every cursor and the database handle
func (s *Source) Close() error {
	close(s.stop)
	s.mu.Lock()
	for sid, c := range s.cursors {
		c.Lock()
		s.drop(sid, c)
		c.Unlock()
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Source) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.sweep(now)
		case <-s.stop:
			return
		}
	}
}

func (s *Source) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sid, c := range s.cursors {
		c.Lock()
		if now.Sub(c.created) > s.opts.MaxAge || now.Sub(c.lastUsed) > s.opts.IdleTimeout {
			slog.Info("Releasing expired cursor", "cursor", c.name, "session", sid)
			s.drop(sid, c)
		}
		c.Unlock()
	}
}

func (s *Source) drop(sid string, c *cursor) {
	if c.tx != nil {
		c.tx.Rollback()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	delete(s.cursors, sid)
}

// Release drops the session's cursor, if any
func (s *Source) Release(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cursors[sid]; ok {
		c.Lock()
		s.drop(sid, c)
		c.Unlock()
	}
}

// Query runs query directly and returns every row
func (s *Source) Query(ctx context.Context, query string, args ...any) ([]quicktable.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Page returns one window of query's result through the session's cursor.
// A new or changed query starts a fresh cursor, which is always read from
// the first page.
func (s *Source) Page(ctx context.Context, sid, query string, page Page, size int, args ...any) ([]quicktable.Row, error) {
	fresh, err := s.declare(ctx, sid, query, args...)
	if err != nil {
		return nil, err
	}
	if fresh {
		page = First
	}
	return s.Fetch(ctx, sid, page, size)
}

// declare makes sure sid has a cursor over query. It reports whether a new
// cursor was declared.
func (s *Source) declare(ctx context.Context, sid, query string, args ...any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, exists := s.cursors[sid]; exists {
		c.Lock()
		if c.query == query {
			c.lastUsed = time.Now()
			c.Unlock()
			return false, nil
		}
		s.drop(sid, c)
		c.Unlock()
	}

	if s.opts.MaxConns > 0 && len(s.cursors) >= s.opts.MaxConns {
		return false, fmt.Errorf("cursor limit reached (max %d)", s.opts.MaxConns)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	name := cursorName()
	if _, err := tx.ExecContext(ctx, "DECLARE "+pq.QuoteIdentifier(name)+" SCROLL CURSOR FOR "+query, args...); err != nil {
		tx.Rollback()
		conn.Close()
		return false, fmt.Errorf("failed to declare cursor: %w", err)
	}

	now := time.Now()
	s.cursors[sid] = &cursor{
		name:     name,
		query:    query,
		conn:     conn,
		tx:       tx,
		created:  now,
		lastUsed: now,
	}
	return true, nil
}

func cursorName() string {
	return "cur_" + uuid.New().String()[:8]
}

// fetchPlan returns the MOVE statements that position the cursor and the
// FETCH that reads the page.
func fetchPlan(name string, size int, page Page) ([]string, string) {
	q := pq.QuoteIdentifier(name)
	fetch := fmt.Sprintf("FETCH FORWARD %d FROM %s", size, q)
	switch page {
	case First:
		return []string{"MOVE ABSOLUTE 0 FROM " + q}, fetch
	case Prior:
		return []string{fmt.Sprintf("MOVE RELATIVE -%d FROM %s", 2*size, q)}, fetch
	case Last:
		return []string{"MOVE LAST FROM " + q, fmt.Sprintf("MOVE RELATIVE -%d FROM %s", size, q)}, fetch
	}
	return nil, fetch
}

// Fetch reads a page of rows from the session's open cursor
func (s *Source) Fetch(ctx context.Context, sid string, page Page, size int) ([]quicktable.Row, error) {
	s.mu.Lock()
	c, ok := s.cursors[sid]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no open cursor for session %s", sid)
	}

	c.Lock()
	defer c.Unlock()
	c.lastUsed = time.Now()

	moves, fetch := fetchPlan(c.name, size, page)
	for _, m := range moves {
		if _, err := c.tx.ExecContext(ctx, m); err != nil {
			return nil, fmt.Errorf("cursor move failed: %w", err)
		}
	}

	rows, err := c.tx.QueryContext(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]quicktable.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []quicktable.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(quicktable.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
