package rowsource

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestFetchPlan(t *testing.T) {
	tests := []struct {
		page  Page
		moves []string
	}{
		{Next, nil},
		{First, []string{`MOVE ABSOLUTE 0 FROM "cur_x"`}},
		{Prior, []string{`MOVE RELATIVE -20 FROM "cur_x"`}},
		{Last, []string{`MOVE LAST FROM "cur_x"`, `MOVE RELATIVE -10 FROM "cur_x"`}},
	}
	for _, tt := range tests {
		moves, fetch := fetchPlan("cur_x", 10, tt.page)
		if fetch != `FETCH FORWARD 10 FROM "cur_x"` {
			t.Errorf("%s: Unexpected fetch '%s'", tt.page, fetch)
		}
		if strings.Join(moves, ";") != strings.Join(tt.moves, ";") {
			t.Errorf("%s: Expected moves %v, got %v", tt.page, tt.moves, moves)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := map[string]Page{
		"first": First,
		"PRIOR": Prior,
		" last": Last,
		"next":  Next,
		"":      Next,
		"jump":  Next,
	}
	for in, expected := range tests {
		if got := ParsePage(in); got != expected {
			t.Errorf("ParsePage(%q): Expected %s, got %s", in, expected, got)
		}
	}
}

func TestCursorName(t *testing.T) {
	a, b := cursorName(), cursorName()
	if !strings.HasPrefix(a, "cur_") || len(a) != 12 {
		t.Errorf("Expected cur_ + 8 chars, got '%s'", a)
	}
	if a == b {
		t.Errorf("Expected distinct cursor names, got '%s' twice", a)
	}
}

func TestSweep(t *testing.T) {
	s := New(nil, Options{MaxConns: 4, IdleTimeout: time.Minute, MaxAge: time.Hour})
	now := time.Now()
	s.cursors["fresh"] = &cursor{name: "cur_a", created: now, lastUsed: now}
	s.cursors["idle"] = &cursor{name: "cur_b", created: now, lastUsed: now.Add(-2 * time.Minute)}
	s.cursors["old"] = &cursor{name: "cur_c", created: now.Add(-2 * time.Hour), lastUsed: now}

	s.sweep(now)

	if len(s.cursors) != 1 {
		t.Fatalf("Expected 1 cursor left, got %d", len(s.cursors))
	}
	if _, ok := s.cursors["fresh"]; !ok {
		t.Errorf("Expected fresh cursor to survive the sweep")
	}

	s.Release("fresh")
	if len(s.cursors) != 0 {
		t.Errorf("Expected no cursors after Release, got %d", len(s.cursors))
	}
}

func TestFetchWithoutCursor(t *testing.T) {
	s := New(nil, Options{MaxConns: 1})
	if _, err := s.Fetch(context.Background(), "missing", Next, 10); err == nil {
		t.Errorf("Expected error for session without cursor")
	}
}

func TestIntegrationSource(t *testing.T) {
	_ = godotenv.Load("../../.env")

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}
	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "postgres"
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, os.Getenv("DB_PASSWORD"), dbname)

	ctx := context.Background()
	s, err := Open(ctx, connStr, Options{MaxConns: 2, IdleTimeout: time.Minute, MaxAge: time.Hour})
	if err != nil {
		t.Skip("Postgres not reachable, skipping integration test:", err)
		return
	}
	defer s.Close()

	rows, err := s.Query(ctx, "SELECT n AS id, n * 1.5 AS amount FROM generate_series(1, 3) AS n ORDER BY id DESC")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0]["id"] != int64(3) {
		t.Errorf("Expected first id 3, got %v", rows[0]["id"])
	}

	query := "SELECT n FROM generate_series(1, 25) AS n ORDER BY n"
	// a fresh cursor starts at the first page whatever was asked for
	page, err := s.Page(ctx, "sess", query, Last, 10)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(page) != 10 || page[0]["n"] != int64(1) {
		t.Errorf("Expected first page starting at 1, got %v", page)
	}

	page, err = s.Page(ctx, "sess", query, Next, 10)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(page) != 10 || page[0]["n"] != int64(11) {
		t.Errorf("Expected second page starting at 11, got %v", page)
	}

	page, err = s.Page(ctx, "sess", query, Last, 10)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if len(page) != 10 || page[9]["n"] != int64(25) {
		t.Errorf("Expected last page ending at 25, got %v", page)
	}
}
