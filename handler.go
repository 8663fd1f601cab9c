package quicktable

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/lib/pq"
)

const defaultPageSize = 25

// RowSource runs a query and returns its rows keyed by column name.
// *rowsource.Source satisfies it.
type RowSource interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// RequestParams captures pagination from the request
type RequestParams struct {
	Limit  int
	Offset int
}

// Handler renders one catalog table as HTML, sorted per the request
type Handler struct {
	Source    RowSource
	Catalog   *Catalog
	Table     string // catalog table to render, "" for the first
	Formatter *Formatter
}

func NewHandler(src RowSource, cat *Catalog, table string) *Handler {
	return &Handler{
		Source:  src,
		Catalog: cat,
		Table:   table,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	def, err := h.Catalog.Table(h.Table)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	out, err := h.Render(r.Context(), r.URL.Path, r.URL, h.ParseParams(r, def))
	if err != nil {
		slog.Error("Failed to render table", "table", def.Name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// ParseParams reads limit and offset, falling back to the table's page size
func (h *Handler) ParseParams(r *http.Request, def *TableDef) RequestParams {
	q := r.URL.Query()
	limit := def.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	if l := q.Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		fmt.Sscanf(o, "%d", &offset)
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return RequestParams{Limit: limit, Offset: offset}
}

// Render resolves sort state from src, fetches the rows and returns the
// table markup. Links point at baseURL.
func (h *Handler) Render(ctx context.Context, baseURL string, src ParamSource, p RequestParams) (string, error) {
	sorter, err := h.Catalog.Resolve(baseURL, src)
	if err != nil {
		return "", err
	}
	def, err := h.Catalog.Table(h.Table)
	if err != nil {
		return "", err
	}
	qt, err := h.Catalog.QuickTable(sorter, def.Name)
	if err != nil {
		return "", err
	}
	qt.Formatter(h.Formatter)

	query, err := h.BuildQuery(def, sorter, p)
	if err != nil {
		return "", err
	}
	rows, err := h.Source.Query(ctx, query)
	if err != nil {
		return "", err
	}
	return qt.Table(rows, def.Attr)
}

// BuildQuery returns the SELECT for a table, ordered by its sort clause.
// A limit of 0 selects every row.
func (h *Handler) BuildQuery(def *TableDef, s *Sorter, p RequestParams) (string, error) {
	order, err := buildOrder(def, s)
	if err != nil {
		return "", err
	}

	source := def.Source
	if source == "" {
		source = def.Name
	}

	parts := []string{"SELECT * FROM " + quoteRelation(source)}
	if order != "" {
		parts = append(parts, order)
	}
	if p.Limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", p.Limit))
	}
	if p.Offset > 0 {
		parts = append(parts, fmt.Sprintf("OFFSET %d", p.Offset))
	}
	return strings.Join(parts, " "), nil
}

// buildOrder turns the table's sort state into ORDER BY. Only declared
// column fields and the table's default field may reach the query.
func buildOrder(def *TableDef, s *Sorter) (string, error) {
	t, err := s.Table(def.Name)
	if err != nil {
		return "", err
	}
	field, dir := t.Field(), t.Dir()

	if field != "" && !sortable(def, field) {
		slog.Warn("Ignoring sort on undeclared field", "table", def.Name, "field", field)
		field, dir = t.DefaultField, t.DefaultDir
	}
	if field == "" {
		return "", nil
	}
	if dir != Desc {
		dir = Asc
	}
	return "ORDER BY " + pq.QuoteIdentifier(field) + " " + strings.ToUpper(string(dir)), nil
}

// sortable reports whether field names a single declared column
func sortable(def *TableDef, field string) bool {
	if strings.ContainsFunc(field, unicode.IsSpace) {
		return false
	}
	if def.Sort != "" {
		if f, _ := splitField(def.Sort); f == field {
			return true
		}
	}
	for _, col := range def.Columns {
		if col.Field == field {
			return true
		}
	}
	return false
}

func quoteRelation(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
