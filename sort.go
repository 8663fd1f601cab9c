package quicktable

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Query keys of the nested sort structure: sort[<table>][field] and sort[<table>][dir]
const (
	SortKey  = "sort"
	FieldKey = "field"
	DirKey   = "dir"
)

// Direction is a sort order, "asc" or "desc"
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection normalizes s to a Direction. The second result is false
// when s is neither asc nor desc (case-insensitive).
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return "", false
}

// Opposite returns the toggled direction
func (d Direction) Opposite() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// SortTable holds the sort state of one named table for a single request.
type SortTable struct {
	ID           string
	DefaultField string
	DefaultDir   Direction
	CurrentField string
	CurrentDir   Direction
}

// Field returns the effective sort field, or "" when the table is unsorted.
func (t SortTable) Field() string {
	if t.CurrentField != "" {
		return t.CurrentField
	}
	return t.DefaultField
}

// Dir returns the effective sort direction; asc when nothing was given.
func (t SortTable) Dir() Direction {
	if t.CurrentDir != "" {
		return t.CurrentDir
	}
	if t.DefaultDir != "" {
		return t.DefaultDir
	}
	return Asc
}

// Sort returns the ORDER BY style clause, e.g. "amount desc".
func (t SortTable) Sort() string {
	field := t.Field()
	if field == "" {
		return ""
	}
	return field + " " + string(t.Dir())
}

// TableDecl declares a table and its default sort ("field" or "field dir").
type TableDecl struct {
	Name string `yaml:"name" json:"name"`
	Sort string `yaml:"sort" json:"sort"`
}

// Sorter tracks the sort state of every table rendered for one request.
// Build one per request; after setup it is only read.
type Sorter struct {
	url       string
	params    url.Values
	current   SortQuery
	names     []string
	tables    map[string]*SortTable
	links     LinkBuilder
	formatter *Formatter
}

// New creates an empty Sorter. baseURL is used for sort links and src
// supplies the current query parameters (a *url.URL will do).
func New(baseURL string, src ParamSource) *Sorter {
	params := url.Values{}
	if src != nil {
		params = src.Query()
	}
	return &Sorter{
		url:     baseURL,
		params:  params,
		current: ParseSort(params),
		tables:  make(map[string]*SortTable),
		links:   QueryLinker{},
	}
}

// Resolve creates a Sorter and registers decls in order.
func Resolve(baseURL string, src ParamSource, decls ...TableDecl) (*Sorter, error) {
	s := New(baseURL, src)
	if err := s.SetTables(decls...); err != nil {
		return nil, err
	}
	return s, nil
}

// SetTables registers each declaration in order.
func (s *Sorter) SetTables(decls ...TableDecl) error {
	for _, d := range decls {
		if err := s.AddTable(d.Name, d.Sort, ""); err != nil {
			return err
		}
	}
	return nil
}

// AddTable registers a table. defaultSort is "field" or "field dir"; a
// non-empty dir overrides the direction found in defaultSort.
func (s *Sorter) AddTable(name, defaultSort string, dir Direction) error {
	if name == "" {
		return fmt.Errorf("%w: empty table name", ErrInvalidTable)
	}
	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTable, name)
	}

	t := &SortTable{ID: name}
	parts := strings.Fields(defaultSort)
	if len(parts) > 0 {
		t.DefaultField = parts[0]
	}
	rawDir := string(dir)
	if rawDir == "" && len(parts) > 1 {
		rawDir = parts[1]
	}
	if rawDir != "" {
		d, ok := ParseDirection(rawDir)
		if !ok {
			return fmt.Errorf("%w: %q for table %q", ErrInvalidDirection, rawDir, name)
		}
		t.DefaultDir = d
	}

	if cur, ok := s.current[name]; ok {
		t.CurrentField = cur.Field
		if cur.Dir != "" {
			if d, ok := ParseDirection(string(cur.Dir)); ok {
				t.CurrentDir = d
			} else {
				slog.Debug("Ignoring invalid sort direction", "table", name, "dir", cur.Dir)
			}
		}
	}

	s.tables[name] = t
	s.names = append(s.names, name)
	return nil
}

// SetURL sets the base URL used for sort links
func (s *Sorter) SetURL(u string) *Sorter {
	s.url = u
	return s
}

// SetLinkBuilder replaces the default QueryLinker
func (s *Sorter) SetLinkBuilder(lb LinkBuilder) *Sorter {
	s.links = lb
	return s
}

// SetFormatter sets the formatter handed to new QuickTables
func (s *Sorter) SetFormatter(f *Formatter) *Sorter {
	s.formatter = f
	return s
}

// TableNames returns the registered tables in declaration order
func (s *Sorter) TableNames() []string {
	return append([]string(nil), s.names...)
}

// Table returns a copy of the sort state for name ("" = first table).
func (s *Sorter) Table(name string) (SortTable, error) {
	t, err := s.lookup(name)
	if err != nil {
		return SortTable{}, err
	}
	return *t, nil
}

func (s *Sorter) lookup(name string) (*SortTable, error) {
	if name == "" {
		if len(s.names) == 0 {
			return nil, fmt.Errorf("%w: no tables registered", ErrTableNotFound)
		}
		name = s.names[0]
	}
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return t, nil
}

// Sort returns the ORDER BY style clause of a table ("" = first table).
func (s *Sorter) Sort(table string) (string, error) {
	t, err := s.lookup(table)
	if err != nil {
		return "", err
	}
	return t.Sort(), nil
}

// splitField splits "name" or "name dir" into its parts
func splitField(field string) (string, string) {
	parts := strings.Fields(field)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}

// CurrentDir returns the direction the table is sorted in when field
// ("name" or "name dir") is its effective sort field, or "" otherwise.
func (s *Sorter) CurrentDir(field, table string) (Direction, error) {
	t, err := s.lookup(table)
	if err != nil {
		return "", err
	}
	name, _ := splitField(field)
	if name == "" || name != t.Field() {
		return "", nil
	}
	return t.Dir(), nil
}

// QueryState returns the sort parameters a link on field should carry.
// Re-selecting the active field flips its direction; any other field gets
// the direction given in field, else the table's default direction.
func (s *Sorter) QueryState(field, table string) (SortQuery, error) {
	t, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	name, rawDir := splitField(field)

	var dir Direction
	switch {
	case name != "" && name == t.Field():
		dir = t.Dir().Opposite()
	case rawDir != "":
		d, ok := ParseDirection(rawDir)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, rawDir)
		}
		dir = d
	case t.DefaultDir != "":
		dir = t.DefaultDir
	default:
		dir = Asc
	}

	return SortQuery{t.ID: {Field: name, Dir: dir}}, nil
}
