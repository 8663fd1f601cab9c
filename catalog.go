package quicktable

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var catalogSchema []byte

// Catalog declares sortable tables and their columns. It is read from YAML
// or JSON.
type Catalog struct {
	Version  string     `yaml:"version" json:"version"`
	Title    string     `yaml:"title" json:"title,omitempty"`
	Timezone string     `yaml:"timezone" json:"timezone,omitempty"`
	Tables   []TableDef `yaml:"tables" json:"tables"`
}

// TableDef declares one sortable table
type TableDef struct {
	Name     string      `yaml:"name" json:"name"`
	Title    string      `yaml:"title" json:"title,omitempty"`
	Source   string      `yaml:"source" json:"source,omitempty"` // SQL relation, defaults to Name
	Sort     string      `yaml:"sort" json:"sort,omitempty"`     // "field" or "field dir"
	RowID    string      `yaml:"row_id" json:"row_id,omitempty"`
	Attr     string      `yaml:"attr" json:"attr,omitempty"`
	PageSize int         `yaml:"page_size" json:"page_size,omitempty"`
	Columns  []ColumnDef `yaml:"columns" json:"columns"`
}

// ColumnDef declares a column. Format holds a named template in wire form
// ("money", "number_2"); Text holds a substitution string.
type ColumnDef struct {
	Field  string    `yaml:"field" json:"field,omitempty"`
	Label  string    `yaml:"label" json:"label"`
	Sort   Direction `yaml:"sort" json:"sort,omitempty"`
	Format string    `yaml:"format" json:"format,omitempty"`
	Text   string    `yaml:"text" json:"text,omitempty"`
}

// Template returns the column's template, nil for raw values
func (c ColumnDef) Template() Template {
	switch {
	case c.Format != "":
		return ParseNamed(c.Format)
	case c.Text != "":
		return Text(c.Text)
	}
	return nil
}

// LoadCatalog reads and validates a catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog validates data against the catalog schema and decodes it
func ParseCatalog(data []byte) (*Catalog, error) {
	if err := ValidateCatalog(data); err != nil {
		return nil, err
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[string]bool)
	for i := range cat.Tables {
		t := &cat.Tables[i]
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTable, t.Name)
		}
		seen[t.Name] = true
		for j := range t.Columns {
			if d := t.Columns[j].Sort; d != "" {
				t.Columns[j].Sort, _ = ParseDirection(string(d))
			}
		}
	}
	return &cat, nil
}

// ValidateCatalog checks a YAML or JSON catalog against the embedded schema
func ValidateCatalog(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
	}
	return nil
}

// Table returns the definition of name ("" = first table)
func (c *Catalog) Table(name string) (*TableDef, error) {
	if len(c.Tables) == 0 {
		return nil, fmt.Errorf("%w: catalog has no tables", ErrTableNotFound)
	}
	if name == "" {
		return &c.Tables[0], nil
	}
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
}

// Decls returns the table declarations in catalog order
func (c *Catalog) Decls() []TableDecl {
	decls := make([]TableDecl, 0, len(c.Tables))
	for _, t := range c.Tables {
		decls = append(decls, TableDecl{Name: t.Name, Sort: t.Sort})
	}
	return decls
}

// Location loads the catalog's display timezone; nil when none is set
func (c *Catalog) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Resolve builds the request's Sorter from the catalog's tables. Dates are
// shown in the catalog timezone when one is set.
func (c *Catalog) Resolve(baseURL string, src ParamSource) (*Sorter, error) {
	s, err := Resolve(baseURL, src, c.Decls()...)
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %v", ErrInvalidCatalog, err)
	}
	if loc != nil {
		s.SetFormatter(&Formatter{Date: LocalDate(loc)})
	}
	return s, nil
}

// QuickTable creates the renderer for a catalog table
func (c *Catalog) QuickTable(s *Sorter, name string) (*QuickTable, error) {
	def, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	qt, err := s.QuickTable(def.Name)
	if err != nil {
		return nil, err
	}
	for _, col := range def.Columns {
		qt.AddCol(col.Field, col.Label, col.Sort, col.Template())
	}
	if def.RowID != "" {
		qt.RowID(def.RowID)
	}
	return qt, nil
}
