package quicktable

import (
	"fmt"
	"strings"
)

// Column declares one column of a QuickTable
type Column struct {
	Table    string
	Field    string    // sort field and row key; "" for computed columns
	Label    string    // header text
	Sort     Direction // direction of the first click, "" for the table default
	Template Template
}

// RowTemplate returns the opening <tr> tag for a row
type RowTemplate func(row Row) string

// QuickTable renders <table> markup for a result set with sortable headers.
// Use Sorter.QuickTable to create one.
type QuickTable struct {
	sorter    *Sorter
	table     string
	cols      []Column
	rowTpl    RowTemplate
	idField   string
	formatter *Formatter
}

// QuickTable returns a table renderer bound to a registered table ("" = first).
func (s *Sorter) QuickTable(name string) (*QuickTable, error) {
	t, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	f := s.formatter
	if f == nil {
		f = &Formatter{}
	}
	return &QuickTable{sorter: s, table: t.ID, formatter: f}, nil
}

// Name returns the sort table the renderer is bound to
func (q *QuickTable) Name() string {
	return q.table
}

// AddCol appends a column. A nil tpl renders the raw value; a Func tpl must
// return the <td> and </td> tags itself.
func (q *QuickTable) AddCol(field, label string, dir Direction, tpl Template) *QuickTable {
	q.cols = append(q.cols, Column{
		Table:    q.table,
		Field:    field,
		Label:    label,
		Sort:     dir,
		Template: tpl,
	})
	return q
}

// Columns returns the declared columns in order
func (q *QuickTable) Columns() []Column {
	return append([]Column(nil), q.cols...)
}

// RowTemplate customizes the opening <tr> tag
func (q *QuickTable) RowTemplate(fn RowTemplate) *QuickTable {
	q.rowTpl = fn
	return q
}

// RowID adds a data-<field> attribute holding the row's value to each <tr>
func (q *QuickTable) RowID(field string) *QuickTable {
	q.idField = field
	return q
}

// Formatter replaces the cell formatter
func (q *QuickTable) Formatter(f *Formatter) *QuickTable {
	if f != nil {
		q.formatter = f
	}
	return q
}

// Table renders the complete <table>; attr is copied into the opening tag
func (q *QuickTable) Table(rows []Row, attr string) (string, error) {
	head, err := q.THead()
	if err != nil {
		return "", err
	}
	body, err := q.TBody(rows)
	if err != nil {
		return "", err
	}
	open := "<table>"
	if attr != "" {
		open = "<table " + attr + ">"
	}
	return open + head + body + "</table>", nil
}

// THead renders the header row
func (q *QuickTable) THead() (string, error) {
	var b strings.Builder
	b.WriteString("<thead><tr>")
	for _, col := range q.cols {
		th, err := q.TH(col)
		if err != nil {
			return "", err
		}
		b.WriteString(th)
	}
	b.WriteString("</tr></thead>")
	return b.String(), nil
}

// TH renders one header cell; sortable columns get a sort link and icon
func (q *QuickTable) TH(col Column) (string, error) {
	label := escape(col.Label)
	if col.Field == "" {
		return "<th>" + label + "</th>", nil
	}

	spec := col.Field
	if col.Sort != "" {
		spec += " " + string(col.Sort)
	}
	link, err := q.sorter.AnchorIcon(spec, col.Table, label, LinkOptions{})
	if err != nil {
		return "", err
	}
	return `<th data-quickcol-th="` + escape(col.Table+"."+col.Field) + `">` + link + "</th>", nil
}

// TBody renders the rows in the order given
func (q *QuickTable) TBody(rows []Row) (string, error) {
	var b strings.Builder
	b.WriteString("<tbody>")
	for _, row := range rows {
		tr, err := q.TR(row)
		if err != nil {
			return "", err
		}
		b.WriteString(tr)
	}
	b.WriteString("</tbody>")
	return b.String(), nil
}

// TR renders one row
func (q *QuickTable) TR(row Row) (string, error) {
	var b strings.Builder
	switch {
	case q.rowTpl != nil:
		b.WriteString(q.rowTpl(row))
	case q.idField != "":
		v, err := row.Lookup(q.idField)
		if err != nil {
			return "", err
		}
		b.WriteString(`<tr data-` + escape(q.idField) + `="` + escape(stringify(v)) + `">`)
	default:
		b.WriteString("<tr>")
	}

	for _, col := range q.cols {
		td, err := q.TD(col, row)
		if err != nil {
			return "", err
		}
		b.WriteString(td)
	}
	b.WriteString("</tr>")
	return b.String(), nil
}

// TD renders one cell. Errors from Func templates are returned unchanged.
func (q *QuickTable) TD(col Column, row Row) (string, error) {
	var value any
	if col.Field != "" {
		v, err := row.Lookup(col.Field)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", col.Label, err)
		}
		value = v
	}

	if fn, ok := col.Template.(Func); ok {
		return fn(value, row)
	}

	inner, err := q.formatter.Format(col.Field, col.Template, value, row)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", col.Label, err)
	}
	if col.Field == "" {
		return "<td>" + inner + "</td>", nil
	}
	return `<td data-quickcol-td="` + escape(col.Table+"."+col.Field) + `">` + inner + "</td>", nil
}
