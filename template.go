package quicktable

import (
	"fmt"
	"strings"
)

// Named format identifiers. An argument follows the name after ArgDelimiter,
// e.g. "number_2" or "dateFormat_l, F d".
const (
	FormatYesNo      = "yesno"
	FormatNumber     = "number"
	FormatMoney      = "money"
	FormatBalance    = "balance"
	FormatDate       = "date"
	FormatDateTime   = "datetime"
	FormatTime       = "time"
	FormatDateFormat = "dateFormat"

	ArgDelimiter = "_"
)

// Template describes how a cell value is rendered. It is one of Named,
// Text or Func.
type Template interface {
	isTemplate()
}

// Named is a predefined format such as money or dateFormat
type Named struct {
	Name string
	Args []string
}

// Text is a substitution string; every $field token is replaced by the
// row's value. A Text without tokens is a static label.
type Text string

// Func renders the whole cell, including its <td> and </td> tags.
type Func func(value any, row Row) (string, error)

func (Named) isTemplate() {}
func (Text) isTemplate()  {}
func (Func) isTemplate()  {}

// ParseNamed parses the wire form "name" or "name_arg". Only the first
// delimiter splits, so the argument may contain underscores.
func ParseNamed(s string) Named {
	name, arg, ok := strings.Cut(s, ArgDelimiter)
	if !ok {
		return Named{Name: s}
	}
	return Named{Name: name, Args: []string{arg}}
}

// NamedFormat returns a Named template, e.g. NamedFormat("number", "2")
func NamedFormat(name string, args ...string) Named {
	return Named{Name: name, Args: args}
}

// String returns the wire form
func (n Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	return n.Name + ArgDelimiter + strings.Join(n.Args, ArgDelimiter)
}

func (n Named) arg(i int) (string, bool) {
	if i >= len(n.Args) {
		return "", false
	}
	return n.Args[i], true
}

// Row is one record keyed by field name
type Row map[string]any

// Lookup returns the value of field, failing when the row has no such key
func (r Row) Lookup(field string) (any, error) {
	v, ok := r[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, field)
	}
	return v, nil
}
