package quicktable

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gnemet/quicktable/internal/datefmt"
)

// Formatter converts raw cell values into markup.
// The zero value is ready to use.
type Formatter struct {
	// Date normalizes values for the date/time formats. Defaults to DefaultDate.
	Date DateHook
	// Layout renders dateFormat patterns. Defaults to datefmt.Format.
	Layout func(t time.Time, pattern string) string
	// Funcs are extra named templates applied to the value's string form.
	// They take precedence over the built-in upper, lower and title.
	Funcs map[string]func(string) string
}

var builtinFuncs = map[string]func(string) string{
	"upper": func(s string) string { return cases.Upper(language.English).String(s) },
	"lower": func(s string) string { return cases.Lower(language.English).String(s) },
	"title": func(s string) string { return cases.Title(language.English).String(s) },
}

var varRe = regexp.MustCompile(`\$[a-z_]+`)

// Format renders value with the zero Formatter
func Format(tpl Template, value any, row Row) (string, error) {
	var f Formatter
	return f.Format("", tpl, value, row)
}

// Format renders value taken from field of row. For a Func template the
// result is the complete cell; otherwise it is the cell's inner content.
func (f *Formatter) Format(field string, tpl Template, value any, row Row) (string, error) {
	switch t := tpl.(type) {
	case nil:
		return escape(stringify(value)), nil
	case Text:
		return substitute(string(t), row)
	case Func:
		return t(value, row)
	case Named:
		return f.named(field, t, value, row)
	}
	return "", fmt.Errorf("%w: %T", ErrUnknownTemplate, tpl)
}

func substitute(text string, row Row) (string, error) {
	var err error
	out := varRe.ReplaceAllStringFunc(text, func(token string) string {
		if err != nil {
			return token
		}
		v, lerr := row.Lookup(token[1:])
		if lerr != nil {
			err = lerr
			return token
		}
		return escape(stringify(v))
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (f *Formatter) named(field string, n Named, value any, row Row) (string, error) {
	switch n.Name {
	case FormatYesNo:
		if value == nil {
			return "", nil
		}
		if truthy(value) {
			return "Yes", nil
		}
		return "No", nil
	case FormatNumber:
		if value == nil {
			return "", nil
		}
		decimals := 0
		if arg, ok := n.arg(0); ok {
			d, err := strconv.Atoi(arg)
			if err != nil || d < 0 {
				return "", fmt.Errorf("%w: number decimals %q", ErrInvalidArgument, arg)
			}
			decimals = d
		}
		d, err := toDecimal(value)
		if err != nil {
			return "", err
		}
		return formatNumber(d, decimals), nil
	case FormatMoney:
		if value == nil {
			return "", nil
		}
		d, err := toDecimal(value)
		if err != nil {
			return "", err
		}
		return formatMoney(d), nil
	case FormatBalance:
		if value == nil {
			return "", nil
		}
		d, err := toDecimal(value)
		if err != nil {
			return "", err
		}
		return formatBalance(d), nil
	case FormatDate, FormatDateTime, FormatTime, FormatDateFormat:
		if value == nil {
			return "", nil
		}
		return f.date(field, n, value, row)
	}

	if fn, ok := f.Funcs[n.Name]; ok {
		return applyFunc(fn, value), nil
	}
	if fn, ok := builtinFuncs[n.Name]; ok {
		return applyFunc(fn, value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, n.Name)
}

func applyFunc(fn func(string) string, value any) string {
	if value == nil {
		return ""
	}
	return escape(fn(stringify(value)))
}

func (f *Formatter) date(field string, n Named, value any, row Row) (string, error) {
	hook := f.Date
	if hook == nil {
		hook = DefaultDate
	}
	t, err := hook(value, field, row)
	if err != nil {
		return "", err
	}

	switch n.Name {
	case FormatDate:
		return t.Format("01/02/2006"), nil
	case FormatDateTime:
		return t.Format("01/02/2006 03:04PM"), nil
	case FormatTime:
		return t.Format("03:04PM"), nil
	}

	pattern, ok := n.arg(0)
	if !ok {
		return "", fmt.Errorf("%w: dateFormat needs a pattern", ErrInvalidArgument)
	}
	layout := f.Layout
	if layout == nil {
		layout = datefmt.Format
	}
	return escape(layout(t, pattern)), nil
}
