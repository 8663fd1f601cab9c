package quicktable

import (
	"net/url"
	"regexp"
)

// ParamSource supplies the current request's query parameters.
// *url.URL satisfies it.
type ParamSource interface {
	Query() url.Values
}

// SortParam is the field/dir pair of one table in the query string
type SortParam struct {
	Field string    `json:"field"`
	Dir   Direction `json:"dir"`
}

// SortQuery is the nested sort structure {table: {field, dir}}
type SortQuery map[string]SortParam

var sortParamRe = regexp.MustCompile(`^` + SortKey + `\[([^\[\]]+)\]\[(` + FieldKey + `|` + DirKey + `)\]$`)

// ParseSort extracts sort[<table>][field] and sort[<table>][dir] from q.
// Directions are returned as given; Sorter normalizes them.
func ParseSort(q url.Values) SortQuery {
	out := SortQuery{}
	for key, values := range q {
		m := sortParamRe.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		p := out[m[1]]
		switch m[2] {
		case FieldKey:
			p.Field = values[0]
		case DirKey:
			p.Dir = Direction(values[0])
		}
		out[m[1]] = p
	}
	return out
}

// Key returns the flattened query key for a table's field or dir
func Key(table, part string) string {
	return SortKey + "[" + table + "][" + part + "]"
}

// Values flattens the structure into query parameters
func (q SortQuery) Values() url.Values {
	v := url.Values{}
	for table, p := range q {
		if p.Field != "" {
			v.Set(Key(table, FieldKey), p.Field)
		}
		if p.Dir != "" {
			v.Set(Key(table, DirKey), string(p.Dir))
		}
	}
	return v
}
