package quicktable

import (
	"net/url"
	"strings"

	"github.com/google/safehtml"
)

// LinkBuilder turns a base URL and query parameters into a link
type LinkBuilder interface {
	BuildURL(base string, params url.Values) string
}

// QueryLinker appends the encoded parameters to the base URL
type QueryLinker struct{}

func (QueryLinker) BuildURL(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}

// LinkOptions tunes sort link generation
type LinkOptions struct {
	Attr        string     // raw attributes for the <a> tag
	DropCurrent bool       // do not carry over the current query parameters
	Params      url.Values // extra parameters, applied last
}

// QueryValues merges the current query parameters, the sort parameters for
// field and opts.Params, later sources overriding earlier ones by key.
func (s *Sorter) QueryValues(field, table string, opts LinkOptions) (url.Values, error) {
	state, err := s.QueryState(field, table)
	if err != nil {
		return nil, err
	}
	out := url.Values{}
	if !opts.DropCurrent {
		for k, v := range s.params {
			out[k] = append([]string(nil), v...)
		}
	}
	for k, v := range state.Values() {
		out[k] = v
	}
	for k, v := range opts.Params {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// QueryString returns the encoded query string of a sort link
func (s *Sorter) QueryString(field, table string, opts LinkOptions) (string, error) {
	v, err := s.QueryValues(field, table, opts)
	if err != nil {
		return "", err
	}
	return v.Encode(), nil
}

// URL returns the sort link for field
func (s *Sorter) URL(field, table string, opts LinkOptions) (string, error) {
	v, err := s.QueryValues(field, table, opts)
	if err != nil {
		return "", err
	}
	return s.links.BuildURL(s.url, v), nil
}

// Anchor wraps content (markup) in a sort link for field
func (s *Sorter) Anchor(field, table, content string, opts LinkOptions) (string, error) {
	u, err := s.URL(field, table, opts)
	if err != nil {
		return "", err
	}
	href := safehtml.URLSanitized(u)

	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(escape(href.String()))
	b.WriteString(`"`)
	if opts.Attr != "" {
		b.WriteString(" ")
		b.WriteString(opts.Attr)
	}
	b.WriteString(">")
	b.WriteString(content)
	b.WriteString("</a>")
	return b.String(), nil
}

// AnchorIcon is Anchor with the direction icon appended to content
func (s *Sorter) AnchorIcon(field, table, content string, opts LinkOptions) (string, error) {
	icon, err := s.Icon(field, table)
	if err != nil {
		return "", err
	}
	if icon != "" {
		content += " " + icon
	}
	return s.Anchor(field, table, content, opts)
}

// Icon returns the sort icon for field, or "" when the table is not sorted by it
func (s *Sorter) Icon(field, table string) (string, error) {
	dir, err := s.CurrentDir(field, table)
	if err != nil || dir == "" {
		return "", err
	}
	return `<i class="fa fa-sort-` + string(dir) + `"></i>`, nil
}

func escape(s string) string {
	return safehtml.HTMLEscaped(s).String()
}
