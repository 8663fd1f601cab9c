package quicktable

import (
	"net/url"
	"strings"
	"testing"
)

func TestQueryLinker(t *testing.T) {
	v := url.Values{"a": {"1"}}
	if got := (QueryLinker{}).BuildURL("/list", v); got != "/list?a=1" {
		t.Errorf("Expected '/list?a=1', got '%s'", got)
	}
	if got := (QueryLinker{}).BuildURL("/list?x=2", v); got != "/list?x=2&a=1" {
		t.Errorf("Expected '&' separator, got '%s'", got)
	}
	if got := (QueryLinker{}).BuildURL("/list", nil); got != "/list" {
		t.Errorf("Expected bare base, got '%s'", got)
	}
}

func TestURLMerge(t *testing.T) {
	u := mustURL(t, "/list?page=2&sort[other][field]=x&sort[sales][field]=amount&sort[sales][dir]=asc")
	s, _ := Resolve("/list", u, TableDecl{Name: "sales"}, TableDecl{Name: "other"})

	link, err := s.URL("amount", "sales", LinkOptions{Params: url.Values{"page": {"1"}}})
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	parsed := mustURL(t, link)
	q := parsed.Query()

	if parsed.Path != "/list" {
		t.Errorf("Expected path /list, got '%s'", parsed.Path)
	}
	if q.Get("page") != "1" {
		t.Errorf("Expected explicit param to win, got page=%s", q.Get("page"))
	}
	if q.Get("sort[other][field]") != "x" {
		t.Errorf("Expected other table's sort to survive, got %v", q)
	}
	if q.Get("sort[sales][dir]") != "desc" || q.Get("sort[sales][field]") != "amount" {
		t.Errorf("Expected toggled sales sort, got %v", q)
	}

	bare, _ := s.URL("amount", "sales", LinkOptions{DropCurrent: true})
	if strings.Contains(bare, "page=") || strings.Contains(bare, "other") {
		t.Errorf("Expected current params dropped, got '%s'", bare)
	}
}

func TestAnchorIcon(t *testing.T) {
	s, _ := Resolve("/list", nil, TableDecl{Name: "sales", Sort: "amount desc"})

	got, err := s.AnchorIcon("amount", "sales", "Amount", LinkOptions{Attr: `class="sort"`})
	if err != nil {
		t.Fatalf("AnchorIcon failed: %v", err)
	}
	expected := `<a href="/list?sort%5Bsales%5D%5Bdir%5D=asc&amp;sort%5Bsales%5D%5Bfield%5D=amount" class="sort">Amount <i class="fa fa-sort-desc"></i></a>`
	if got != expected {
		t.Errorf("Expected '%s', got '%s'", expected, got)
	}

	icon, _ := s.Icon("price", "sales")
	if icon != "" {
		t.Errorf("Expected no icon for inactive field, got '%s'", icon)
	}
}

func TestAnchorUnsafeBase(t *testing.T) {
	s, _ := Resolve("javascript:alert(1)", nil, TableDecl{Name: "t"})
	got, _ := s.Anchor("f", "t", "F", LinkOptions{})
	if strings.Contains(got, "javascript") {
		t.Errorf("Expected unsafe URL to be sanitized, got '%s'", got)
	}
}

type prefixLinker string

func (p prefixLinker) BuildURL(base string, params url.Values) string {
	return string(p) + base + "#" + params.Get(Key("t", FieldKey))
}

func TestCustomLinkBuilder(t *testing.T) {
	s, _ := Resolve("/x", nil, TableDecl{Name: "t"})
	s.SetLinkBuilder(prefixLinker("https://example.com"))
	got, _ := s.URL("f", "t", LinkOptions{})
	if got != "https://example.com/x#f" {
		t.Errorf("Expected custom link, got '%s'", got)
	}
}
