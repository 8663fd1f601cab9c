package quicktable

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestFormatNamed(t *testing.T) {
	ts := time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		tpl      Template
		value    any
		expected string
	}{
		{"money nil", NamedFormat(FormatMoney), nil, ""},
		{"money negative", NamedFormat(FormatMoney), -5, "-$5.00"},
		{"money grouped", NamedFormat(FormatMoney), 1234.5, "$1,234.50"},
		{"money string", NamedFormat(FormatMoney), "42", "$42.00"},
		{"balance negative", NamedFormat(FormatBalance), -5, "($5.00)"},
		{"balance positive", NamedFormat(FormatBalance), 1500, "$1,500.00"},
		{"balance nil", NamedFormat(FormatBalance), nil, ""},
		{"yesno true", NamedFormat(FormatYesNo), true, "Yes"},
		{"yesno false", NamedFormat(FormatYesNo), false, "No"},
		{"yesno nil", NamedFormat(FormatYesNo), nil, ""},
		{"yesno zero string", NamedFormat(FormatYesNo), "0", "No"},
		{"yesno int", NamedFormat(FormatYesNo), int64(1), "Yes"},
		{"number default", NamedFormat(FormatNumber), 1234.5, "1,235"},
		{"number decimals", ParseNamed("number_2"), 1234567.891, "1,234,567.89"},
		{"number negative", ParseNamed("number_1"), -1234.56, "-1,234.6"},
		{"number nil", ParseNamed("number_2"), nil, ""},
		{"number wide int", NamedFormat(FormatNumber), uint64(18446744073709551615), "18,446,744,073,709,551,615"},
		{"number exact string", ParseNamed("number_2"), "12345678901234567890.125", "12,345,678,901,234,567,890.13"},
		{"number carry", ParseNamed("number_1"), "999.95", "1,000.0"},
		{"number negative zero", ParseNamed("number_1"), -0.04, "0.0"},
		{"money int64 beyond float", NamedFormat(FormatMoney), int64(9007199254740993), "$9,007,199,254,740,993.00"},
		{"money large float", NamedFormat(FormatMoney), 1e21, "$1,000,000,000,000,000,000,000.00"},
		{"money exponent string", NamedFormat(FormatMoney), "1.5e3", "$1,500.00"},
		{"money half cent", NamedFormat(FormatMoney), 2.675, "$2.68"},
		{"balance rounds to zero", NamedFormat(FormatBalance), -0.001, "$0.00"},
		{"date", NamedFormat(FormatDate), ts, "03/02/2024"},
		{"datetime", NamedFormat(FormatDateTime), ts, "03/02/2024 03:04PM"},
		{"time", NamedFormat(FormatTime), ts, "03:04PM"},
		{"time nil", NamedFormat(FormatTime), nil, ""},
		{"date string", NamedFormat(FormatDate), "2024-03-02 15:04:05", "03/02/2024"},
		{"dateFormat", ParseNamed("dateFormat_l, F d"), ts, "Saturday, March 02"},
		{"dateFormat nil", ParseNamed("dateFormat_Y"), nil, ""},
		{"upper", NamedFormat("upper"), "abc", "ABC"},
		{"title", NamedFormat("title"), "hello world", "Hello World"},
	}

	for _, tt := range tests {
		got, err := Format(tt.tpl, tt.value, Row{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%s: Expected '%s', got '%s'", tt.name, tt.expected, got)
		}
	}
}

func TestFormatRaw(t *testing.T) {
	got, _ := Format(nil, "<b>bold</b>", Row{})
	if got != "&lt;b&gt;bold&lt;/b&gt;" {
		t.Errorf("Expected escaped raw value, got '%s'", got)
	}
	got, _ = Format(nil, nil, Row{})
	if got != "" {
		t.Errorf("Expected empty string for nil, got '%s'", got)
	}
	got, _ = Format(nil, 42, Row{})
	if got != "42" {
		t.Errorf("Expected '42', got '%s'", got)
	}
}

func TestFormatText(t *testing.T) {
	got, err := Format(Text("$a-$b"), nil, Row{"a": "X", "b": "Y"})
	if err != nil || got != "X-Y" {
		t.Errorf("Expected 'X-Y', got '%s' (%v)", got, err)
	}

	got, _ = Format(Text(`<a href="/c/$customer_id">$customer_name</a>`), nil, Row{"customer_id": 9, "customer_name": "A&B"})
	if got != `<a href="/c/9">A&amp;B</a>` {
		t.Errorf("Expected substituted link, got '%s'", got)
	}

	got, _ = Format(Text("Static label"), nil, Row{})
	if got != "Static label" {
		t.Errorf("Expected verbatim text, got '%s'", got)
	}

	if _, err := Format(Text("$missing"), nil, Row{"a": 1}); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("Expected ErrFieldNotFound, got %v", err)
	}
}

func TestFormatFunc(t *testing.T) {
	fn := Func(func(value any, row Row) (string, error) {
		return "<td class=\"len\">" + strings.Repeat("*", len(row["title"].(string))) + "</td>", nil
	})
	got, _ := Format(fn, nil, Row{"title": "abc"})
	if got != `<td class="len">***</td>` {
		t.Errorf("Expected function output unmodified, got '%s'", got)
	}

	boom := errors.New("boom")
	_, err := Format(Func(func(any, Row) (string, error) { return "", boom }), nil, Row{})
	if err != boom {
		t.Errorf("Expected function error unmodified, got %v", err)
	}
}

func TestFormatErrors(t *testing.T) {
	if _, err := Format(NamedFormat("bogus"), 1, Row{}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("Expected ErrUnknownTemplate, got %v", err)
	}
	// unknown names fail even for nil values
	if _, err := Format(NamedFormat("bogus"), nil, Row{}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("Expected ErrUnknownTemplate for nil value, got %v", err)
	}
	if _, err := Format(ParseNamed("number_x"), 1, Row{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if _, err := Format(NamedFormat(FormatMoney), "abc", Row{}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue, got %v", err)
	}
	if _, err := Format(NamedFormat(FormatNumber), "NaN", Row{}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue for NaN, got %v", err)
	}
	if _, err := Format(NamedFormat(FormatDate), "not a date", Row{}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue for bad date, got %v", err)
	}
	if _, err := Format(NamedFormat(FormatDateFormat), time.Now(), Row{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for missing pattern, got %v", err)
	}
}

func TestFormatterHooks(t *testing.T) {
	var gotField string
	f := &Formatter{
		Date: func(raw any, field string, row Row) (time.Time, error) {
			gotField = field
			return time.Unix(raw.(int64), 0).UTC(), nil
		},
		Layout: func(t time.Time, pattern string) string { return pattern + t.Format("2006") },
		Funcs:  map[string]func(string) string{"reverse": reverse},
	}

	got, _ := f.Format("created", ParseNamed("dateFormat_Y:"), int64(0), Row{})
	if got != "Y:1970" || gotField != "created" {
		t.Errorf("Expected custom hook and layout, got '%s' for field '%s'", got, gotField)
	}

	got, _ = f.Format("name", NamedFormat("reverse"), "abc", Row{})
	if got != "cba" {
		t.Errorf("Expected custom func, got '%s'", got)
	}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func TestLocalDate(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	f := &Formatter{Date: LocalDate(est)}
	ts := time.Date(2024, time.March, 2, 23, 30, 0, 0, time.UTC)

	got, _ := f.Format("at", NamedFormat(FormatTime), ts, Row{})
	if got != "06:30PM" {
		t.Errorf("Expected converted time '06:30PM', got '%s'", got)
	}

	fromDB, err := pq.ParseTimestamp(nil, "2024-03-02 23:30:00+00")
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}
	for _, raw := range []any{fromDB, "2024-03-02T23:30:00+00:00", "2024-03-02 23:30:00"} {
		got, err := f.Format("at", NamedFormat(FormatTime), raw, Row{})
		if err != nil || got != "06:30PM" {
			t.Errorf("Expected zero-offset %v converted to '06:30PM', got '%s' (%v)", raw, got, err)
		}
	}

	other := time.Date(2024, time.March, 2, 23, 30, 0, 0, time.FixedZone("X", 3600))
	got, _ = f.Format("at", NamedFormat(FormatTime), other, Row{})
	if got != "11:30PM" {
		t.Errorf("Expected zoned time untouched, got '%s'", got)
	}
}

func TestParseNamed(t *testing.T) {
	n := ParseNamed("dateFormat_Y_m")
	if n.Name != FormatDateFormat || len(n.Args) != 1 || n.Args[0] != "Y_m" {
		t.Errorf("Expected single argument 'Y_m', got %+v", n)
	}
	if n.String() != "dateFormat_Y_m" {
		t.Errorf("Expected wire form round trip, got '%s'", n.String())
	}
	if p := ParseNamed("money"); p.Name != "money" || len(p.Args) != 0 {
		t.Errorf("Expected bare name, got %+v", p)
	}
}
