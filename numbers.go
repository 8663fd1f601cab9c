package quicktable

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// stringify returns the natural string form of a cell value
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

// decimal is the exact base-10 form of a numeric cell value. Integers and
// numeric strings never pass through float64.
type decimal struct {
	neg   bool
	whole string
	frac  string
}

var decimalRe = regexp.MustCompile(`^([+-]?)([0-9]*)(?:\.([0-9]*))?$`)

func toDecimal(v any) (decimal, error) {
	switch val := v.(type) {
	case int:
		return parseDecimal(strconv.FormatInt(int64(val), 10))
	case int8:
		return parseDecimal(strconv.FormatInt(int64(val), 10))
	case int16:
		return parseDecimal(strconv.FormatInt(int64(val), 10))
	case int32:
		return parseDecimal(strconv.FormatInt(int64(val), 10))
	case int64:
		return parseDecimal(strconv.FormatInt(val, 10))
	case uint:
		return parseDecimal(strconv.FormatUint(uint64(val), 10))
	case uint8:
		return parseDecimal(strconv.FormatUint(uint64(val), 10))
	case uint16:
		return parseDecimal(strconv.FormatUint(uint64(val), 10))
	case uint32:
		return parseDecimal(strconv.FormatUint(uint64(val), 10))
	case uint64:
		return parseDecimal(strconv.FormatUint(val, 10))
	case float32:
		return floatDecimal(float64(val), 32)
	case float64:
		return floatDecimal(val, 64)
	case bool:
		if val {
			return decimal{whole: "1"}, nil
		}
		return decimal{whole: "0"}, nil
	case string:
		return parseDecimal(val)
	case []byte:
		return parseDecimal(string(val))
	}
	return decimal{}, fmt.Errorf("%w: %T is not numeric", ErrInvalidValue, v)
}

// parseDecimal reads plain decimal text digit by digit. Other forms
// strconv accepts, such as exponents, go through floatDecimal.
func parseDecimal(s string) (decimal, error) {
	s = strings.TrimSpace(s)
	if m := decimalRe.FindStringSubmatch(s); m != nil && (m[2] != "" || m[3] != "") {
		i := strings.TrimLeft(m[2], "0")
		if i == "" {
			i = "0"
		}
		return decimal{neg: m[1] == "-", whole: i, frac: m[3]}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal{}, fmt.Errorf("%w: %q is not numeric", ErrInvalidValue, s)
	}
	return floatDecimal(f, 64)
}

// floatDecimal uses the shortest text that reads back as f
func floatDecimal(f float64, bits int) (decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal{}, fmt.Errorf("%w: %v is not a finite number", ErrInvalidValue, f)
	}
	return parseDecimal(strconv.FormatFloat(f, 'f', -1, bits))
}

func (d decimal) isZero() bool {
	return strings.Trim(d.whole+d.frac, "0") == ""
}

// round keeps places fractional digits, rounding half away from zero
func (d decimal) round(places int) decimal {
	if len(d.frac) <= places {
		d.frac += strings.Repeat("0", places-len(d.frac))
		return d
	}
	digits := []byte(d.whole + d.frac[:places])
	if d.frac[places] >= '5' {
		i := len(digits) - 1
		for ; i >= 0 && digits[i] == '9'; i-- {
			digits[i] = '0'
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		} else {
			digits[i]++
		}
	}
	n := len(digits) - places
	d.whole = strings.TrimLeft(string(digits[:n]), "0")
	if d.whole == "" {
		d.whole = "0"
	}
	d.frac = string(digits[n:])
	return d
}

// grouped renders the magnitude with thousands separators
func (d decimal) grouped() string {
	s := groupDigits(d.whole)
	if d.frac != "" {
		s += "." + d.frac
	}
	return s
}

func groupDigits(s string) string {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return message.NewPrinter(language.AmericanEnglish).Sprintf("%d", n)
	}
	// wider than int64
	var b strings.Builder
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// truthy reports whether a database value reads as true: non-zero numbers,
// true, and strings other than "", "0" and "false".
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return !isFalseString(val)
	case []byte:
		return !isFalseString(string(val))
	}
	if d, err := toDecimal(v); err == nil {
		return !d.isZero()
	}
	return true
}

func isFalseString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "f", "false":
		return true
	}
	return false
}

// formatNumber groups thousands with commas, e.g. 1234.5 -> "1,234.50"
func formatNumber(d decimal, places int) string {
	r := d.round(places)
	if r.neg && !r.isZero() {
		return "-" + r.grouped()
	}
	return r.grouped()
}

func formatMoney(d decimal) string {
	r := d.round(2)
	if r.neg && !r.isZero() {
		return "-$" + r.grouped()
	}
	return "$" + r.grouped()
}

func formatBalance(d decimal) string {
	r := d.round(2)
	if r.neg && !r.isZero() {
		return "($" + r.grouped() + ")"
	}
	return "$" + r.grouped()
}
