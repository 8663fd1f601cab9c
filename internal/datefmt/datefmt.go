// Package datefmt renders timestamps using letter patterns such as
// "l, F jS Y" (Monday, January 2nd 2006), the date pattern syntax used by
// dateFormat column templates. A backslash escapes the next character and
// any unknown character is copied as is.
package datefmt

import (
	"strconv"
	"strings"
	"time"
)

// Format renders t according to pattern
func Format(t time.Time, pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' {
			if i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			}
			continue
		}
		if s, ok := letter(t, c); ok {
			b.WriteString(s)
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func letter(t time.Time, c rune) (string, bool) {
	switch c {
	// day
	case 'd':
		return pad2(t.Day()), true
	case 'D':
		return t.Format("Mon"), true
	case 'j':
		return strconv.Itoa(t.Day()), true
	case 'l':
		return t.Weekday().String(), true
	case 'N':
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return strconv.Itoa(wd), true
	case 'S':
		return suffix(t.Day()), true
	case 'w':
		return strconv.Itoa(int(t.Weekday())), true
	case 'z':
		return strconv.Itoa(t.YearDay() - 1), true
	// week
	case 'W':
		_, w := t.ISOWeek()
		return pad2(w), true
	// month
	case 'F':
		return t.Month().String(), true
	case 'm':
		return pad2(int(t.Month())), true
	case 'M':
		return t.Format("Jan"), true
	case 'n':
		return strconv.Itoa(int(t.Month())), true
	case 't':
		return strconv.Itoa(daysIn(t)), true
	// year
	case 'L':
		if daysIn(time.Date(t.Year(), time.February, 1, 0, 0, 0, 0, time.UTC)) == 29 {
			return "1", true
		}
		return "0", true
	case 'o':
		y, _ := t.ISOWeek()
		return strconv.Itoa(y), true
	case 'Y':
		return strconv.Itoa(t.Year()), true
	case 'y':
		return t.Format("06"), true
	// time
	case 'a':
		return strings.ToLower(t.Format("PM")), true
	case 'A':
		return t.Format("PM"), true
	case 'g':
		return strconv.Itoa(hour12(t)), true
	case 'G':
		return strconv.Itoa(t.Hour()), true
	case 'h':
		return pad2(hour12(t)), true
	case 'H':
		return pad2(t.Hour()), true
	case 'i':
		return pad2(t.Minute()), true
	case 's':
		return pad2(t.Second()), true
	case 'u':
		return t.Format(".000000")[1:], true
	case 'v':
		return t.Format(".000")[1:], true
	// zone
	case 'e':
		return t.Location().String(), true
	case 'T':
		return t.Format("MST"), true
	case 'P':
		return t.Format("-07:00"), true
	case 'p':
		return t.Format("Z07:00"), true
	case 'O':
		return t.Format("-0700"), true
	case 'Z':
		_, off := t.Zone()
		return strconv.Itoa(off), true
	// full date/time
	case 'c':
		return t.Format("2006-01-02T15:04:05-07:00"), true
	case 'r':
		return t.Format("Mon, 02 Jan 2006 15:04:05 -0700"), true
	case 'U':
		return strconv.FormatInt(t.Unix(), 10), true
	}
	return "", false
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// suffix returns the English ordinal suffix of a day of month
func suffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
