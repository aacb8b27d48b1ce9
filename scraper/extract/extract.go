// Package extract turns the bracketed array strings that rate pages keep in
// hidden form fields into ordered (date, price) series.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// ErrFieldNotFound is returned when a requested hidden field is absent.
var ErrFieldNotFound = errors.New("field not found")

var (
	dashDate  = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
	slashDate = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// Point is one date/price pair of a series.
type Point struct {
	Date  string
	Price decimal.Decimal
}

// HiddenFields reads the value attribute of the elements with the given ids
// from an HTML document. Missing ids are absent from the result.
func HiddenFields(html string, ids ...string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	values := make(map[string]string, len(ids))
	for _, id := range ids {
		sel := doc.Find(`[id="` + id + `"]`).First()
		if sel.Length() == 0 {
			continue
		}
		val, ok := sel.Attr("value")
		if !ok {
			continue
		}
		values[id] = val
	}
	return values, nil
}

// Field returns fields[id] or ErrFieldNotFound.
func Field(fields map[string]string, id string) (string, error) {
	v, ok := fields[id]
	if !ok {
		return "", fmt.Errorf("extract: %s: %w", id, ErrFieldNotFound)
	}
	return v, nil
}

// SplitArray strips the enclosing brackets of "[a, b, c]" and returns the
// trimmed tokens in order. Surrounding quotes on a token are removed.
func SplitArray(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"'`)
		tokens = append(tokens, strings.TrimSpace(p))
	}
	return tokens
}

// ParseDates splits a date array and normalises every token.
func ParseDates(raw string) []string {
	tokens := SplitArray(raw)
	dates := make([]string, len(tokens))
	for i, tok := range tokens {
		dates[i], _ = NormalizeDate(tok)
	}
	return dates
}

// ParsePrices splits a price array and parses every token as a decimal.
// Any malformed token fails the whole array.
func ParsePrices(raw string) ([]decimal.Decimal, error) {
	tokens := SplitArray(raw)
	prices := make([]decimal.Decimal, 0, len(tokens))
	for i, tok := range tokens {
		d, err := decimal.NewFromString(tok)
		if err != nil {
			return nil, fmt.Errorf("extract: price %d %q: %w", i, tok, err)
		}
		prices = append(prices, d)
	}
	return prices, nil
}

// NormalizeDate converts DD-MM-YYYY or DD/MM/YYYY to YYYY-MM-DD. A value
// already in YYYY-MM-DD form is returned unchanged. Anything else is
// returned unchanged with ok=false.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := dashDate.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1], true
	}
	if m := slashDate.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1], true
	}
	if IsISODate(s) {
		return s, true
	}
	return s, false
}

// IsISODate reports whether s is a valid YYYY-MM-DD calendar date.
func IsISODate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// Zip pairs dates and prices index for index (oldest first), keeps the
// first days pairs and returns them newest first. Extra entries on the
// longer side are ignored.
func Zip(dates []string, prices []decimal.Decimal, days int) []Point {
	n := len(dates)
	if len(prices) < n {
		n = len(prices)
	}
	if days < n {
		n = days
	}
	if n <= 0 {
		return nil
	}

	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[n-1-i] = Point{Date: dates[i], Price: prices[i]}
	}
	return points
}
