// Package trade validates CSV trade lines and streams them through product name enrichment.
package trade

import (
	"errors"
	"strings"
	"time"
)

const (
	fieldCount = 4
	dateLayout = "20060102"
)

var (
	ErrFieldCount  = errors.New("trade line does not have 4 fields")
	ErrInvalidDate = errors.New("trade date is not a valid YYYYMMDD date")
)

// Record is one trade line: date,product_id,currency,price.
// Price is kept as the raw trimmed text.
type Record struct {
	Date      string
	ProductID string
	Currency  string
	Price     string
}

// ParseRecord splits line on commas, trims the fields and validates the date.
// Trailing empty fields are dropped before counting, so "a,b,c," has three fields
// and "a,b,c,d," has four.
func ParseRecord(line string) (Record, error) {
	fields := splitFields(line)
	if len(fields) != fieldCount {
		return Record{}, ErrFieldCount
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	rec := Record{
		Date:      fields[0],
		ProductID: fields[1],
		Currency:  fields[2],
		Price:     fields[3],
	}
	if !validDate(rec.Date) {
		return Record{}, ErrInvalidDate
	}
	return rec, nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// validDate accepts exactly eight digits forming a real calendar date.
func validDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
