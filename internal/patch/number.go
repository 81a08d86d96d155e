package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotNumeric = errors.New("must be numeric")
	ErrNotInteger = errors.New("must be a whole number")
	ErrOutOfRange = errors.New("is out of range")
)

// integer columns are 32-bit
var (
	minInt = decimal.NewFromInt(math.MinInt32)
	maxInt = decimal.NewFromInt(math.MaxInt32)
)

// Number keeps the raw text of a numeric field so that a value which cannot be
// coerced is reported separately from a value that is out of range. Both JSON
// numbers and strings are accepted, and a blank string counts as null.
type Number struct {
	Set  bool
	Null bool
	Raw  string
}

func NumberOf(raw string) Number {
	n := Number{Set: true, Raw: strings.TrimSpace(raw)}
	if n.Raw == "" {
		n.Null = true
	}
	return n
}

func (n *Number) UnmarshalJSON(data []byte) error {
	n.Set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, nullLiteral) {
		n.Null = true
		n.Raw = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberOf(s)
		return nil
	}

	n.Null = false
	n.Raw = string(data)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.HasValue() {
		return nullLiteral, nil
	}
	return json.Marshal(n.Raw)
}

func (n Number) HasValue() bool {
	return n.Set && !n.Null
}

func (n Number) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.Raw)
	if err != nil {
		return decimal.Zero, ErrNotNumeric
	}
	return d, nil
}

func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(n.Raw, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return f, nil
}

func (n Number) Int() (int, error) {
	d, err := n.Decimal()
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, ErrNotInteger
	}
	if d.LessThan(minInt) || d.GreaterThan(maxInt) {
		return 0, ErrOutOfRange
	}
	return int(d.IntPart()), nil
}
