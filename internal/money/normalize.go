// Package money converts heterogeneous numeric input into exact decimals.
//
// Monetary amounts arrive from two untrusted directions: JSON request bodies
// and model-generated tool arguments. Either may carry an amount as an
// integer, a float, or a string dressed up with currency symbols and
// thousands separators. Everything funnels through Normalize before any
// balance arithmetic happens.
package money

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparsable is returned when a value cannot be read as a monetary amount.
var ErrUnparsable = errors.New("amount is not a valid number")

// Normalize converts v into an exact decimal value.
//
// Integers and floats go through their exact string representation, so binary
// floating-point artifacts never leak into the decimal. Strings are stripped
// of every character that is not a digit, a decimal point or a minus sign; a
// result that is empty, a bare sign or a bare point is rejected. No rounding
// to currency precision is applied; the input's own precision is preserved.
func Normalize(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case json.RawMessage:
		return NormalizeJSON(x)
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float32:
		return fromNumeral(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case float64:
		return fromNumeral(strconv.FormatFloat(x, 'f', -1, 64))
	case json.Number:
		return fromNumeral(x.String())
	case string:
		return fromNumeral(clean(x))
	default:
		return decimal.Decimal{}, ErrUnparsable
	}
}

// NormalizeJSON decodes a raw JSON value (number or string) and normalizes it.
func NormalizeJSON(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Decimal{}, ErrUnparsable
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return decimal.Decimal{}, ErrUnparsable
	}
	return Normalize(v)
}

// clean strips everything that is not a digit, a decimal point or a minus
// sign. This defends against currency symbols, separators and whitespace.
func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func fromNumeral(s string) (decimal.Decimal, error) {
	if s == "" || s == "-" || s == "." || s == "-." {
		return decimal.Decimal{}, ErrUnparsable
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrUnparsable
	}
	return d, nil
}
