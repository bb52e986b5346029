package tid

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind names a NIOS4 field format. The values match the format strings
// the service uses in field metadata.
type Kind string

const (
	Text    Kind = "text"
	Decimal Kind = "decimalnumber"
	Integer Kind = "integernumber"
	Date    Kind = "date"
)

// Coerce normalizes a raw field value into the canonical Go value for the
// given kind:
//
//   - Text: the value stringified; nil becomes ""
//   - Decimal: a decimal.Decimal parsed exactly (no binary-float drift);
//     nil and "" become zero
//   - Integer: an int64, truncating any fractional part; nil and "" become 0
//   - Date: a TID via NormalizeDate; nil and "" become TID(0)
//
// Unparsable values yield a *FormatError.
func Coerce(v any, kind Kind) (any, error) {
	switch kind {
	case Text:
		if v == nil {
			return "", nil
		}
		return stringify(v), nil

	case Decimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return d, nil

	case Integer:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.IntPart(), nil

	case Date:
		if v == nil || v == "" {
			return TID(0), nil
		}
		return NormalizeDate(v)

	default:
		return nil, &FormatError{Value: v, Reason: fmt.Sprintf("unknown field kind %q", kind)}
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return fmt.Sprintf("%v", v)
}

// toDecimal parses any numeric or string value into an exact decimal.
// nil and the empty string are the zero value.
func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		if x == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero, &FormatError{Value: x, Reason: "not a decimal number"}
		}
		return d, nil
	case decimal.Decimal:
		return x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	default:
		return decimal.Zero, &FormatError{Value: v, Reason: fmt.Sprintf("unsupported numeric type %T", v)}
	}
}
