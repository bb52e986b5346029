// Package tid implements the NIOS4 time identifier: a 14-digit
// YYYYMMDDHHMMSS decimal integer encoding a UTC instant. TIDs are the
// service's canonical time representation, used both for "now" stamps on
// outgoing records and for normalizing caller-supplied dates into one
// comparable integer domain.
package tid

import (
	"fmt"
	"time"
)

// TID is a UTC instant encoded as a 14-digit YYYYMMDDHHMMSS integer.
type TID int64

// FormatError reports a value that could not be interpreted as a date,
// time identifier, or typed field value. It is a hard error: callers get
// it back directly instead of a sentinel, since no useful fallback exists
// for malformed input.
type FormatError struct {
	Value  any
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot interpret %v: %s", e.Value, e.Reason)
}

const dateLayout = "2006-01-02"

// Now returns the current UTC instant as a TID.
func Now() TID {
	return NowAt(time.Now())
}

// NowAt returns the TID for the given instant, rendered in UTC.
//
// A leap second (seconds field 60) cannot be encoded: 60 is not a valid
// seconds value in the TID domain. When the instant carries one, the
// instant one second earlier is encoded instead.
func NowAt(t time.Time) TID {
	t = t.UTC()
	if t.Second() == 60 {
		t = t.Add(-time.Second)
	}
	return fromTime(t)
}

// fromTime renders an already-UTC time as a TID integer.
func fromTime(t time.Time) TID {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return TID(int64(y)*1e10 +
		int64(mo)*1e8 +
		int64(d)*1e6 +
		int64(h)*1e4 +
		int64(mi)*1e2 +
		int64(s))
}

// NormalizeDate converts a caller-supplied date value to a TID.
//
// Accepted inputs:
//   - time.Time: rendered in UTC with full time-of-day precision
//   - TID, int, int64: passed through unchanged (assumed already canonical)
//   - string: strict "YYYY-MM-DD", encoded with a 000000 time component
//
// Anything else, or an unparsable string, yields a *FormatError.
// NormalizeDate is the single date ingestion path; field coercion funnels
// through it.
func NormalizeDate(v any) (TID, error) {
	switch x := v.(type) {
	case time.Time:
		return fromTime(x.UTC()), nil
	case TID:
		return x, nil
	case int:
		return TID(x), nil
	case int64:
		return TID(x), nil
	case string:
		t, err := time.Parse(dateLayout, x)
		if err != nil {
			return 0, &FormatError{Value: x, Reason: "not a YYYY-MM-DD date"}
		}
		return fromTime(t), nil
	default:
		return 0, &FormatError{Value: v, Reason: fmt.Sprintf("unsupported type %T", v)}
	}
}

// Time decodes the TID strictly back into a time.Time in UTC. A value
// that is not 14 digits, or whose components do not form a real calendar
// date and time, yields a *FormatError.
func (t TID) Time() (time.Time, error) {
	if t < 1e13 || t > 99999999999999 {
		return time.Time{}, &FormatError{Value: t, Reason: "not a 14-digit time identifier"}
	}
	n := int64(t)
	y := int(n / 1e10)
	mo := int(n / 1e8 % 100)
	d := int(n / 1e6 % 100)
	h := int(n / 1e4 % 100)
	mi := int(n / 1e2 % 100)
	s := int(n % 100)

	dt := time.Date(y, time.Month(mo), d, h, mi, s, 0, time.UTC)
	// time.Date normalizes out-of-range components (Feb 30 becomes Mar 2),
	// so round-trip the result to reject encodings that moved.
	if fromTime(dt) != t {
		return time.Time{}, &FormatError{Value: t, Reason: "does not decode to a valid date/time"}
	}
	return dt, nil
}

// ISO renders the TID as an ISO-8601 timestamp ("2006-01-02T15:04:05").
func (t TID) ISO() (string, error) {
	dt, err := t.Time()
	if err != nil {
		return "", err
	}
	return dt.Format("2006-01-02T15:04:05"), nil
}
