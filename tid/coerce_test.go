package tid

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_Text(t *testing.T) {
	got, err := Coerce(nil, Text)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = Coerce(123, Text)
	require.NoError(t, err)
	assert.Equal(t, "123", got)

	got, err = Coerce("hello", Text)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestCoerce_Integer(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int64
	}{
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"plain", "42", 42},
		{"truncates not rounds", "42.9", 42},
		{"float input", 7.8, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.input, Integer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_Decimal_Exact(t *testing.T) {
	got, err := Coerce("10.50", Decimal)
	require.NoError(t, err)

	d, ok := got.(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("10.50")), "got %s", d)

	got, err = Coerce("", Decimal)
	require.NoError(t, err)
	assert.True(t, got.(decimal.Decimal).IsZero())
}

func TestCoerce_Date(t *testing.T) {
	got, err := Coerce("2025-09-30", Date)
	require.NoError(t, err)
	assert.Equal(t, TID(20250930000000), got)

	got, err = Coerce("", Date)
	require.NoError(t, err)
	assert.Equal(t, TID(0), got)

	got, err = Coerce(nil, Date)
	require.NoError(t, err)
	assert.Equal(t, TID(0), got)
}

func TestCoerce_Errors(t *testing.T) {
	_, err := Coerce("abc", Integer)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)

	_, err = Coerce("abc", Decimal)
	require.ErrorAs(t, err, &fe)

	_, err = Coerce("nonsense", Date)
	require.ErrorAs(t, err, &fe)

	_, err = Coerce("x", Kind("unknown"))
	require.ErrorAs(t, err, &fe)
}
