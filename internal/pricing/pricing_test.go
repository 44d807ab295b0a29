package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	d, err := ParsePrice(" 19.999 ")
	require.NoError(t, err)
	assert.Equal(t, "20", d.String())

	d, err = ParsePrice("99999999.99")
	require.NoError(t, err)
	assert.True(t, d.Equal(MaxPrice))

	_, err = ParsePrice("100000000")
	assert.ErrorIs(t, err, ErrPriceTooHigh)

	for _, bad := range []string{"", "abc", "0", "-5", "0.001"} {
		_, err := ParsePrice(bad)
		assert.ErrorIs(t, err, ErrInvalidPrice, bad)
	}
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(1999), Cents(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(25000), Cents(decimal.RequireFromString("250")))
	assert.Equal(t, int64(1), Cents(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(9999999999), Cents(MaxPrice))
}

func TestSum(t *testing.T) {
	total := Sum(decimal.RequireFromString("10.10"), decimal.RequireFromString("5.45"))
	assert.Equal(t, "15.55", total.StringFixed(2))
	assert.True(t, Sum().IsZero())
}
