package freshkeep_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshkeep"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12", 120000},
		{"0.02", 200},
		{"0.0002", 2},
		{"0.2", 2000},
		{"0.20", 2000},
		{"-0.25", -2500},
		{".5", 5000},
		{"3.14159", 31416},
		{"3.14154", 31415},
		{" 7.5 ", 75000},
	}
	for _, tt := range tests {
		d, err := freshkeep.ParseDecimal(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d.Data, tt.in)
	}

	for _, in := range []string{"", "abc", "1.x", "--1", "1.-5", ".", ".-5", "99999999999999999"} {
		_, err := freshkeep.ParseDecimal(in)
		assert.Error(t, err, in)
	}
}

func fromFloat(t *testing.T, f float64) freshkeep.Decimal {
	t.Helper()
	d, err := freshkeep.NewDecimalFromFloat(f)
	require.NoError(t, err)
	return d
}

func TestDecimalString(t *testing.T) {
	assert.Equal(t, "1.5000", fromFloat(t, 1.5).String())
	assert.Equal(t, "-0.0250", freshkeep.NewDecimal(-250).String())
	assert.Equal(t, "0.0000", freshkeep.Decimal{}.String())
	assert.Equal(t, "-3.0001", freshkeep.NewDecimalFromIntFrac(-3, 1).String())
	// 1.00005 is 1.0000499... as a float64 but rounds from its shortest decimal form.
	assert.Equal(t, "1.0001", fromFloat(t, 1.00005).String())
	assert.Equal(t, "-1.0001", fromFloat(t, -1.00005).String())
}

func TestDecimalArithmetic(t *testing.T) {
	a := fromFloat(t, 907.184)
	b := fromFloat(t, 907.184)
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "1814.3680", sum.String())
	diff, err := sum.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, 0, diff.Cmp(b))
	neg, err := a.Sub(sum)
	require.NoError(t, err)
	assert.Equal(t, -1, neg.Sign())
	assert.Equal(t, 1, sum.Cmp(a))
	assert.Equal(t, -1, a.Cmp(sum))
	assert.InDelta(t, 1814.368, sum.Float64(), 1e-9)

	i, f := sum.IntFrac()
	assert.Equal(t, int64(1814), i)
	assert.Equal(t, int64(3680), f)
}

func TestDecimalOverflow(t *testing.T) {
	// 2e15 scaled by 10^4 is past the int64 range.
	for _, f := range []float64{2e15, -2e15, 2e18, math.Inf(1), math.NaN()} {
		_, err := freshkeep.NewDecimalFromFloat(f)
		assert.ErrorIs(t, err, freshkeep.ErrNumericOverflow, f)
	}
	_, err := freshkeep.NewDecimalFromFloat(9e14)
	assert.NoError(t, err)

	max := freshkeep.NewDecimal(math.MaxInt64)
	min := freshkeep.NewDecimal(math.MinInt64)
	one := freshkeep.NewDecimal(1)

	_, err = max.Add(one)
	assert.ErrorIs(t, err, freshkeep.ErrNumericOverflow)
	_, err = min.Sub(one)
	assert.ErrorIs(t, err, freshkeep.ErrNumericOverflow)
	_, err = min.Add(freshkeep.NewDecimal(-1))
	assert.ErrorIs(t, err, freshkeep.ErrNumericOverflow)
	_, err = max.Sub(freshkeep.NewDecimal(-1))
	assert.ErrorIs(t, err, freshkeep.ErrNumericOverflow)

	got, err := max.Sub(one)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), got.Data)
	assert.Equal(t, 1, max.Cmp(min))
}

func TestDecimalSQL(t *testing.T) {
	d := freshkeep.NewDecimal(12345)
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), v)

	var got freshkeep.Decimal
	require.NoError(t, got.Scan(int64(12345)))
	assert.Equal(t, d, got)
	require.NoError(t, got.Scan(nil))
	assert.Zero(t, got.Data)
	assert.Error(t, got.Scan("12"))
}
