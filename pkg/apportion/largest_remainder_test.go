package apportion

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vs))
	for i, v := range vs {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestLargestRemainder_CapacityWeights(t *testing.T) {
	parts, err := LargestRemainder(ints(1200, 1150, 1100, 1050), 1000)
	require.NoError(t, err)
	// Floors 266/255/244/233 leave 2 units; the two largest remainders win.
	require.Equal(t, []int64{267, 256, 244, 233}, parts)
}

func TestLargestRemainder_TiesGoToEarlierEntries(t *testing.T) {
	parts, err := LargestRemainder(ints(1, 1, 1), 2)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 1, 0}, parts)

	parts, err = LargestRemainder(ints(1, 1, 1), 10)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 3, 3}, parts)
}

func TestLargestRemainder_ZeroWeightEntriesGetNothing(t *testing.T) {
	parts, err := LargestRemainder(ints(0, 3, 0, 1), 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), parts[0])
	require.Equal(t, int64(0), parts[2])
	require.Equal(t, int64(7), parts[1]+parts[3])
}

func TestLargestRemainder_FractionalWeights(t *testing.T) {
	weights := []decimal.Decimal{
		decimal.RequireFromString("0.1"),
		decimal.RequireFromString("0.2"),
		decimal.RequireFromString("0.7"),
	}
	parts, err := LargestRemainder(weights, 3)
	require.NoError(t, err)
	// Exact shares 0.3 / 0.6 / 2.1.
	require.Equal(t, []int64{0, 1, 2}, parts)
}

func TestLargestRemainder_Degenerate(t *testing.T) {
	_, err := LargestRemainder(ints(0, 0, 0, 0), 1000)
	require.ErrorIs(t, err, ErrZeroWeight)

	_, err = LargestRemainder(nil, 10)
	require.ErrorIs(t, err, ErrZeroWeight)
}

func TestLargestRemainder_InvalidInput(t *testing.T) {
	_, err := LargestRemainder(ints(1, 2), -1)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = LargestRemainder(ints(1, -2), 5)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLargestRemainder_ZeroPool(t *testing.T) {
	parts, err := LargestRemainder(ints(5, 6), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 0}, parts)
}

func TestLargestRemainder_ExactSumAndBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(12)
		weights := make([]decimal.Decimal, n)
		total := decimal.Zero
		for i := range weights {
			weights[i] = decimal.New(rng.Int63n(1_000_000), -int32(rng.Intn(3)))
			total = total.Add(weights[i])
		}
		if total.IsZero() {
			weights[0] = decimal.NewFromInt(1)
			total = decimal.NewFromInt(1)
		}
		pool := rng.Int63n(1_000_000)

		parts, err := LargestRemainder(weights, pool)
		require.NoError(t, err)

		var sum int64
		for i, part := range parts {
			sum += part
			// |part - pool*w/total| < 1  <=>  |part*total - pool*w| < total
			diff := decimal.NewFromInt(part).Mul(total).Sub(decimal.NewFromInt(pool).Mul(weights[i])).Abs()
			require.True(t, diff.LessThan(total), "part %d=%d is not within 1 of its share", i, part)
		}
		require.Equal(t, pool, sum)
	}
}

func TestExactShare(t *testing.T) {
	share, err := ExactShare(ints(1200, 1150, 1100, 1050), 0, 1000, 1)
	require.NoError(t, err)
	require.Equal(t, "266.7", share.String())

	_, err = ExactShare(ints(0, 0), 0, 10, 1)
	require.ErrorIs(t, err, ErrZeroWeight)

	_, err = ExactShare(ints(1), 3, 10, 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}
