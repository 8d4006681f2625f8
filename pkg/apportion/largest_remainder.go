// Package apportion splits an integer pool across weighted shares so that the
// parts sum to the pool exactly.
package apportion

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput = errors.New("apportion: invalid input")
	// ErrZeroWeight means no share has positive weight, so nothing can be
	// apportioned. It is not the same outcome as every part being 0.
	ErrZeroWeight = errors.New("apportion: total weight is zero")
)

// LargestRemainder apportions pool across weights: every part gets the floor
// of its exact share pool*w/Σw, and the leftover units go one each to the
// parts with the largest fractional remainders, earlier parts first on ties.
//
// Arithmetic is exact, so the parts always sum to pool and each part is
// within 1 of its exact share.
func LargestRemainder(weights []decimal.Decimal, pool int64) ([]int64, error) {
	if pool < 0 {
		return nil, fmt.Errorf("%w: pool %d is negative", ErrInvalidInput, pool)
	}
	total := decimal.Zero
	for i, w := range weights {
		if w.IsNegative() {
			return nil, fmt.Errorf("%w: weight %d is negative (%s)", ErrInvalidInput, i, w)
		}
		total = total.Add(w)
	}
	if total.IsZero() {
		return nil, ErrZeroWeight
	}

	p := decimal.NewFromInt(pool)
	parts := make([]int64, len(weights))
	remainders := make([]decimal.Decimal, len(weights))
	var assigned int64
	for i, w := range weights {
		q, r := p.Mul(w).QuoRem(total, 0)
		parts[i] = q.IntPart()
		remainders[i] = r
		assigned += parts[i]
	}

	leftover := pool - assigned
	if leftover == 0 {
		return parts, nil
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})
	for _, i := range order[:leftover] {
		parts[i]++
	}
	return parts, nil
}

// ExactShare is pool*w/Σw rounded to places decimal places, for display and
// for checking results.
func ExactShare(weights []decimal.Decimal, i int, pool int64, places int32) (decimal.Decimal, error) {
	if i < 0 || i >= len(weights) {
		return decimal.Zero, fmt.Errorf("%w: index %d out of range", ErrInvalidInput, i)
	}
	total := decimal.Sum(decimal.Zero, weights...)
	if total.IsZero() {
		return decimal.Zero, ErrZeroWeight
	}
	return decimal.NewFromInt(pool).Mul(weights[i]).DivRound(total, places), nil
}
