package loancalc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationFor(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected int
	}{
		{"small loan one month", decimal.NewFromInt(1500), 1},
		{"boundary stays one month", decimal.NewFromInt(2000), 1},
		{"just over two month boundary", decimal.NewFromInt(2001), 2},
		{"mid tier three months", decimal.NewFromInt(6000), 3},
		{"boundary stays three months", decimal.NewFromInt(20000), 3},
		{"large loan four months", decimal.NewFromInt(25000), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DurationFor(tt.amount))
		})
	}
}

func TestCalculate_DecliningBalance(t *testing.T) {
	// K6000 over 3 months: equal principal of 2000, interest at 10% of the
	// remaining balance each month.
	result := Calculate(decimal.NewFromInt(6000), 0)

	require.Equal(t, 3, result.Duration)
	require.Len(t, result.Schedule, 3)

	first := result.Schedule[0]
	assert.True(t, first.Principal.Equal(decimal.NewFromInt(2000)), "principal %s", first.Principal)
	assert.True(t, first.Interest.Equal(decimal.NewFromInt(600)), "interest %s", first.Interest)
	assert.True(t, first.Total.Equal(decimal.NewFromInt(2600)), "total %s", first.Total)

	assert.True(t, result.Schedule[1].Interest.Equal(decimal.NewFromInt(400)))
	assert.True(t, result.Schedule[2].Interest.Equal(decimal.NewFromInt(200)))

	// Interest strictly declines month over month.
	for i := 1; i < len(result.Schedule); i++ {
		assert.True(t, result.Schedule[i].Interest.LessThan(result.Schedule[i-1].Interest))
	}
}

func TestCalculate_PrincipalConservation(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.NewFromInt(1000),
		decimal.NewFromInt(2500),
		decimal.NewFromFloat(7777.77),
		decimal.NewFromInt(50000),
	}

	for _, amount := range amounts {
		result := Calculate(amount, 0)

		principalSum := decimal.Zero
		for _, entry := range result.Schedule {
			principalSum = principalSum.Add(entry.Principal)
			assert.True(t, entry.Total.Equal(entry.Principal.Add(entry.Interest)))
		}

		// Equal-installment rounding may leave at most a cent per month.
		drift := principalSum.Sub(amount).Abs()
		tolerance := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(result.Duration)))
		assert.True(t, drift.LessThanOrEqual(tolerance),
			"principal sum %s drifts %s from %s", principalSum, drift, amount)
	}
}

func TestCalculate_DurationOverride(t *testing.T) {
	result := Calculate(decimal.NewFromInt(6000), 6)

	assert.Equal(t, 6, result.Duration)
	assert.Len(t, result.Schedule, 6)
	assert.True(t, result.Schedule[0].Principal.Equal(decimal.NewFromInt(1000)))
}

func TestDueDate(t *testing.T) {
	createdAt := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), DueDate(createdAt, 1))
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), DueDate(createdAt, 3))
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), TermEnd(createdAt, 3))
}
