package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func daysAgo(now time.Time, d int) *time.Time {
	t := now.AddDate(0, 0, -d)
	return &t
}

func TestValueTierThresholds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := daysAgo(now, 10)

	tests := []struct {
		name       string
		totalSpent float64
		orderCount int
		expected   models.ValueTier
	}{
		{"platinum boundary", 1000, 3, models.ValueTierVIPPlatinum},
		{"platinum needs both conditions", 1000, 2, models.ValueTierVIPGold},
		{"gold by spend", 999, 3, models.ValueTierVIPGold},
		{"gold by order count alone", 100, 5, models.ValueTierVIPGold},
		{"high value", 300, 1, models.ValueTierHighValue},
		{"just below gold spend with few orders", 499, 3, models.ValueTierHighValue},
		{"medium", 150, 1, models.ValueTierMedium},
		{"low", 149.99, 1, models.ValueTierLow},
		{"zero", 0, 0, models.ValueTierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.totalSpent, tt.orderCount, recent, now)
			assert.Equal(t, tt.expected, r.ValueTier)
		})
	}
}

func TestRecencyTierThresholds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		days     int
		expected models.RecencyTier
	}{
		{0, models.RecencyTierActive},
		{90, models.RecencyTierActive},
		{91, models.RecencyTierWarm},
		{180, models.RecencyTierWarm},
		{181, models.RecencyTierCooling},
		{365, models.RecencyTierCooling},
		{366, models.RecencyTierDormant},
		{730, models.RecencyTierDormant},
		{731, models.RecencyTierLost},
	}

	for _, tt := range tests {
		r := Classify(500, 1, daysAgo(now, tt.days), now)
		assert.Equal(t, tt.expected, r.RecencyTier, "days=%d", tt.days)
	}

	t.Run("missing last order is lost", func(t *testing.T) {
		r := Classify(500, 1, nil, now)
		assert.Equal(t, models.RecencyTierLost, r.RecencyTier)
		assert.Nil(t, r.DaysSinceOrder)
	})
}

func TestLapsedHighValue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("high value and cold", func(t *testing.T) {
		r := Classify(1200, 4, daysAgo(now, 200), now)
		assert.True(t, r.IsLapsedHighValue)
	})

	t.Run("high value but warm", func(t *testing.T) {
		r := Classify(1200, 4, daysAgo(now, 180), now)
		assert.False(t, r.IsLapsedHighValue)
	})

	t.Run("cold but low value", func(t *testing.T) {
		r := Classify(50, 1, daysAgo(now, 400), now)
		assert.False(t, r.IsLapsedHighValue)
	})

	t.Run("high value with no last order", func(t *testing.T) {
		r := Classify(800, 2, nil, now)
		assert.True(t, r.IsLapsedHighValue)
	})
}

func TestIsRepeat(t *testing.T) {
	now := time.Now()
	assert.False(t, Classify(100, 1, nil, now).IsRepeat)
	assert.True(t, Classify(100, 2, nil, now).IsRepeat)
}

func TestClassifyIsDeterministicAndMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := daysAgo(now, 45)

	a := Classify(350, 2, last, now)
	b := Classify(350, 2, last, now)
	assert.Equal(t, a, b)

	later := Classify(350, 2, last, now.AddDate(0, 0, 30))
	require.NotNil(t, a.DaysSinceOrder)
	require.NotNil(t, later.DaysSinceOrder)
	assert.Greater(t, *later.DaysSinceOrder, *a.DaysSinceOrder)
}

func TestApplyOverwritesStoredTiers(t *testing.T) {
	now := time.Now()
	c := models.Customer{
		ValueTier:         models.ValueTierVIPPlatinum,
		RecencyTier:       models.RecencyTierActive,
		IsLapsedHighValue: true,
	}

	Apply(&c, Classify(10, 1, nil, now))

	assert.Equal(t, models.ValueTierLow, c.ValueTier)
	assert.Equal(t, models.RecencyTierLost, c.RecencyTier)
	assert.False(t, c.IsLapsedHighValue)
	assert.False(t, c.IsRepeat)
}
