package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testIndex() *Index {
	return BuildIndex([]models.Customer{
		{ExternalID: 10, Name: "Barbu Carmen", Phone: strptr("0744123456")},
		{ExternalID: 11, Name: "Gheorghiu Doină"},
		{ExternalID: 12, Name: "Croitoru Ion"},
	})
}

func TestMatcherFallbackOrder(t *testing.T) {
	m := NewMatcher()
	ix := testIndex()

	t.Run("exact raw name wins first", func(t *testing.T) {
		c, strategy, ok := m.Match(models.OrderRow{Name: "Barbu Carmen"}, ix)
		require.True(t, ok)
		assert.Equal(t, int64(10), c.ExternalID)
		assert.Equal(t, "raw_name", strategy)
	})

	t.Run("reversed name falls to variations", func(t *testing.T) {
		c, strategy, ok := m.Match(models.OrderRow{Name: "Carmen Barbu"}, ix)
		require.True(t, ok)
		assert.Equal(t, int64(10), c.ExternalID)
		assert.Equal(t, "name_variations", strategy)
	})

	t.Run("diacritic free input matches", func(t *testing.T) {
		c, _, ok := m.Match(models.OrderRow{Name: "Gheorghiu Doina"}, ix)
		require.True(t, ok)
		assert.Equal(t, int64(11), c.ExternalID)
	})

	t.Run("translated surname matches via dictionary", func(t *testing.T) {
		c, _, ok := m.Match(models.OrderRow{Name: "Tailor Ion"}, ix)
		require.True(t, ok)
		assert.Equal(t, int64(12), c.ExternalID)
	})

	t.Run("phone suffix rescues a failed name match", func(t *testing.T) {
		row := models.OrderRow{Name: "Unrecognizable Entry", Phone: strptr("+40744123456")}
		c, strategy, ok := m.Match(row, ix)
		require.True(t, ok)
		assert.Equal(t, int64(10), c.ExternalID)
		assert.Equal(t, "phone_suffix", strategy)
	})

	t.Run("no match is a valid outcome", func(t *testing.T) {
		c, strategy, ok := m.Match(models.OrderRow{Name: "Total Stranger"}, ix)
		assert.False(t, ok)
		assert.Nil(t, c)
		assert.Empty(t, strategy)
	})
}

func TestStrategiesIndependently(t *testing.T) {
	ix := testIndex()

	t.Run("raw name only exact", func(t *testing.T) {
		assert.Nil(t, MatchRawName(models.OrderRow{Name: "barbu carmen"}, ix))
		assert.NotNil(t, MatchRawName(models.OrderRow{Name: "Barbu Carmen"}, ix))
	})

	t.Run("variations ignores phone", func(t *testing.T) {
		row := models.OrderRow{Name: "no such person", Phone: strptr("0744123456")}
		assert.Nil(t, MatchNameVariations(row, ix))
	})

	t.Run("phone strategy requires a phone", func(t *testing.T) {
		assert.Nil(t, MatchPhoneSuffix(models.OrderRow{Name: "Barbu Carmen"}, ix))
	})

	t.Run("country code prefix is ignored", func(t *testing.T) {
		row := models.OrderRow{Name: "x", Phone: strptr("0040 744 123 456")}
		c := MatchPhoneSuffix(row, ix)
		require.NotNil(t, c)
		assert.Equal(t, int64(10), c.ExternalID)
	})
}
