package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func testSegmentRules() SegmentRules {
	r := DefaultSegmentRules()
	r.Now = func() time.Time { return fixedNow }
	return r
}

func ago(d time.Duration) *time.Time {
	t := fixedNow.Add(-d)
	return &t
}

func TestNewSegment(t *testing.T) {
	r := testSegmentRules()

	assert.True(t, r.Member(models.Player{CreatedAt: ago(2 * 24 * time.Hour)}, SegmentNew))
	assert.False(t, r.Member(models.Player{CreatedAt: ago(10 * 24 * time.Hour)}, SegmentNew))
	assert.False(t, r.Member(models.Player{}, SegmentNew))
}

func TestChurnRiskUnknownTimestampExcluded(t *testing.T) {
	r := testSegmentRules()

	assert.True(t, r.Member(models.Player{LastLogin: ago(15 * 24 * time.Hour)}, SegmentChurnRisk))
	assert.False(t, r.Member(models.Player{LastLogin: ago(3 * 24 * time.Hour)}, SegmentChurnRisk))
	assert.NotPanics(t, func() {
		assert.False(t, r.Member(models.Player{}, SegmentChurnRisk))
	})
}

func TestSegmentsAreNotExclusive(t *testing.T) {
	r := testSegmentRules()
	p := models.Player{
		TotalWagered:      5000,
		TotalDepositedUSD: decimal.NewFromFloat(12.5),
		CreatedAt:         ago(time.Hour),
		LastLogin:         ago(time.Hour),
	}

	assert.Equal(t, []Segment{SegmentVIP, SegmentDepositors, SegmentNew}, r.Segments(p))
	assert.True(t, r.Member(p, SegmentAll))
}

func TestParseSegment(t *testing.T) {
	s, err := ParseSegment("")
	assert.NoError(t, err)
	assert.Equal(t, SegmentAll, s)

	s, err = ParseSegment("churn_risk")
	assert.NoError(t, err)
	assert.Equal(t, "Churn Risk", s.Label())

	_, err = ParseSegment("whales")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestFilter(t *testing.T) {
	r := testSegmentRules()
	players := []models.Player{
		{UserID: 1, TotalDepositedUSD: decimal.NewFromInt(5)},
		{UserID: 2},
	}

	out := r.Filter(players, SegmentDepositors)
	assert.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].UserID)
	assert.Len(t, r.Filter(players, SegmentAll), 2)
}
