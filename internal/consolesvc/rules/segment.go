package rules

import (
	"fmt"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/models"
)

type Segment string

const (
	SegmentAll        Segment = "all"
	SegmentVIP        Segment = "vip"
	SegmentDepositors Segment = "depositors"
	SegmentNew        Segment = "new"
	SegmentChurnRisk  Segment = "churn_risk"
)

var segmentLabels = map[Segment]string{
	SegmentAll:        "All Players",
	SegmentVIP:        "VIP Players",
	SegmentDepositors: "Depositors",
	SegmentNew:        "New Players",
	SegmentChurnRisk:  "Churn Risk",
}

// AllSegments lists segments in display order.
var AllSegments = []Segment{SegmentAll, SegmentVIP, SegmentDepositors, SegmentNew, SegmentChurnRisk}

func (s Segment) Label() string {
	return segmentLabels[s]
}

// ParseSegment maps an identifier to a segment. The empty string means all.
func ParseSegment(v string) (Segment, error) {
	if v == "" {
		return SegmentAll, nil
	}
	s := Segment(v)
	if _, ok := segmentLabels[s]; !ok {
		return "", fmt.Errorf("%w: unknown segment %q", ErrValidation, v)
	}
	return s, nil
}

type SegmentRules struct {
	VIPWagerThreshold float64
	NewPlayerWindow   time.Duration
	ChurnWindow       time.Duration
	Now               func() time.Time
}

func DefaultSegmentRules() SegmentRules {
	return SegmentRules{
		VIPWagerThreshold: 5000,
		NewPlayerWindow:   7 * 24 * time.Hour,
		ChurnWindow:       14 * 24 * time.Hour,
		Now:               time.Now,
	}
}

func (r SegmentRules) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Member reports whether p belongs to s. A player whose timestamp is
// missing is never a member of a time based segment.
func (r SegmentRules) Member(p models.Player, s Segment) bool {
	switch s {
	case SegmentAll:
		return true
	case SegmentVIP:
		return p.TotalWagered >= r.VIPWagerThreshold
	case SegmentDepositors:
		return p.TotalDepositedUSD.IsPositive()
	case SegmentNew:
		if p.CreatedAt == nil {
			return false
		}
		return r.now().Sub(*p.CreatedAt) <= r.NewPlayerWindow
	case SegmentChurnRisk:
		if p.LastLogin == nil {
			return false
		}
		return r.now().Sub(*p.LastLogin) > r.ChurnWindow
	}
	return false
}

// Segments returns every segment p belongs to besides all.
func (r SegmentRules) Segments(p models.Player) []Segment {
	var out []Segment
	for _, s := range AllSegments {
		if s == SegmentAll {
			continue
		}
		if r.Member(p, s) {
			out = append(out, s)
		}
	}
	return out
}

func (r SegmentRules) Filter(players []models.Player, s Segment) []models.Player {
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		if r.Member(p, s) {
			out = append(out, p)
		}
	}
	return out
}
