// Package integrity runs read-only quality checks over an indexed
// datagram file: ping completeness against the multi-fan ping model and
// timing continuity of the navigation sensor stream.
package integrity

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/valschmidt/kmall/internal/kmall"
)

// DefaultGapThresholdSec flags navigation gaps of one second or more.
const DefaultGapThresholdSec = 1.0

// PingReport summarizes the ping-completeness check. TotalPings counts
// distinct ping counters observed; PingsMissed counts counters absent
// from the observed range; MissingMRZRecords counts receive fans that
// never arrived for pings that did.
type PingReport struct {
	File              string  `json:"file"`
	TotalPings        int     `json:"totalPings"`
	ExpectedPings     int     `json:"expectedPings"`
	PingsMissed       int     `json:"pingsMissed"`
	MissingMRZRecords int     `json:"missingMrzRecords"`
	DecodeErrors      int     `json:"decodeErrors"`
	FirstCounter      uint16  `json:"firstCounter"`
	LastCounter       uint16  `json:"lastCounter"`
	PercentComplete   float64 `json:"percentComplete"`
}

// NavigationReport summarizes inter-sample timing of the navigation
// bearing records (attitude, position, compatibility position, clock).
type NavigationReport struct {
	File              string  `json:"file"`
	Samples           int     `json:"samples"`
	MinGapSec         float64 `json:"minGapSec"`
	MaxGapSec         float64 `json:"maxGapSec"`
	MeanGapSec        float64 `json:"meanGapSec"`
	StdDevSec         float64 `json:"stdDevSec"`
	MeanFreqHz        float64 `json:"meanFreqHz"`
	ThresholdSec      float64 `json:"thresholdSec"`
	GapsOverThreshold int     `json:"gapsOverThreshold"`
}

// fanGroup tracks one ping counter's worth of depth/range records.
type fanGroup struct {
	fansExpected int
	fansSeen     map[uint8]struct{}
}

// CheckPingCount walks every depth/range entry in the index, decoding
// only the ping-info prefix of each record. Malformed records count as
// decode errors and are skipped; the scan never aborts.
func CheckPingCount(s *kmall.Session) (PingReport, error) {
	rep := PingReport{File: s.Path()}
	idx, err := s.Index()
	if err != nil {
		return rep, err
	}
	groups := make(map[uint16]*fanGroup)
	for _, e := range idx.Entries {
		if e.Tag != kmall.TagMRZ {
			continue
		}
		buf, err := s.ReadRecordPrefix(e, kmall.PingSummarySize)
		if err != nil {
			rep.DecodeErrors++
			continue
		}
		ps, err := kmall.DecodePingSummary(buf)
		if err != nil {
			rep.DecodeErrors++
			continue
		}
		g := groups[ps.PingCnt]
		if g == nil {
			g = &fanGroup{fansSeen: make(map[uint8]struct{})}
			groups[ps.PingCnt] = g
		}
		if int(ps.RxFansPerPing) > g.fansExpected {
			g.fansExpected = int(ps.RxFansPerPing)
		}
		g.fansSeen[ps.RxFanIndex] = struct{}{}
	}
	if len(groups) == 0 {
		return rep, nil
	}

	counters := make([]int, 0, len(groups))
	for c := range groups {
		counters = append(counters, int(c))
	}
	sort.Ints(counters)
	rep.FirstCounter = uint16(counters[0])
	rep.LastCounter = uint16(counters[len(counters)-1])
	rep.TotalPings = len(counters)
	rep.ExpectedPings = counters[len(counters)-1] - counters[0] + 1
	rep.PingsMissed = rep.ExpectedPings - rep.TotalPings

	for _, g := range groups {
		if missing := g.fansExpected - len(g.fansSeen); missing > 0 {
			rep.MissingMRZRecords += missing
		}
	}
	if rep.ExpectedPings > 0 {
		rep.PercentComplete = 100 * float64(rep.TotalPings) / float64(rep.ExpectedPings)
	}
	return rep, nil
}

// navTags are the datagram kinds that carry navigation timing.
var navTags = map[string]struct{}{
	kmall.TagSKM: {},
	kmall.TagSPO: {},
	kmall.TagCPO: {},
	kmall.TagSCL: {},
}

// CheckNavigationGaps computes consecutive time deltas over the
// navigation bearing entries in offset order. Timestamps come from the
// index alone; no record body is read. threshold <= 0 selects the
// default of one second. The boundary is inclusive: a delta exactly
// equal to the threshold counts as a gap.
func CheckNavigationGaps(s *kmall.Session, threshold float64) (NavigationReport, error) {
	if threshold <= 0 {
		threshold = DefaultGapThresholdSec
	}
	rep := NavigationReport{File: s.Path(), ThresholdSec: threshold}
	idx, err := s.Index()
	if err != nil {
		return rep, err
	}
	var times []float64
	for _, e := range idx.Entries {
		if _, ok := navTags[e.Tag]; ok {
			times = append(times, e.Time)
		}
	}
	rep.Samples = len(times)
	if len(times) < 2 {
		return rep, errors.New("fewer than two navigation samples")
	}

	deltas := make([]float64, 0, len(times)-1)
	rep.MinGapSec = math.Inf(1)
	for i := 1; i < len(times); i++ {
		d := times[i] - times[i-1]
		deltas = append(deltas, d)
		if d < rep.MinGapSec {
			rep.MinGapSec = d
		}
		if d > rep.MaxGapSec {
			rep.MaxGapSec = d
		}
		if d >= threshold {
			rep.GapsOverThreshold++
		}
	}
	rep.MeanGapSec = stat.Mean(deltas, nil)
	rep.StdDevSec = stat.StdDev(deltas, nil)
	if rep.MeanGapSec > 0 {
		rep.MeanFreqHz = 1 / rep.MeanGapSec
	}
	return rep, nil
}
