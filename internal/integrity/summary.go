package integrity

import (
	"sort"

	"github.com/valschmidt/kmall/internal/kmall"
)

// TagCount is the per-kind tally of one file's index.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
	Bytes int64  `json:"bytes"`
}

// TagSummary tallies the index by datagram kind, largest byte share
// first. Pure index arithmetic; no record body is read.
func TagSummary(idx *kmall.FileIndex) []TagCount {
	byTag := make(map[string]*TagCount)
	for _, e := range idx.Entries {
		t := byTag[e.Tag]
		if t == nil {
			t = &TagCount{Tag: e.Tag}
			byTag[e.Tag] = t
		}
		t.Count++
		t.Bytes += int64(e.Size)
	}
	out := make([]TagCount, 0, len(byTag))
	for _, t := range byTag {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// AttitudeSample is one flattened motion sample drawn from the attitude
// record stream.
type AttitudeSample struct {
	Time       float64
	RollDeg    float64
	PitchDeg   float64
	HeadingDeg float64
	HeaveM     float64
}

// ExtractAttitude decodes every attitude record and flattens the sensor
// sample batches into one time series. Records that fail to decode are
// skipped; the count of such records is returned alongside the series.
func ExtractAttitude(s *kmall.Session) ([]AttitudeSample, int, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, 0, err
	}
	var out []AttitudeSample
	decodeErrors := 0
	for _, e := range idx.Entries {
		if e.Tag != kmall.TagSKM {
			continue
		}
		d, err := s.Decode(e)
		if err != nil {
			decodeErrors++
			continue
		}
		skm, ok := d.(*kmall.SKM)
		if !ok {
			decodeErrors++
			continue
		}
		for _, sm := range skm.Samples {
			out = append(out, AttitudeSample{
				Time:       sm.KMB.Time(),
				RollDeg:    float64(sm.KMB.RollDeg),
				PitchDeg:   float64(sm.KMB.PitchDeg),
				HeadingDeg: float64(sm.KMB.HeadingDeg),
				HeaveM:     float64(sm.KMB.HeaveM),
			})
		}
	}
	return out, decodeErrors, nil
}
