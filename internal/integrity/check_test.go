package integrity

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valschmidt/kmall/internal/kmall"
)

// mrzStub builds a minimal depth/range record: header, partition and the
// common body, enough for the ping-completeness walk.
func mrzStub(timeSec uint32, pingCnt uint16, fansPerPing, fanIndex uint8) []byte {
	body := make([]byte, 16)
	binary.LittleEndian.PutUint16(body[0:2], 1)  // numOfDgms
	binary.LittleEndian.PutUint16(body[2:4], 1)  // dgmNum
	binary.LittleEndian.PutUint16(body[4:6], 12) // numBytesCmnPart
	binary.LittleEndian.PutUint16(body[6:8], pingCnt)
	body[8] = fansPerPing
	body[9] = fanIndex
	return encodeRecord(kmall.TagMRZ, timeSec, body)
}

func navStub(tag string, timeSec, timeNanosec uint32) []byte {
	return encodeRecordNanos(tag, timeSec, timeNanosec, make([]byte, 24))
}

func encodeRecord(tag string, timeSec uint32, body []byte) []byte {
	return encodeRecordNanos(tag, timeSec, 0, body)
}

func encodeRecordNanos(tag string, timeSec, timeNanosec uint32, body []byte) []byte {
	total := uint32(kmall.MinDgmSize + len(body))
	buf := make([]byte, 0, total)
	buf = binary.LittleEndian.AppendUint32(buf, total)
	buf = append(buf, tag...)
	buf = append(buf, 1, 0)                            // version, system id
	buf = binary.LittleEndian.AppendUint16(buf, 2040)  // echo sounder id
	buf = binary.LittleEndian.AppendUint32(buf, timeSec)
	buf = binary.LittleEndian.AppendUint32(buf, timeNanosec)
	buf = append(buf, body...)
	buf = binary.LittleEndian.AppendUint32(buf, total)
	return buf
}

func openTestFile(t *testing.T, chunks ...[]byte) *kmall.Session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "line.kmall")
	var all []byte
	for _, c := range chunks {
		all = append(all, c...)
	}
	require.NoError(t, os.WriteFile(path, all, 0o644))
	s, err := kmall.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCheckPingCountMissingPingAndFan(t *testing.T) {
	// Counters 10 (both fans), 12 (fan 0 of 2 only); counter 11 absent.
	s := openTestFile(t,
		mrzStub(100, 10, 2, 0),
		mrzStub(100, 10, 2, 1),
		mrzStub(102, 12, 2, 0),
	)
	rep, err := CheckPingCount(s)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TotalPings)
	assert.Equal(t, 3, rep.ExpectedPings)
	assert.Equal(t, 1, rep.PingsMissed)
	assert.Equal(t, 1, rep.MissingMRZRecords)
	assert.Equal(t, 0, rep.DecodeErrors)
}

func TestCheckPingCountComplete(t *testing.T) {
	s := openTestFile(t,
		mrzStub(100, 5, 1, 0),
		mrzStub(101, 6, 1, 0),
		mrzStub(102, 7, 1, 0),
	)
	rep, err := CheckPingCount(s)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TotalPings)
	assert.Equal(t, 0, rep.PingsMissed)
	assert.Equal(t, 0, rep.MissingMRZRecords)
	assert.InDelta(t, 100.0, rep.PercentComplete, 1e-9)
}

func TestCheckPingCountNoPings(t *testing.T) {
	s := openTestFile(t, navStub(kmall.TagSPO, 100, 0))
	rep, err := CheckPingCount(s)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalPings)
	assert.Equal(t, 0, rep.PingsMissed)
}

func TestCheckNavigationGaps(t *testing.T) {
	// Steady 2 Hz stream with one 3-second dropout.
	s := openTestFile(t,
		navStub(kmall.TagSKM, 100, 0),
		navStub(kmall.TagSKM, 100, 500000000),
		navStub(kmall.TagSKM, 101, 0),
		navStub(kmall.TagSKM, 104, 0),
		navStub(kmall.TagSKM, 104, 500000000),
	)
	rep, err := CheckNavigationGaps(s, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Samples)
	assert.Equal(t, 1, rep.GapsOverThreshold)
	assert.InDelta(t, 0.5, rep.MinGapSec, 1e-9)
	assert.InDelta(t, 3.0, rep.MaxGapSec, 1e-9)
	assert.InDelta(t, 1.125, rep.MeanGapSec, 1e-9)
	assert.InDelta(t, 1/1.125, rep.MeanFreqHz, 1e-9)
}

func TestCheckNavigationGapsInclusiveThreshold(t *testing.T) {
	// Deltas of 0.5 s and 2 s against a 0.5 s threshold: the exact
	// match counts too.
	s := openTestFile(t,
		navStub(kmall.TagSPO, 200, 0),
		navStub(kmall.TagSPO, 200, 500000000),
		navStub(kmall.TagSPO, 202, 500000000),
	)
	rep, err := CheckNavigationGaps(s, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.GapsOverThreshold)
	assert.InDelta(t, 0.5, rep.MinGapSec, 1e-9)
}

func TestCheckNavigationGapsTooFewSamples(t *testing.T) {
	s := openTestFile(t, navStub(kmall.TagSPO, 100, 0))
	_, err := CheckNavigationGaps(s, 0)
	assert.Error(t, err)
}

func TestTagSummary(t *testing.T) {
	s := openTestFile(t,
		mrzStub(100, 1, 1, 0),
		mrzStub(101, 2, 1, 0),
		navStub(kmall.TagSPO, 100, 0),
	)
	idx, err := s.Index()
	require.NoError(t, err)

	tags := TagSummary(idx)
	require.Len(t, tags, 2)
	assert.Equal(t, kmall.TagMRZ, tags[0].Tag)
	assert.Equal(t, 2, tags[0].Count)
	assert.Equal(t, kmall.TagSPO, tags[1].Tag)
	assert.Equal(t, 1, tags[1].Count)
}

func TestEvaluate(t *testing.T) {
	s := openTestFile(t,
		mrzStub(100, 10, 2, 0),
		mrzStub(100, 10, 2, 1),
		mrzStub(102, 12, 2, 0),
		navStub(kmall.TagSKM, 100, 0),
		navStub(kmall.TagSKM, 100, 500000000),
		navStub(kmall.TagSKM, 104, 0),
	)
	rep, err := Evaluate(s, EvalOptions{})
	require.NoError(t, err)

	assert.False(t, rep.Summary.Pass)
	assert.Equal(t, 1, rep.Ping.PingsMissed)
	assert.Equal(t, 1, rep.Ping.MissingMRZRecords)
	assert.Equal(t, 1, rep.Nav.GapsOverThreshold)
	assert.NotEmpty(t, rep.Tags)
	assert.Equal(t, rep.Summary.Errors+rep.Summary.Warnings, rep.Summary.Total)
}

func TestWriteDiagnosticsNDJSON(t *testing.T) {
	s := openTestFile(t, mrzStub(100, 10, 2, 0), mrzStub(102, 12, 2, 0))
	rep, err := Evaluate(s, EvalOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, rep.Findings)

	out := filepath.Join(t.TempDir(), "diag.ndjson")
	require.NoError(t, WriteDiagnosticsNDJSON(out, rep.Findings))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := 0
	for _, b := range raw {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, len(rep.Findings), lines)
}
