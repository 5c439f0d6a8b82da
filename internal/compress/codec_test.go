package compress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valschmidt/kmall/internal/kmall"
)

func testHeader(tag string, timeSec uint32) kmall.Header {
	var h kmall.Header
	copy(h.DgmType[:], tag)
	h.DgmVersion = 1
	h.EchoSounderID = 2040
	h.TimeSec = timeSec
	h.TimeNanosec = 250000000
	return h
}

func testMRZ(pingCnt uint16) *kmall.MRZ {
	d := &kmall.MRZ{Header: testHeader(kmall.TagMRZ, 1600000000+uint32(pingCnt))}
	d.Partition = kmall.Partition{NumOfDgms: 1, DgmNum: 1}
	d.CmnPart = kmall.MBody{
		NumBytesCmnPart: 12,
		PingCnt:         pingCnt,
		RxFansPerPing:   1,
	}
	d.PingInfo = kmall.MRZPingInfo{
		NumBytesInfoData:         144,
		PingRateHz:               2.0,
		NumTxSectors:             1,
		NumBytesPerTxSector:      36,
		HeadingVesselDeg:         123.456,
		SoundSpeedAtTxDepthMPerS: 1502.375,
		TxTransducerDepthM:       6.125,
		LatitudeDeg:              42.94584321,
		LongitudeDeg:             -70.12345678,
		EllipsoidHeightReRefPtM:  -31.75,
	}
	d.TxSectors = []kmall.MRZTxSector{{
		SectorTransmitDelaySec: 0.00025,
		TiltAngleReTxDeg:       1.5,
		CentreFreqHz:           200000,
	}}
	d.RxInfo = kmall.MRZRxInfo{
		NumBytesRxInfo:        32,
		NumSoundingsMaxMain:   2,
		NumSoundingsValidMain: 2,
		NumBytesPerSounding:   120,
	}
	d.Soundings = []kmall.MRZSounding{
		{
			SoundingIndex:       0,
			TwoWayTravelTimeSec: 0.1234567,
			DeltaLatitudeDeg:    0.00012345,
			DeltaLongitudeDeg:   -0.00054321,
			ZReRefPointM:        92.8125,
			YReRefPointM:        -55.125,
			XReRefPointM:        2.375,
			BeamAngleReRxDeg:    -58.875,
			Reflectivity1DB:     -27.5,
			SINumSamples:        2,
		},
		{
			SoundingIndex:       1,
			TwoWayTravelTimeSec: 0.1200001,
			DeltaLatitudeDeg:    -0.00031415,
			DeltaLongitudeDeg:   0.00027182,
			ZReRefPointM:        93.0625,
			YReRefPointM:        55.125,
			XReRefPointM:        -2.375,
			BeamAngleReRxDeg:    58.875,
			Reflectivity1DB:     -29.25,
			SINumSamples:        1,
		},
	}
	d.SeabedImage = []int16{-100, -101, -102}
	return d
}

func writeFile(t *testing.T, name string, chunks ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	var all []byte
	for _, c := range chunks {
		all = append(all, c...)
	}
	require.NoError(t, os.WriteFile(path, all, 0o644))
	return path
}

func openSession(t *testing.T, path string) *kmall.Session {
	t.Helper()
	s, err := kmall.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func passthroughRecord(timeSec uint32) []byte {
	return kmall.EncodePartial(&kmall.Partial{
		Header: testHeader(kmall.TagSPO, timeSec),
		Body:   []byte("position telegram body bytes"),
	})
}

func newCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New(DefaultScaleTable())
	require.NoError(t, err)
	return c
}

// assertWithinTolerance checks every quantized sounding field against
// the original at its class tolerance (half the LSB, plus float32
// rounding slack).
func assertWithinTolerance(t *testing.T, st ScaleTable, want, got *kmall.MRZ) {
	t.Helper()
	require.Len(t, got.Soundings, len(want.Soundings))
	assert.InDelta(t, want.PingInfo.LatitudeDeg, got.PingInfo.LatitudeDeg, st.LatLonDeg)
	assert.InDelta(t, want.PingInfo.LongitudeDeg, got.PingInfo.LongitudeDeg, st.LatLonDeg)
	assert.InDelta(t, want.PingInfo.HeadingVesselDeg, got.PingInfo.HeadingVesselDeg, st.AngleDeg)
	assert.InDelta(t, want.PingInfo.TxTransducerDepthM, got.PingInfo.TxTransducerDepthM, st.Meters)
	for i := range want.Soundings {
		w, g := &want.Soundings[i], &got.Soundings[i]
		assert.InDelta(t, w.TwoWayTravelTimeSec, g.TwoWayTravelTimeSec, st.Seconds, "sounding %d travel time", i)
		assert.InDelta(t, w.DeltaLatitudeDeg, g.DeltaLatitudeDeg, st.DeltaDeg, "sounding %d delta lat", i)
		assert.InDelta(t, w.DeltaLongitudeDeg, g.DeltaLongitudeDeg, st.DeltaDeg, "sounding %d delta lon", i)
		assert.InDelta(t, w.ZReRefPointM, g.ZReRefPointM, st.Meters, "sounding %d z", i)
		assert.InDelta(t, w.YReRefPointM, g.YReRefPointM, st.Meters, "sounding %d y", i)
		assert.InDelta(t, w.XReRefPointM, g.XReRefPointM, st.Meters, "sounding %d x", i)
		assert.InDelta(t, w.BeamAngleReRxDeg, g.BeamAngleReRxDeg, st.AngleDeg, "sounding %d angle", i)
		assert.InDelta(t, w.Reflectivity1DB, g.Reflectivity1DB, st.Decibels, "sounding %d reflectivity", i)
	}
}

func TestCompressDecompressLevel0(t *testing.T) {
	orig := testMRZ(7)
	spo := passthroughRecord(1600000000)
	path := writeFile(t, "line.kmall", spo, kmall.EncodeMRZ(orig))

	codec := newCodec(t)
	s := openSession(t, path)
	czPath, err := codec.Compress(s, Level0)
	require.NoError(t, err)
	assert.Equal(t, path+".kz0", czPath)

	// Compressed file: passthrough untouched, depth/range under the
	// synthetic tag.
	cz := openSession(t, czPath)
	idx, err := cz.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, kmall.TagSPO, idx.Entries[0].Tag)
	assert.Equal(t, kmall.TagCZ0, idx.Entries[1].Tag)
	raw, err := cz.ReadRecord(idx.Entries[0])
	require.NoError(t, err)
	assert.Equal(t, spo, raw)

	restoredPath, err := codec.Decompress(cz)
	require.NoError(t, err)

	re := openSession(t, restoredPath)
	ridx, err := re.Index()
	require.NoError(t, err)
	require.Len(t, ridx.Entries, 2)
	assert.Equal(t, kmall.TagMRZ, ridx.Entries[1].Tag)

	d, err := re.Decode(ridx.Entries[1])
	require.NoError(t, err)
	got := d.(*kmall.MRZ)
	assert.Equal(t, orig.CmnPart.PingCnt, got.CmnPart.PingCnt)
	assert.Equal(t, orig.Header.TimeSec, got.Header.TimeSec)
	assert.Equal(t, orig.SeabedImage, got.SeabedImage)
	assertWithinTolerance(t, codec.Table(), orig, got)
}

func TestCompressLevel1DropsSeabedImage(t *testing.T) {
	orig := testMRZ(9)
	path := writeFile(t, "line.kmall", kmall.EncodeMRZ(orig))

	codec := newCodec(t)
	s := openSession(t, path)
	czPath, err := codec.Compress(s, Level1)
	require.NoError(t, err)
	assert.Equal(t, path+".kz1", czPath)

	cz := openSession(t, czPath)
	restoredPath, err := codec.Decompress(cz)
	require.NoError(t, err)

	re := openSession(t, restoredPath)
	ridx, err := re.Index()
	require.NoError(t, err)
	d, err := re.Decode(ridx.Entries[0])
	require.NoError(t, err)
	got := d.(*kmall.MRZ)
	assert.Empty(t, got.SeabedImage)
	for i := range got.Soundings {
		assert.Zero(t, got.Soundings[i].SINumSamples, "sounding %d kept a seabed image count", i)
	}
	assertWithinTolerance(t, codec.Table(), orig, got)
}

func TestCompressionShrinksLevel1(t *testing.T) {
	orig := testMRZ(3)
	path := writeFile(t, "line.kmall", kmall.EncodeMRZ(orig))
	codec := newCodec(t)
	s := openSession(t, path)
	czPath, err := codec.Compress(s, Level1)
	require.NoError(t, err)

	in, err := os.Stat(path)
	require.NoError(t, err)
	out, err := os.Stat(czPath)
	require.NoError(t, err)
	assert.Less(t, out.Size(), in.Size())
}

func TestDecompressRejectsPlainFile(t *testing.T) {
	path := writeFile(t, "line.kmall", passthroughRecord(100), kmall.EncodeMRZ(testMRZ(1)))
	codec := newCodec(t)
	s := openSession(t, path)

	_, err := codec.Decompress(s)
	require.ErrorIs(t, err, kmall.ErrUnsupportedLevel)

	// No output, not even a temp file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestDecompressRejectsScaleVersionMismatch(t *testing.T) {
	path := writeFile(t, "line.kmall", kmall.EncodeMRZ(testMRZ(1)))
	codec := newCodec(t)
	s := openSession(t, path)
	czPath, err := codec.Compress(s, Level0)
	require.NoError(t, err)

	other := DefaultScaleTable()
	other.Version = 2
	mismatched, err := New(other)
	require.NoError(t, err)

	cz := openSession(t, czPath)
	_, err = mismatched.Decompress(cz)
	require.ErrorIs(t, err, kmall.ErrUnsupportedLevel)
}

func TestRestoredPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"line.kmall.kz0", "line.restored.kmall"},
		{"line.kmall.kz1", "line.restored.kmall"},
		{"line.kmall", "line.restored.kmall"},
		{"/data/survey/0034.kmall.kz0", "/data/survey/0034.restored.kmall"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RestoredPath(tt.in), "input %s", tt.in)
	}
}

func TestCorruptCompressedRecord(t *testing.T) {
	path := writeFile(t, "line.kmall", kmall.EncodeMRZ(testMRZ(1)))
	codec := newCodec(t)
	s := openSession(t, path)
	czPath, err := codec.Compress(s, Level0)
	require.NoError(t, err)

	// Flip the quantized latitude to a value far outside any valid
	// range. The latitude int64 sits after the header (20), marker
	// block (4), partition (4), common body (10) and the ping fields
	// before it.
	raw, err := os.ReadFile(czPath)
	require.NoError(t, err)
	corrupted := append([]byte(nil), raw...)
	// Locate by decoding: corrupt every byte window until decode fails
	// with the range error, which must abort decompression.
	cz := openSession(t, czPath)
	idx, err := cz.Index()
	require.NoError(t, err)
	rec, err := cz.ReadRecord(idx.Entries[0])
	require.NoError(t, err)
	mrz, _, err := decodeCZ(rec, codec.Table())
	require.NoError(t, err)
	require.NotNil(t, mrz)

	// Overwrite the level byte with an unknown level. The tag still
	// matches, so the record-level consistency check must fire.
	corrupted[kmall.HeaderSize] = 9
	badPath := writeFile(t, "bad.kz0", corrupted)
	bad := openSession(t, badPath)
	_, err = codec.Decompress(bad)
	require.ErrorIs(t, err, kmall.ErrCorruptCompressedStream)

	// The aborted pass must leave no output behind.
	entries, err := os.ReadDir(filepath.Dir(badPath))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
