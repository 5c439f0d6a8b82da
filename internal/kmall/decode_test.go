package kmall

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testHeader(tag string, timeSec uint32) Header {
	var h Header
	copy(h.DgmType[:], tag)
	h.DgmVersion = 1
	h.SystemID = 0
	h.EchoSounderID = 2040
	h.TimeSec = timeSec
	h.TimeNanosec = 500000000
	return h
}

// testMRZ builds a depth/range record whose size fields match the
// canonical layout the encoder emits, so encode/decode round trips can
// compare whole structs.
func testMRZ() *MRZ {
	d := &MRZ{Header: testHeader(TagMRZ, 1600000000)}
	d.Partition = Partition{NumOfDgms: 1, DgmNum: 1}
	d.CmnPart = MBody{
		NumBytesCmnPart: 12,
		PingCnt:         42,
		RxFansPerPing:   2,
		RxFanIndex:      0,
		SwathsPerPing:   1,
	}
	d.PingInfo = MRZPingInfo{
		NumBytesInfoData:         144,
		PingRateHz:               2.5,
		DepthMode:                1,
		FrequencyModeHz:          300000,
		MaxTotalTxPulseLengthSec: 0.005,
		PortSectorEdgeDeg:        -65.5,
		StarbSectorEdgeDeg:       65.5,
		NumTxSectors:             1,
		NumBytesPerTxSector:      36,
		HeadingVesselDeg:         271.25,
		SoundSpeedAtTxDepthMPerS: 1500.5,
		TxTransducerDepthM:       5.25,
		LatitudeDeg:              42.3456789,
		LongitudeDeg:             -70.9876543,
		EllipsoidHeightReRefPtM:  -28.5,
	}
	d.TxSectors = []MRZTxSector{{
		TxSectorNumb:           0,
		SectorTransmitDelaySec: 0.0001,
		TiltAngleReTxDeg:       -0.5,
		CentreFreqHz:           300000,
		SignalBandWidthHz:      50000,
		TotalSignalLengthSec:   0.002,
	}}
	d.RxInfo = MRZRxInfo{
		NumBytesRxInfo:           32,
		NumSoundingsMaxMain:      2,
		NumSoundingsValidMain:    2,
		NumBytesPerSounding:      120,
		WCSampleRate:             30000,
		SeabedImageSampleRate:    15000,
		BSnormalDB:               -20.5,
		BSobliqueDB:              -30.25,
		NumExtraDetections:       0,
		NumExtraDetectionClasses: 1,
		NumBytesPerClass:         4,
	}
	d.ExtraDetClasses = []MRZExtraDetClass{{NumExtraDetInClass: 0}}
	d.Soundings = []MRZSounding{
		{
			SoundingIndex:           0,
			DetectionMethod:         1,
			QualityFactor:           12.5,
			TwoWayTravelTimeSec:     0.123456,
			DeltaLatitudeDeg:        0.0001,
			DeltaLongitudeDeg:       -0.0002,
			ZReRefPointM:            85.25,
			YReRefPointM:            -40.5,
			XReRefPointM:            3.75,
			Reflectivity1DB:         -35.5,
			BeamAngleReRxDeg:        -60.25,
			SINumSamples:            2,
		},
		{
			SoundingIndex:           1,
			DetectionMethod:         1,
			QualityFactor:           8.25,
			TwoWayTravelTimeSec:     0.110022,
			DeltaLatitudeDeg:        -0.0003,
			DeltaLongitudeDeg:       0.0004,
			ZReRefPointM:            86.125,
			YReRefPointM:            40.5,
			XReRefPointM:            -3.75,
			Reflectivity1DB:         -33.0,
			BeamAngleReRxDeg:        60.25,
			SINumSamples:            1,
		},
	}
	d.SeabedImage = []int16{-120, -118, -121}
	return d
}

func TestMRZRoundTrip(t *testing.T) {
	want := testMRZ()
	raw := EncodeMRZ(want)
	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := d.(*MRZ)
	if !ok {
		t.Fatalf("Decode returned %T, want *MRZ", d)
	}
	// NumBytesDgm is zero on the fixture and filled in by the encoder.
	want.Header.NumBytesDgm = got.Header.NumBytesDgm
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded record differs (-want +got):\n%s", diff)
	}

	again := EncodeMRZ(got)
	if !bytes.Equal(raw, again) {
		t.Fatal("re-encoding a decoded record changed the bytes")
	}
}

func TestDecodeSeabedImagePrefixSum(t *testing.T) {
	d := testMRZ()
	raw := EncodeMRZ(d)
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	mrz := got.(*MRZ)
	total := 0
	for _, s := range mrz.Soundings {
		total += int(s.SINumSamples)
	}
	if len(mrz.SeabedImage) != total {
		t.Fatalf("seabed image length = %d, want sum of per-sounding counts %d", len(mrz.SeabedImage), total)
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	valid := EncodeMRZ(testMRZ())

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name: "trailing length mismatch",
			mutate: func(b []byte) []byte {
				b[len(b)-1] ^= 0xff
				return b
			},
			wantErr: ErrMalformedHeader,
		},
		{
			name: "leading length beyond buffer",
			mutate: func(b []byte) []byte {
				b[0] = byte(len(b) + 4)
				return b
			},
			wantErr: ErrTruncatedRecord,
		},
		{
			name: "missing marker",
			mutate: func(b []byte) []byte {
				b[4] = 'M'
				return b
			},
			wantErr: ErrMalformedHeader,
		},
		{
			name: "short buffer",
			mutate: func(b []byte) []byte {
				return b[:10]
			},
			wantErr: ErrTruncatedRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte(nil), valid...)
			buf = tt.mutate(buf)
			_, err := Decode(buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	raw := EncodeMRZ(testMRZ())
	// Keep the length fields consistent but drop body bytes so the
	// sounding walk runs out of record.
	cut := raw[:len(raw)-40]
	buf := append([]byte(nil), cut[:len(cut)-4]...)
	b := &builder{buf: buf}
	b.finish()
	_, err := Decode(b.buf)
	if !errors.Is(err, ErrTruncatedRecord) {
		t.Fatalf("Decode err = %v, want ErrTruncatedRecord", err)
	}
}

func TestDecodeUnknownTagYieldsPartial(t *testing.T) {
	body := []byte("anything goes here")
	p := &Partial{Header: testHeader("#XYZ", 100), Body: body}
	raw := EncodePartial(p)
	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := d.(*Partial)
	if !ok {
		t.Fatalf("Decode returned %T, want *Partial", d)
	}
	if !bytes.Equal(got.Body, body) {
		t.Fatalf("Partial body = %q, want %q", got.Body, body)
	}
}

func TestDecodeFreeTextYieldsPartial(t *testing.T) {
	for _, tag := range []string{TagIIP, TagIOP} {
		p := &Partial{Header: testHeader(tag, 100), Body: []byte("SIS 5.0 install")}
		raw := EncodePartial(p)
		d, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode %s: %v", tag, err)
		}
		if _, ok := d.(*Partial); !ok {
			t.Fatalf("Decode %s returned %T, want *Partial", tag, d)
		}
	}
}

func TestEncodePartialRoundTrip(t *testing.T) {
	p := &Partial{Header: testHeader("#XYZ", 7), Body: []byte{1, 2, 3, 4, 5}}
	raw := EncodePartial(p)
	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	again := EncodePartial(d.(*Partial))
	if !bytes.Equal(raw, again) {
		t.Fatal("Partial round trip changed the bytes")
	}
}

func TestDecodePingSummary(t *testing.T) {
	raw := EncodeMRZ(testMRZ())
	ps, err := DecodePingSummary(raw[:PingSummarySize])
	if err != nil {
		t.Fatalf("DecodePingSummary: %v", err)
	}
	if ps.PingCnt != 42 || ps.RxFansPerPing != 2 || ps.RxFanIndex != 0 {
		t.Fatalf("summary = %+v, want ping 42 fans 2 index 0", ps)
	}

	spo := EncodePartial(&Partial{Header: testHeader(TagSPO, 1), Body: make([]byte, 40)})
	if _, err := DecodePingSummary(spo); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("non-MRZ summary err = %v, want ErrMalformedHeader", err)
	}
}

func TestDecodeSPO(t *testing.T) {
	b := &builder{}
	b.header(testHeader(TagSPO, 1600000100))
	b.u16(8) // common part size
	b.u16(1)
	b.u16(0)
	b.u16(0)
	b.u32(1600000100)
	b.u32(250000000)
	b.f32(1.5)
	b.f64(42.123456)
	b.f64(-70.654321)
	b.f32(3.2)
	b.f32(180.5)
	b.f32(-30.0)
	b.raw(append([]byte("$GPGGA,test"), 0, 0, 0))
	raw := b.finish()

	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	spo, ok := d.(*SPO)
	if !ok {
		t.Fatalf("Decode returned %T, want *SPO", d)
	}
	if spo.Data.CorrectedLatDeg != 42.123456 || spo.Data.CorrectedLonDeg != -70.654321 {
		t.Fatalf("position = %v,%v", spo.Data.CorrectedLatDeg, spo.Data.CorrectedLonDeg)
	}
	if string(spo.Data.RawInput) != "$GPGGA,test" {
		t.Fatalf("raw input = %q, trailing NULs not trimmed", spo.Data.RawInput)
	}
}

func TestDecodeSKMStride(t *testing.T) {
	const samples = 3
	b := &builder{}
	b.header(testHeader(TagSKM, 1600000200))
	b.u16(12) // info part size
	b.u8(1)
	b.u8(0)
	b.u16(1)
	b.u16(samples)
	b.u16(132)
	b.u16(0x1e)
	for i := 0; i < samples; i++ {
		b.raw([]byte("#KMB"))
		b.u16(132)
		b.u16(1)
		b.u32(1600000200 + uint32(i))
		b.u32(0)
		b.u32(0)
		b.f64(42.0)
		b.f64(-70.0)
		for j := 0; j < 21; j++ {
			b.f32(float32(i) + float32(j)/100)
		}
		b.u32(1600000200 + uint32(i))
		b.u32(0)
		b.f32(0.25)
	}
	raw := b.finish()

	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	skm, ok := d.(*SKM)
	if !ok {
		t.Fatalf("Decode returned %T, want *SKM", d)
	}
	if len(skm.Samples) != samples {
		t.Fatalf("samples = %d, want %d", len(skm.Samples), samples)
	}
	for i, s := range skm.Samples {
		if s.KMB.TimeSec != 1600000200+uint32(i) {
			t.Fatalf("sample %d time = %d", i, s.KMB.TimeSec)
		}
		if s.DelayedHeave.DelayedHeaveM != 0.25 {
			t.Fatalf("sample %d delayed heave = %v", i, s.DelayedHeave.DelayedHeaveM)
		}
	}
}

func TestDecodeSVP(t *testing.T) {
	b := &builder{}
	b.header(testHeader(TagSVP, 1600000300))
	b.u16(20)
	b.u16(2)
	b.raw([]byte("S01 "))
	b.u32(1600000300)
	b.f64(41.5)
	b.f64(-71.0)
	for _, p := range []struct{ depth, sv float32 }{{0, 1500}, {10, 1498.5}} {
		b.f32(p.depth)
		b.f32(p.sv)
		b.u32(0)
		b.f32(12.5)
		b.f32(35.0)
	}
	raw := b.finish()

	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	svp, ok := d.(*SVP)
	if !ok {
		t.Fatalf("Decode returned %T, want *SVP", d)
	}
	if len(svp.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(svp.Samples))
	}
	if svp.Samples[1].SoundVelocityMPerSec != 1498.5 {
		t.Fatalf("sample sv = %v", svp.Samples[1].SoundVelocityMPerSec)
	}
}

func TestHeaderTime(t *testing.T) {
	h := testHeader(TagMRZ, 1600000000)
	want := 1600000000.5
	if math.Abs(h.Time()-want) > 1e-9 {
		t.Fatalf("Time = %v, want %v", h.Time(), want)
	}
}
