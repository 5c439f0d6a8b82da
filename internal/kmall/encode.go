package kmall

import (
	"encoding/binary"
	"math"
)

// Canonical on-disk sizes of the sized sub-structs the encoder emits.
const (
	mBodySize       = 12
	pingInfoSize    = 144
	txSectorSize    = 36
	rxInfoSize      = 32
	extraDetClsSize = 4
	soundingSize    = 120
)

// builder accumulates a little-endian record body. The leading length
// field is back-patched by finish, which also appends the trailing
// duplicate.
type builder struct {
	buf []byte
}

func newBuilder(capacity int) *builder {
	return &builder{buf: make([]byte, 0, capacity)}
}

func (b *builder) u8(v uint8)   { b.buf = append(b.buf, v) }
func (b *builder) i8(v int8)    { b.u8(uint8(v)) }
func (b *builder) u16(v uint16) { b.buf = binary.LittleEndian.AppendUint16(b.buf, v) }
func (b *builder) i16(v int16)  { b.u16(uint16(v)) }
func (b *builder) u32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }
func (b *builder) i32(v int32)  { b.u32(uint32(v)) }
func (b *builder) u64(v uint64) { b.buf = binary.LittleEndian.AppendUint64(b.buf, v) }
func (b *builder) i64(v int64)  { b.u64(uint64(v)) }
func (b *builder) f32(v float32) { b.u32(math.Float32bits(v)) }
func (b *builder) f64(v float64) { b.u64(math.Float64bits(v)) }

func (b *builder) raw(p []byte) { b.buf = append(b.buf, p...) }

func (b *builder) header(h Header) {
	b.u32(0) // patched by finish
	b.raw(h.DgmType[:])
	b.u8(h.DgmVersion)
	b.u8(h.SystemID)
	b.u16(h.EchoSounderID)
	b.u32(h.TimeSec)
	b.u32(h.TimeNanosec)
}

// finish appends the trailing length and patches the leading one. The
// returned slice is the complete record.
func (b *builder) finish() []byte {
	total := uint32(len(b.buf) + FooterSize)
	binary.LittleEndian.PutUint32(b.buf[0:4], total)
	b.u32(total)
	return b.buf
}

// EncodePartial re-emits a partially decoded record. Decode followed by
// EncodePartial reproduces the input bytes exactly.
func EncodePartial(d *Partial) []byte {
	b := newBuilder(MinDgmSize + len(d.Body))
	b.header(d.Header)
	b.raw(d.Body)
	return b.finish()
}

// EncodeMRZ writes a depth/range datagram with canonical sub-struct
// sizes. Length and size fields are recomputed from the slices, so a
// decoded record whose source used the same layout round-trips
// byte-identically.
func EncodeMRZ(d *MRZ) []byte {
	b := newBuilder(MinDgmSize + mBodySize + pingInfoSize +
		len(d.TxSectors)*txSectorSize + rxInfoSize +
		len(d.ExtraDetClasses)*extraDetClsSize +
		len(d.Soundings)*soundingSize + len(d.SeabedImage)*2 + 8)
	b.header(d.Header)

	b.u16(d.Partition.NumOfDgms)
	b.u16(d.Partition.DgmNum)

	b.u16(mBodySize)
	b.u16(d.CmnPart.PingCnt)
	b.u8(d.CmnPart.RxFansPerPing)
	b.u8(d.CmnPart.RxFanIndex)
	b.u8(d.CmnPart.SwathsPerPing)
	b.u8(d.CmnPart.SwathAlongPosition)
	b.u8(d.CmnPart.TxTransducerInd)
	b.u8(d.CmnPart.RxTransducerInd)
	b.u8(d.CmnPart.NumRxTransducers)
	b.u8(d.CmnPart.AlgorithmType)

	p := &d.PingInfo
	b.u16(pingInfoSize)
	b.u16(p.Padding0)
	b.f32(p.PingRateHz)
	b.u8(p.BeamSpacing)
	b.u8(p.DepthMode)
	b.u8(p.SubDepthMode)
	b.u8(p.DistanceBtwSwath)
	b.u8(p.DetectionMode)
	b.u8(p.PulseForm)
	b.u16(p.Padding1)
	b.f32(p.FrequencyModeHz)
	b.f32(p.FreqRangeLowLimHz)
	b.f32(p.FreqRangeHighLimHz)
	b.f32(p.MaxTotalTxPulseLengthSec)
	b.f32(p.MaxEffTxPulseLengthSec)
	b.f32(p.MaxEffTxBandWidthHz)
	b.f32(p.AbsCoeffDBPerKm)
	b.f32(p.PortSectorEdgeDeg)
	b.f32(p.StarbSectorEdgeDeg)
	b.f32(p.PortMeanCovDeg)
	b.f32(p.StarbMeanCovDeg)
	b.i16(p.PortMeanCovM)
	b.i16(p.StarbMeanCovM)
	b.u8(p.ModeAndStabilisation)
	b.u8(p.RuntimeFilter1)
	b.u16(p.RuntimeFilter2)
	b.u32(p.PipeTrackingStatus)
	b.f32(p.TransmitArraySizeUsedDeg)
	b.f32(p.ReceiveArraySizeUsedDeg)
	b.f32(p.TransmitPowerDB)
	b.u16(p.SLrampUpTimeRemaining)
	b.u16(p.Padding2)
	b.f32(p.YawAngleDeg)
	b.u16(uint16(len(d.TxSectors)))
	b.u16(txSectorSize)
	b.f32(p.HeadingVesselDeg)
	b.f32(p.SoundSpeedAtTxDepthMPerS)
	b.f32(p.TxTransducerDepthM)
	b.f32(p.ZWaterLevelReRefPointM)
	b.f32(p.XKmallToAllM)
	b.f32(p.YKmallToAllM)
	b.u8(p.LatLongInfo)
	b.u8(p.PosSensorStatus)
	b.u8(p.AttitudeSensorStatus)
	b.u8(p.Padding3)
	b.f64(p.LatitudeDeg)
	b.f64(p.LongitudeDeg)
	b.f32(p.EllipsoidHeightReRefPtM)

	for i := range d.TxSectors {
		s := &d.TxSectors[i]
		b.u8(s.TxSectorNumb)
		b.u8(s.TxArrNumber)
		b.u8(s.TxSubArray)
		b.u8(s.Padding0)
		b.f32(s.SectorTransmitDelaySec)
		b.f32(s.TiltAngleReTxDeg)
		b.f32(s.TxNominalSourceLevelDB)
		b.f32(s.TxFocusRangeM)
		b.f32(s.CentreFreqHz)
		b.f32(s.SignalBandWidthHz)
		b.f32(s.TotalSignalLengthSec)
		b.u8(s.PulseShading)
		b.u8(s.SignalWaveForm)
		b.u16(s.Padding1)
	}

	r := &d.RxInfo
	b.u16(rxInfoSize)
	b.u16(r.NumSoundingsMaxMain)
	b.u16(r.NumSoundingsValidMain)
	b.u16(soundingSize)
	b.f32(r.WCSampleRate)
	b.f32(r.SeabedImageSampleRate)
	b.f32(r.BSnormalDB)
	b.f32(r.BSobliqueDB)
	b.u16(r.ExtraDetectionAlarmFlag)
	b.u16(r.NumExtraDetections)
	b.u16(uint16(len(d.ExtraDetClasses)))
	b.u16(extraDetClsSize)

	for i := range d.ExtraDetClasses {
		c := &d.ExtraDetClasses[i]
		b.u16(c.NumExtraDetInClass)
		b.i8(c.Padding)
		b.u8(c.AlarmFlag)
	}

	for i := range d.Soundings {
		s := &d.Soundings[i]
		b.u16(s.SoundingIndex)
		b.u8(s.TxSectorNumb)
		b.u8(s.DetectionType)
		b.u8(s.DetectionMethod)
		b.u8(s.RejectionInfo1)
		b.u8(s.RejectionInfo2)
		b.u8(s.PostProcessingInfo)
		b.u8(s.DetectionClass)
		b.u8(s.DetectionConfidenceLevel)
		b.u16(s.Padding)
		b.f32(s.RangeFactor)
		b.f32(s.QualityFactor)
		b.f32(s.DetectionUncertaintyVerM)
		b.f32(s.DetectionUncertaintyHorM)
		b.f32(s.DetectionWindowLengthSec)
		b.f32(s.EchoLengthSec)
		b.u16(s.WCBeamNumb)
		b.u16(s.WCRangeSamples)
		b.f32(s.WCNomBeamAngleAcrossDeg)
		b.f32(s.MeanAbsCoeffDBPerKm)
		b.f32(s.Reflectivity1DB)
		b.f32(s.Reflectivity2DB)
		b.f32(s.ReceiverSensitivityDB)
		b.f32(s.SourceLevelAppliedDB)
		b.f32(s.BSCalibrationDB)
		b.f32(s.TVGDB)
		b.f32(s.BeamAngleReRxDeg)
		b.f32(s.BeamAngleCorrectionDeg)
		b.f32(s.TwoWayTravelTimeSec)
		b.f32(s.TwoWayTravelTimeCorrSec)
		b.f32(s.DeltaLatitudeDeg)
		b.f32(s.DeltaLongitudeDeg)
		b.f32(s.ZReRefPointM)
		b.f32(s.YReRefPointM)
		b.f32(s.XReRefPointM)
		b.f32(s.BeamIncAngleAdjDeg)
		b.u16(s.RealTimeCleanInfo)
		b.u16(s.SIStartRangeSamples)
		b.u16(s.SICentreSample)
		b.u16(s.SINumSamples)
	}

	for _, v := range d.SeabedImage {
		b.i16(v)
	}
	return b.finish()
}
