package compress

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/valschmidt/kmall/internal/kmall"
)

// Levels of retention. Level 0 keeps the quantized seabed-image samples,
// level 1 drops them.
const (
	Level0 = 0
	Level1 = 1
)

// A quantized NaN is carried as the most negative integer, which no
// in-range field value can reach at the declared scales.
const (
	nanSentinel32 = math.MinInt32
	nanSentinel64 = math.MinInt64
)

func quant32(v float32, lsb float64) int32 {
	f := float64(v)
	if math.IsNaN(f) {
		return nanSentinel32
	}
	q := math.Round(f / lsb)
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	if q <= nanSentinel32 {
		return nanSentinel32 + 1
	}
	return int32(q)
}

func dequant32(q int32, lsb float64) float32 {
	if q == nanSentinel32 {
		return float32(math.NaN())
	}
	return float32(float64(q) * lsb)
}

func quant64(v float64, lsb float64) int64 {
	if math.IsNaN(v) {
		return nanSentinel64
	}
	q := math.Round(v / lsb)
	if q >= math.MaxInt64 || q <= nanSentinel64 {
		return nanSentinel64
	}
	return int64(q)
}

func dequant64(q int64, lsb float64) float64 {
	if q == nanSentinel64 {
		return math.NaN()
	}
	return float64(q) * lsb
}

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) i8(v int8)    { w.u8(uint8(v)) }
func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) i16(v int16)  { w.u16(uint16(v)) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) i64(v int64)  { w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v)) }
func (w *writer) raw(p []byte) { w.buf = append(w.buf, p...) }

// reader walks a compressed body. Any overrun marks the whole stream
// corrupt; there is no per-field recovery.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s", kmall.ErrCorruptCompressedStream, fmt.Sprintf(format, args...))
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.fail("read of %d bytes at offset %d exceeds %d", n, r.off, len(r.buf))
		return nil
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p
}

func (r *reader) u8() uint8 {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *reader) i8() int8 { return int8(r.u8()) }

func (r *reader) u16() uint16 {
	p := r.take(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) i64() int64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(p))
}

// levelTag maps a retention level to its synthetic tag.
func levelTag(level uint8) (string, error) {
	switch level {
	case Level0:
		return kmall.TagCZ0, nil
	case Level1:
		return kmall.TagCZ1, nil
	}
	return "", fmt.Errorf("%w: level %d", kmall.ErrUnsupportedLevel, level)
}

// tagLevel is the inverse of levelTag.
func tagLevel(tag string) (uint8, bool) {
	switch tag {
	case kmall.TagCZ0:
		return Level0, true
	case kmall.TagCZ1:
		return Level1, true
	}
	return 0, false
}

// encodeCZ renders one depth/range record in quantized form under the
// synthetic tag for level. The source record is not modified.
func encodeCZ(d *kmall.MRZ, level uint8, st ScaleTable) ([]byte, error) {
	tag, err := levelTag(level)
	if err != nil {
		return nil, err
	}
	w := &writer{buf: make([]byte, 0, 256+len(d.Soundings)*96+len(d.SeabedImage)*2)}

	// Header, length patched below.
	w.u32(0)
	w.raw([]byte(tag))
	w.u8(d.Header.DgmVersion)
	w.u8(d.Header.SystemID)
	w.u16(d.Header.EchoSounderID)
	w.u32(d.Header.TimeSec)
	w.u32(d.Header.TimeNanosec)

	w.u8(level)
	w.u8(st.Version)
	w.u16(0)

	w.u16(d.Partition.NumOfDgms)
	w.u16(d.Partition.DgmNum)

	c := &d.CmnPart
	w.u16(c.PingCnt)
	w.u8(c.RxFansPerPing)
	w.u8(c.RxFanIndex)
	w.u8(c.SwathsPerPing)
	w.u8(c.SwathAlongPosition)
	w.u8(c.TxTransducerInd)
	w.u8(c.RxTransducerInd)
	w.u8(c.NumRxTransducers)
	w.u8(c.AlgorithmType)

	p := &d.PingInfo
	w.i32(quant32(p.PingRateHz, st.Hertz))
	w.u8(p.BeamSpacing)
	w.u8(p.DepthMode)
	w.u8(p.SubDepthMode)
	w.u8(p.DistanceBtwSwath)
	w.u8(p.DetectionMode)
	w.u8(p.PulseForm)
	w.i32(quant32(p.FrequencyModeHz, st.Hertz))
	w.i32(quant32(p.FreqRangeLowLimHz, st.Hertz))
	w.i32(quant32(p.FreqRangeHighLimHz, st.Hertz))
	w.i32(quant32(p.MaxTotalTxPulseLengthSec, st.Seconds))
	w.i32(quant32(p.MaxEffTxPulseLengthSec, st.Seconds))
	w.i32(quant32(p.MaxEffTxBandWidthHz, st.Hertz))
	w.i32(quant32(p.AbsCoeffDBPerKm, st.Decibels))
	w.i32(quant32(p.PortSectorEdgeDeg, st.AngleDeg))
	w.i32(quant32(p.StarbSectorEdgeDeg, st.AngleDeg))
	w.i32(quant32(p.PortMeanCovDeg, st.AngleDeg))
	w.i32(quant32(p.StarbMeanCovDeg, st.AngleDeg))
	w.i16(p.PortMeanCovM)
	w.i16(p.StarbMeanCovM)
	w.u8(p.ModeAndStabilisation)
	w.u8(p.RuntimeFilter1)
	w.u16(p.RuntimeFilter2)
	w.u32(p.PipeTrackingStatus)
	w.i32(quant32(p.TransmitArraySizeUsedDeg, st.AngleDeg))
	w.i32(quant32(p.ReceiveArraySizeUsedDeg, st.AngleDeg))
	w.i32(quant32(p.TransmitPowerDB, st.Decibels))
	w.u16(p.SLrampUpTimeRemaining)
	w.i32(quant32(p.YawAngleDeg, st.AngleDeg))
	w.i32(quant32(p.HeadingVesselDeg, st.AngleDeg))
	w.i32(quant32(p.SoundSpeedAtTxDepthMPerS, st.MetersPerSec))
	w.i32(quant32(p.TxTransducerDepthM, st.Meters))
	w.i32(quant32(p.ZWaterLevelReRefPointM, st.Meters))
	w.i32(quant32(p.XKmallToAllM, st.Meters))
	w.i32(quant32(p.YKmallToAllM, st.Meters))
	w.u8(p.LatLongInfo)
	w.u8(p.PosSensorStatus)
	w.u8(p.AttitudeSensorStatus)
	w.i64(quant64(p.LatitudeDeg, st.LatLonDeg))
	w.i64(quant64(p.LongitudeDeg, st.LatLonDeg))
	w.i32(quant32(p.EllipsoidHeightReRefPtM, st.Meters))

	w.u16(uint16(len(d.TxSectors)))
	for i := range d.TxSectors {
		s := &d.TxSectors[i]
		w.u8(s.TxSectorNumb)
		w.u8(s.TxArrNumber)
		w.u8(s.TxSubArray)
		w.i32(quant32(s.SectorTransmitDelaySec, st.Seconds))
		w.i32(quant32(s.TiltAngleReTxDeg, st.AngleDeg))
		w.i32(quant32(s.TxNominalSourceLevelDB, st.Decibels))
		w.i32(quant32(s.TxFocusRangeM, st.Meters))
		w.i32(quant32(s.CentreFreqHz, st.Hertz))
		w.i32(quant32(s.SignalBandWidthHz, st.Hertz))
		w.i32(quant32(s.TotalSignalLengthSec, st.Seconds))
		w.u8(s.PulseShading)
		w.u8(s.SignalWaveForm)
	}

	r := &d.RxInfo
	w.u16(r.NumSoundingsMaxMain)
	w.u16(r.NumSoundingsValidMain)
	w.i32(quant32(r.WCSampleRate, st.Hertz))
	w.i32(quant32(r.SeabedImageSampleRate, st.Hertz))
	w.i32(quant32(r.BSnormalDB, st.Decibels))
	w.i32(quant32(r.BSobliqueDB, st.Decibels))
	w.u16(r.ExtraDetectionAlarmFlag)
	w.u16(r.NumExtraDetections)
	w.u16(uint16(len(d.ExtraDetClasses)))

	for i := range d.ExtraDetClasses {
		cl := &d.ExtraDetClasses[i]
		w.u16(cl.NumExtraDetInClass)
		w.i8(cl.Padding)
		w.u8(cl.AlarmFlag)
	}

	w.u16(uint16(len(d.Soundings)))
	for i := range d.Soundings {
		s := &d.Soundings[i]
		w.u16(s.SoundingIndex)
		w.u8(s.TxSectorNumb)
		w.u8(s.DetectionType)
		w.u8(s.DetectionMethod)
		w.u8(s.RejectionInfo1)
		w.u8(s.RejectionInfo2)
		w.u8(s.PostProcessingInfo)
		w.u8(s.DetectionClass)
		w.u8(s.DetectionConfidenceLevel)
		w.i32(quant32(s.RangeFactor, st.Unitless))
		w.i32(quant32(s.QualityFactor, st.Unitless))
		w.i32(quant32(s.DetectionUncertaintyVerM, st.Meters))
		w.i32(quant32(s.DetectionUncertaintyHorM, st.Meters))
		w.i32(quant32(s.DetectionWindowLengthSec, st.Seconds))
		w.i32(quant32(s.EchoLengthSec, st.Seconds))
		w.u16(s.WCBeamNumb)
		w.u16(s.WCRangeSamples)
		w.i32(quant32(s.WCNomBeamAngleAcrossDeg, st.AngleDeg))
		w.i32(quant32(s.MeanAbsCoeffDBPerKm, st.Decibels))
		w.i32(quant32(s.Reflectivity1DB, st.Decibels))
		w.i32(quant32(s.Reflectivity2DB, st.Decibels))
		w.i32(quant32(s.ReceiverSensitivityDB, st.Decibels))
		w.i32(quant32(s.SourceLevelAppliedDB, st.Decibels))
		w.i32(quant32(s.BSCalibrationDB, st.Decibels))
		w.i32(quant32(s.TVGDB, st.Decibels))
		w.i32(quant32(s.BeamAngleReRxDeg, st.AngleDeg))
		w.i32(quant32(s.BeamAngleCorrectionDeg, st.AngleDeg))
		w.i32(quant32(s.TwoWayTravelTimeSec, st.Seconds))
		w.i32(quant32(s.TwoWayTravelTimeCorrSec, st.Seconds))
		w.i32(quant32(s.DeltaLatitudeDeg, st.DeltaDeg))
		w.i32(quant32(s.DeltaLongitudeDeg, st.DeltaDeg))
		w.i32(quant32(s.ZReRefPointM, st.Meters))
		w.i32(quant32(s.YReRefPointM, st.Meters))
		w.i32(quant32(s.XReRefPointM, st.Meters))
		w.i32(quant32(s.BeamIncAngleAdjDeg, st.AngleDeg))
		w.u16(s.RealTimeCleanInfo)
		if level == Level0 {
			w.u16(s.SIStartRangeSamples)
			w.u16(s.SICentreSample)
			w.u16(s.SINumSamples)
		}
	}

	if level == Level0 {
		w.u32(uint32(len(d.SeabedImage)))
		for _, v := range d.SeabedImage {
			w.i16(v)
		}
	}

	total := uint32(len(w.buf) + 4)
	binary.LittleEndian.PutUint32(w.buf[0:4], total)
	w.u32(total)
	return w.buf, nil
}

// decodeCZ reconstructs the floating-point depth/range record from a
// compressed one. Canonical sub-struct sizes are stamped into the result
// so re-encoding it yields a well-formed vendor record.
func decodeCZ(buf []byte, st ScaleTable) (*kmall.MRZ, uint8, error) {
	h, err := kmall.ParseHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	tagLvl, ok := tagLevel(h.Tag())
	if !ok {
		return nil, 0, fmt.Errorf("%w: tag %q", kmall.ErrUnsupportedLevel, h.Tag())
	}
	if int(h.NumBytesDgm) != len(buf) {
		return nil, 0, fmt.Errorf("%w: declared %d bytes, have %d", kmall.ErrCorruptCompressedStream, h.NumBytesDgm, len(buf))
	}

	r := &reader{buf: buf[:len(buf)-4], off: kmall.HeaderSize}
	level := r.u8()
	scaleVersion := r.u8()
	r.u16()
	if r.err == nil && level != tagLvl {
		return nil, 0, fmt.Errorf("%w: tag %q carries level %d", kmall.ErrCorruptCompressedStream, h.Tag(), level)
	}
	if r.err == nil && scaleVersion != st.Version {
		return nil, 0, fmt.Errorf("%w: record scale version %d, table version %d", kmall.ErrUnsupportedLevel, scaleVersion, st.Version)
	}

	d := &kmall.MRZ{}
	d.Header = h
	copy(d.Header.DgmType[:], kmall.TagMRZ)

	d.Partition.NumOfDgms = r.u16()
	d.Partition.DgmNum = r.u16()

	d.CmnPart = kmall.MBody{
		NumBytesCmnPart:    12,
		PingCnt:            r.u16(),
		RxFansPerPing:      r.u8(),
		RxFanIndex:         r.u8(),
		SwathsPerPing:      r.u8(),
		SwathAlongPosition: r.u8(),
		TxTransducerInd:    r.u8(),
		RxTransducerInd:    r.u8(),
		NumRxTransducers:   r.u8(),
		AlgorithmType:      r.u8(),
	}

	p := &d.PingInfo
	p.NumBytesInfoData = 144
	p.PingRateHz = dequant32(r.i32(), st.Hertz)
	p.BeamSpacing = r.u8()
	p.DepthMode = r.u8()
	p.SubDepthMode = r.u8()
	p.DistanceBtwSwath = r.u8()
	p.DetectionMode = r.u8()
	p.PulseForm = r.u8()
	p.FrequencyModeHz = dequant32(r.i32(), st.Hertz)
	p.FreqRangeLowLimHz = dequant32(r.i32(), st.Hertz)
	p.FreqRangeHighLimHz = dequant32(r.i32(), st.Hertz)
	p.MaxTotalTxPulseLengthSec = dequant32(r.i32(), st.Seconds)
	p.MaxEffTxPulseLengthSec = dequant32(r.i32(), st.Seconds)
	p.MaxEffTxBandWidthHz = dequant32(r.i32(), st.Hertz)
	p.AbsCoeffDBPerKm = dequant32(r.i32(), st.Decibels)
	p.PortSectorEdgeDeg = dequant32(r.i32(), st.AngleDeg)
	p.StarbSectorEdgeDeg = dequant32(r.i32(), st.AngleDeg)
	p.PortMeanCovDeg = dequant32(r.i32(), st.AngleDeg)
	p.StarbMeanCovDeg = dequant32(r.i32(), st.AngleDeg)
	p.PortMeanCovM = r.i16()
	p.StarbMeanCovM = r.i16()
	p.ModeAndStabilisation = r.u8()
	p.RuntimeFilter1 = r.u8()
	p.RuntimeFilter2 = r.u16()
	p.PipeTrackingStatus = r.u32()
	p.TransmitArraySizeUsedDeg = dequant32(r.i32(), st.AngleDeg)
	p.ReceiveArraySizeUsedDeg = dequant32(r.i32(), st.AngleDeg)
	p.TransmitPowerDB = dequant32(r.i32(), st.Decibels)
	p.SLrampUpTimeRemaining = r.u16()
	p.YawAngleDeg = dequant32(r.i32(), st.AngleDeg)
	p.HeadingVesselDeg = dequant32(r.i32(), st.AngleDeg)
	p.SoundSpeedAtTxDepthMPerS = dequant32(r.i32(), st.MetersPerSec)
	p.TxTransducerDepthM = dequant32(r.i32(), st.Meters)
	p.ZWaterLevelReRefPointM = dequant32(r.i32(), st.Meters)
	p.XKmallToAllM = dequant32(r.i32(), st.Meters)
	p.YKmallToAllM = dequant32(r.i32(), st.Meters)
	p.LatLongInfo = r.u8()
	p.PosSensorStatus = r.u8()
	p.AttitudeSensorStatus = r.u8()
	p.LatitudeDeg = dequant64(r.i64(), st.LatLonDeg)
	p.LongitudeDeg = dequant64(r.i64(), st.LatLonDeg)
	p.EllipsoidHeightReRefPtM = dequant32(r.i32(), st.Meters)

	if r.err == nil {
		if lat := p.LatitudeDeg; !math.IsNaN(lat) && (lat < -90.000001 || lat > 90.000001) {
			return nil, 0, fmt.Errorf("%w: latitude %g out of range", kmall.ErrCorruptCompressedStream, lat)
		}
		if lon := p.LongitudeDeg; !math.IsNaN(lon) && (lon < -360.000001 || lon > 360.000001) {
			return nil, 0, fmt.Errorf("%w: longitude %g out of range", kmall.ErrCorruptCompressedStream, lon)
		}
	}

	nSectors := int(r.u16())
	if r.err == nil && nSectors*27 > len(r.buf)-r.off {
		return nil, 0, fmt.Errorf("%w: %d tx sectors exceed body", kmall.ErrCorruptCompressedStream, nSectors)
	}
	p.NumTxSectors = uint16(nSectors)
	p.NumBytesPerTxSector = 36
	d.TxSectors = make([]kmall.MRZTxSector, 0, nSectors)
	for i := 0; i < nSectors && r.err == nil; i++ {
		d.TxSectors = append(d.TxSectors, kmall.MRZTxSector{
			TxSectorNumb:           r.u8(),
			TxArrNumber:            r.u8(),
			TxSubArray:             r.u8(),
			SectorTransmitDelaySec: dequant32(r.i32(), st.Seconds),
			TiltAngleReTxDeg:       dequant32(r.i32(), st.AngleDeg),
			TxNominalSourceLevelDB: dequant32(r.i32(), st.Decibels),
			TxFocusRangeM:          dequant32(r.i32(), st.Meters),
			CentreFreqHz:           dequant32(r.i32(), st.Hertz),
			SignalBandWidthHz:      dequant32(r.i32(), st.Hertz),
			TotalSignalLengthSec:   dequant32(r.i32(), st.Seconds),
			PulseShading:           r.u8(),
			SignalWaveForm:         r.u8(),
		})
	}

	rx := &d.RxInfo
	rx.NumBytesRxInfo = 32
	rx.NumBytesPerSounding = 120
	rx.NumBytesPerClass = 4
	rx.NumSoundingsMaxMain = r.u16()
	rx.NumSoundingsValidMain = r.u16()
	rx.WCSampleRate = dequant32(r.i32(), st.Hertz)
	rx.SeabedImageSampleRate = dequant32(r.i32(), st.Hertz)
	rx.BSnormalDB = dequant32(r.i32(), st.Decibels)
	rx.BSobliqueDB = dequant32(r.i32(), st.Decibels)
	rx.ExtraDetectionAlarmFlag = r.u16()
	rx.NumExtraDetections = r.u16()

	nClasses := int(r.u16())
	if r.err == nil && nClasses*4 > len(r.buf)-r.off {
		return nil, 0, fmt.Errorf("%w: %d detection classes exceed body", kmall.ErrCorruptCompressedStream, nClasses)
	}
	rx.NumExtraDetectionClasses = uint16(nClasses)
	d.ExtraDetClasses = make([]kmall.MRZExtraDetClass, 0, nClasses)
	for i := 0; i < nClasses && r.err == nil; i++ {
		d.ExtraDetClasses = append(d.ExtraDetClasses, kmall.MRZExtraDetClass{
			NumExtraDetInClass: r.u16(),
			Padding:            r.i8(),
			AlarmFlag:          r.u8(),
		})
	}

	nSoundings := int(r.u16())
	if r.err == nil && nSoundings*95 > len(r.buf)-r.off {
		return nil, 0, fmt.Errorf("%w: %d soundings exceed body", kmall.ErrCorruptCompressedStream, nSoundings)
	}
	d.Soundings = make([]kmall.MRZSounding, 0, nSoundings)
	for i := 0; i < nSoundings && r.err == nil; i++ {
		s := kmall.MRZSounding{
			SoundingIndex:            r.u16(),
			TxSectorNumb:             r.u8(),
			DetectionType:            r.u8(),
			DetectionMethod:          r.u8(),
			RejectionInfo1:           r.u8(),
			RejectionInfo2:           r.u8(),
			PostProcessingInfo:       r.u8(),
			DetectionClass:           r.u8(),
			DetectionConfidenceLevel: r.u8(),
			RangeFactor:              dequant32(r.i32(), st.Unitless),
			QualityFactor:            dequant32(r.i32(), st.Unitless),
			DetectionUncertaintyVerM: dequant32(r.i32(), st.Meters),
			DetectionUncertaintyHorM: dequant32(r.i32(), st.Meters),
			DetectionWindowLengthSec: dequant32(r.i32(), st.Seconds),
			EchoLengthSec:            dequant32(r.i32(), st.Seconds),
			WCBeamNumb:               r.u16(),
			WCRangeSamples:           r.u16(),
			WCNomBeamAngleAcrossDeg:  dequant32(r.i32(), st.AngleDeg),
			MeanAbsCoeffDBPerKm:      dequant32(r.i32(), st.Decibels),
			Reflectivity1DB:          dequant32(r.i32(), st.Decibels),
			Reflectivity2DB:          dequant32(r.i32(), st.Decibels),
			ReceiverSensitivityDB:    dequant32(r.i32(), st.Decibels),
			SourceLevelAppliedDB:     dequant32(r.i32(), st.Decibels),
			BSCalibrationDB:          dequant32(r.i32(), st.Decibels),
			TVGDB:                    dequant32(r.i32(), st.Decibels),
			BeamAngleReRxDeg:         dequant32(r.i32(), st.AngleDeg),
			BeamAngleCorrectionDeg:   dequant32(r.i32(), st.AngleDeg),
			TwoWayTravelTimeSec:      dequant32(r.i32(), st.Seconds),
			TwoWayTravelTimeCorrSec:  dequant32(r.i32(), st.Seconds),
			DeltaLatitudeDeg:         dequant32(r.i32(), st.DeltaDeg),
			DeltaLongitudeDeg:        dequant32(r.i32(), st.DeltaDeg),
			ZReRefPointM:             dequant32(r.i32(), st.Meters),
			YReRefPointM:             dequant32(r.i32(), st.Meters),
			XReRefPointM:             dequant32(r.i32(), st.Meters),
			BeamIncAngleAdjDeg:       dequant32(r.i32(), st.AngleDeg),
			RealTimeCleanInfo:        r.u16(),
		}
		if level == Level0 {
			s.SIStartRangeSamples = r.u16()
			s.SICentreSample = r.u16()
			s.SINumSamples = r.u16()
		}
		d.Soundings = append(d.Soundings, s)
	}

	if level == Level0 {
		siCount := int(r.u32())
		siTotal := 0
		for i := range d.Soundings {
			siTotal += int(d.Soundings[i].SINumSamples)
		}
		if r.err == nil && siCount != siTotal {
			return nil, 0, fmt.Errorf("%w: seabed image carries %d samples, soundings declare %d", kmall.ErrCorruptCompressedStream, siCount, siTotal)
		}
		if r.err == nil && siCount*2 > len(r.buf)-r.off {
			return nil, 0, fmt.Errorf("%w: %d seabed image samples exceed body", kmall.ErrCorruptCompressedStream, siCount)
		}
		d.SeabedImage = make([]int16, 0, siCount)
		for i := 0; i < siCount && r.err == nil; i++ {
			d.SeabedImage = append(d.SeabedImage, r.i16())
		}
	}

	if r.err != nil {
		return nil, 0, r.err
	}
	return d, level, nil
}
