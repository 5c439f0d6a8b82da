package kmall

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed byte length of the leading datagram header.
	HeaderSize = 20
	// FooterSize is the trailing duplicate of the length field.
	FooterSize = 4
	// MinDgmSize is the smallest well-formed datagram.
	MinDgmSize = HeaderSize + FooterSize

	// PingSummarySize is the record prefix needed by DecodePingSummary:
	// header, partition and the fixed part of the common M body.
	PingSummarySize = HeaderSize + 4 + 12
)

// ParseHeader decodes the fixed 20-byte datagram header.
func ParseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("%w: %d header bytes", ErrTruncatedRecord, len(buf))
	}
	h.NumBytesDgm = binary.LittleEndian.Uint32(buf[0:4])
	copy(h.DgmType[:], buf[4:8])
	h.DgmVersion = buf[8]
	h.SystemID = buf[9]
	h.EchoSounderID = binary.LittleEndian.Uint16(buf[10:12])
	h.TimeSec = binary.LittleEndian.Uint32(buf[12:16])
	h.TimeNanosec = binary.LittleEndian.Uint32(buf[16:20])
	return h, nil
}

// Decode parses one complete datagram. buf must hold exactly the record,
// leading length through trailing length. Tags without a registered
// schema, and the free-text parameter blocks, decode to *Partial rather
// than failing, so callers that only need header information are never
// blocked by unparsed kinds.
func Decode(buf []byte) (Datagram, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.NumBytesDgm < MinDgmSize || h.DgmType[0] != '#' {
		return nil, fmt.Errorf("%w: length %d tag %q", ErrMalformedHeader, h.NumBytesDgm, h.Tag())
	}
	if int(h.NumBytesDgm) > len(buf) {
		return nil, fmt.Errorf("%w: declared %d bytes, have %d", ErrTruncatedRecord, h.NumBytesDgm, len(buf))
	}
	if int(h.NumBytesDgm) < len(buf) {
		return nil, fmt.Errorf("%w: declared %d bytes, buffer holds %d", ErrMalformedHeader, h.NumBytesDgm, len(buf))
	}
	trailing := binary.LittleEndian.Uint32(buf[len(buf)-FooterSize:])
	if trailing != h.NumBytesDgm {
		return nil, fmt.Errorf("%w: leading length %d != trailing %d", ErrMalformedHeader, h.NumBytesDgm, trailing)
	}

	info, ok := LookupType(h.Tag())
	if !ok || info.Decode == nil {
		body := make([]byte, len(buf)-MinDgmSize)
		copy(body, buf[HeaderSize:len(buf)-FooterSize])
		return &Partial{Header: h, Body: body}, nil
	}

	c := newCursor(buf[:len(buf)-FooterSize])
	c.seek(HeaderSize)
	d, err := info.Decode(c, h)
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// DecodePingSummary decodes only the ping-info subset of an #MRZ record
// prefix. buf needs at least PingSummarySize bytes; the rest of the
// record is never touched.
func DecodePingSummary(buf []byte) (PingSummary, error) {
	var ps PingSummary
	h, err := ParseHeader(buf)
	if err != nil {
		return ps, err
	}
	if h.Tag() != TagMRZ {
		return ps, fmt.Errorf("%w: ping summary of %q", ErrMalformedHeader, h.Tag())
	}
	c := newCursor(buf)
	c.seek(HeaderSize)
	ps.Header = h
	ps.Partition.NumOfDgms = c.u16()
	ps.Partition.DgmNum = c.u16()
	c.u16() // numBytesCmnPart
	ps.PingCnt = c.u16()
	ps.RxFansPerPing = c.u8()
	ps.RxFanIndex = c.u8()
	if err := c.Err(); err != nil {
		return ps, err
	}
	return ps, nil
}

// structEnd seeks past a sized sub-struct so that unknown trailing fields
// of newer datagram versions are stepped over.
func (c *cursor) structEnd(start, declared int) {
	if c.err != nil {
		return
	}
	if declared < c.off-start {
		c.err = fmt.Errorf("%w: struct size %d smaller than parsed %d bytes", ErrTruncatedRecord, declared, c.off-start)
		return
	}
	c.seek(start + declared)
}

func decodePartition(c *cursor) Partition {
	return Partition{NumOfDgms: c.u16(), DgmNum: c.u16()}
}

func decodeMBody(c *cursor) MBody {
	start := c.pos()
	b := MBody{
		NumBytesCmnPart:    c.u16(),
		PingCnt:            c.u16(),
		RxFansPerPing:      c.u8(),
		RxFanIndex:         c.u8(),
		SwathsPerPing:      c.u8(),
		SwathAlongPosition: c.u8(),
		TxTransducerInd:    c.u8(),
		RxTransducerInd:    c.u8(),
		NumRxTransducers:   c.u8(),
		AlgorithmType:      c.u8(),
	}
	c.structEnd(start, int(b.NumBytesCmnPart))
	return b
}

func decodeMRZPingInfo(c *cursor) MRZPingInfo {
	start := c.pos()
	var p MRZPingInfo
	p.NumBytesInfoData = c.u16()
	p.Padding0 = c.u16()
	p.PingRateHz = c.f32()
	p.BeamSpacing = c.u8()
	p.DepthMode = c.u8()
	p.SubDepthMode = c.u8()
	p.DistanceBtwSwath = c.u8()
	p.DetectionMode = c.u8()
	p.PulseForm = c.u8()
	p.Padding1 = c.u16()
	p.FrequencyModeHz = c.f32()
	p.FreqRangeLowLimHz = c.f32()
	p.FreqRangeHighLimHz = c.f32()
	p.MaxTotalTxPulseLengthSec = c.f32()
	p.MaxEffTxPulseLengthSec = c.f32()
	p.MaxEffTxBandWidthHz = c.f32()
	p.AbsCoeffDBPerKm = c.f32()
	p.PortSectorEdgeDeg = c.f32()
	p.StarbSectorEdgeDeg = c.f32()
	p.PortMeanCovDeg = c.f32()
	p.StarbMeanCovDeg = c.f32()
	p.PortMeanCovM = c.i16()
	p.StarbMeanCovM = c.i16()
	p.ModeAndStabilisation = c.u8()
	p.RuntimeFilter1 = c.u8()
	p.RuntimeFilter2 = c.u16()
	p.PipeTrackingStatus = c.u32()
	p.TransmitArraySizeUsedDeg = c.f32()
	p.ReceiveArraySizeUsedDeg = c.f32()
	p.TransmitPowerDB = c.f32()
	p.SLrampUpTimeRemaining = c.u16()
	p.Padding2 = c.u16()
	p.YawAngleDeg = c.f32()
	p.NumTxSectors = c.u16()
	p.NumBytesPerTxSector = c.u16()
	p.HeadingVesselDeg = c.f32()
	p.SoundSpeedAtTxDepthMPerS = c.f32()
	p.TxTransducerDepthM = c.f32()
	p.ZWaterLevelReRefPointM = c.f32()
	p.XKmallToAllM = c.f32()
	p.YKmallToAllM = c.f32()
	p.LatLongInfo = c.u8()
	p.PosSensorStatus = c.u8()
	p.AttitudeSensorStatus = c.u8()
	p.Padding3 = c.u8()
	p.LatitudeDeg = c.f64()
	p.LongitudeDeg = c.f64()
	p.EllipsoidHeightReRefPtM = c.f32()
	c.structEnd(start, int(p.NumBytesInfoData))
	return p
}

func decodeMRZTxSector(c *cursor) MRZTxSector {
	return MRZTxSector{
		TxSectorNumb:           c.u8(),
		TxArrNumber:            c.u8(),
		TxSubArray:             c.u8(),
		Padding0:               c.u8(),
		SectorTransmitDelaySec: c.f32(),
		TiltAngleReTxDeg:       c.f32(),
		TxNominalSourceLevelDB: c.f32(),
		TxFocusRangeM:          c.f32(),
		CentreFreqHz:           c.f32(),
		SignalBandWidthHz:      c.f32(),
		TotalSignalLengthSec:   c.f32(),
		PulseShading:           c.u8(),
		SignalWaveForm:         c.u8(),
		Padding1:               c.u16(),
	}
}

func decodeMRZRxInfo(c *cursor) MRZRxInfo {
	start := c.pos()
	r := MRZRxInfo{
		NumBytesRxInfo:           c.u16(),
		NumSoundingsMaxMain:      c.u16(),
		NumSoundingsValidMain:    c.u16(),
		NumBytesPerSounding:      c.u16(),
		WCSampleRate:             c.f32(),
		SeabedImageSampleRate:    c.f32(),
		BSnormalDB:               c.f32(),
		BSobliqueDB:              c.f32(),
		ExtraDetectionAlarmFlag:  c.u16(),
		NumExtraDetections:       c.u16(),
		NumExtraDetectionClasses: c.u16(),
		NumBytesPerClass:         c.u16(),
	}
	c.structEnd(start, int(r.NumBytesRxInfo))
	return r
}

func decodeMRZSounding(c *cursor) MRZSounding {
	return MRZSounding{
		SoundingIndex:            c.u16(),
		TxSectorNumb:             c.u8(),
		DetectionType:            c.u8(),
		DetectionMethod:          c.u8(),
		RejectionInfo1:           c.u8(),
		RejectionInfo2:           c.u8(),
		PostProcessingInfo:       c.u8(),
		DetectionClass:           c.u8(),
		DetectionConfidenceLevel: c.u8(),
		Padding:                  c.u16(),
		RangeFactor:              c.f32(),
		QualityFactor:            c.f32(),
		DetectionUncertaintyVerM: c.f32(),
		DetectionUncertaintyHorM: c.f32(),
		DetectionWindowLengthSec: c.f32(),
		EchoLengthSec:            c.f32(),
		WCBeamNumb:               c.u16(),
		WCRangeSamples:           c.u16(),
		WCNomBeamAngleAcrossDeg:  c.f32(),
		MeanAbsCoeffDBPerKm:      c.f32(),
		Reflectivity1DB:          c.f32(),
		Reflectivity2DB:          c.f32(),
		ReceiverSensitivityDB:    c.f32(),
		SourceLevelAppliedDB:     c.f32(),
		BSCalibrationDB:          c.f32(),
		TVGDB:                    c.f32(),
		BeamAngleReRxDeg:         c.f32(),
		BeamAngleCorrectionDeg:   c.f32(),
		TwoWayTravelTimeSec:      c.f32(),
		TwoWayTravelTimeCorrSec:  c.f32(),
		DeltaLatitudeDeg:         c.f32(),
		DeltaLongitudeDeg:        c.f32(),
		ZReRefPointM:             c.f32(),
		YReRefPointM:             c.f32(),
		XReRefPointM:             c.f32(),
		BeamIncAngleAdjDeg:       c.f32(),
		RealTimeCleanInfo:        c.u16(),
		SIStartRangeSamples:      c.u16(),
		SICentreSample:           c.u16(),
		SINumSamples:             c.u16(),
	}
}

func decodeMRZ(c *cursor, h Header) (Datagram, error) {
	d := &MRZ{Header: h}
	d.Partition = decodePartition(c)
	d.CmnPart = decodeMBody(c)
	d.PingInfo = decodeMRZPingInfo(c)
	if err := c.Err(); err != nil {
		return nil, err
	}

	nSectors := int(d.PingInfo.NumTxSectors)
	if nSectors*int(d.PingInfo.NumBytesPerTxSector) > c.remaining() {
		return nil, fmt.Errorf("%w: %d tx sectors exceed body", ErrTruncatedRecord, nSectors)
	}
	d.TxSectors = make([]MRZTxSector, 0, nSectors)
	for i := 0; i < nSectors; i++ {
		start := c.pos()
		d.TxSectors = append(d.TxSectors, decodeMRZTxSector(c))
		c.structEnd(start, int(d.PingInfo.NumBytesPerTxSector))
	}

	d.RxInfo = decodeMRZRxInfo(c)
	if err := c.Err(); err != nil {
		return nil, err
	}

	nClasses := int(d.RxInfo.NumExtraDetectionClasses)
	if nClasses*int(d.RxInfo.NumBytesPerClass) > c.remaining() {
		return nil, fmt.Errorf("%w: %d detection classes exceed body", ErrTruncatedRecord, nClasses)
	}
	d.ExtraDetClasses = make([]MRZExtraDetClass, 0, nClasses)
	for i := 0; i < nClasses; i++ {
		start := c.pos()
		d.ExtraDetClasses = append(d.ExtraDetClasses, MRZExtraDetClass{
			NumExtraDetInClass: c.u16(),
			Padding:            c.i8(),
			AlarmFlag:          c.u8(),
		})
		c.structEnd(start, int(d.RxInfo.NumBytesPerClass))
	}

	nSoundings := int(d.RxInfo.NumSoundingsMaxMain) + int(d.RxInfo.NumExtraDetections)
	if nSoundings*int(d.RxInfo.NumBytesPerSounding) > c.remaining() {
		return nil, fmt.Errorf("%w: %d soundings exceed body", ErrTruncatedRecord, nSoundings)
	}
	d.Soundings = make([]MRZSounding, 0, nSoundings)
	siTotal := 0
	for i := 0; i < nSoundings; i++ {
		start := c.pos()
		s := decodeMRZSounding(c)
		c.structEnd(start, int(d.RxInfo.NumBytesPerSounding))
		d.Soundings = append(d.Soundings, s)
		// Running prefix sum; the seabed-image block is sized only by
		// the per-sounding counts.
		siTotal += int(s.SINumSamples)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	if siTotal*2 > c.remaining() {
		return nil, fmt.Errorf("%w: %d seabed image samples exceed body", ErrTruncatedRecord, siTotal)
	}
	d.SeabedImage = make([]int16, siTotal)
	for i := range d.SeabedImage {
		d.SeabedImage[i] = c.i16()
	}
	return d, c.Err()
}

func decodeSCommon(c *cursor) SCommon {
	start := c.pos()
	s := SCommon{
		NumBytesCmnPart: c.u16(),
		SensorSystem:    c.u16(),
		SensorStatus:    c.u16(),
		Padding:         c.u16(),
	}
	c.structEnd(start, int(s.NumBytesCmnPart))
	return s
}

// trimSensorText drops the zero padding the logger writes after the raw
// sensor telegram.
func trimSensorText(raw []byte) []byte {
	return bytes.TrimRight(raw, "\x00")
}

func decodeSPOData(c *cursor) SPOData {
	d := SPOData{
		TimeSec:                 c.u32(),
		TimeNanosec:             c.u32(),
		PosFixQualityM:          c.f32(),
		CorrectedLatDeg:         c.f64(),
		CorrectedLonDeg:         c.f64(),
		SpeedOverGroundMPerSec:  c.f32(),
		CourseOverGroundDeg:     c.f32(),
		EllipsoidHeightReRefPtM: c.f32(),
	}
	d.RawInput = trimSensorText(c.bytes(c.remaining()))
	return d
}

func decodeSPO(c *cursor, h Header) (Datagram, error) {
	d := &SPO{Header: h}
	d.CmnPart = decodeSCommon(c)
	d.Data = decodeSPOData(c)
	return d, c.Err()
}

func decodeCPO(c *cursor, h Header) (Datagram, error) {
	d := &CPO{Header: h}
	d.CmnPart = decodeSCommon(c)
	d.Data = decodeSPOData(c)
	return d, c.Err()
}

func decodeSKMInfo(c *cursor) SKMInfo {
	start := c.pos()
	i := SKMInfo{
		NumBytesInfoPart:   c.u16(),
		SensorSystem:       c.u8(),
		SensorStatus:       c.u8(),
		SensorInputFormat:  c.u16(),
		NumSamplesArray:    c.u16(),
		NumBytesPerSample:  c.u16(),
		SensorDataContents: c.u16(),
	}
	c.structEnd(start, int(i.NumBytesInfoPart))
	return i
}

func decodeKMBinary(c *cursor) KMBinary {
	k := KMBinary{
		DgmType:     c.tag4(),
		NumBytesDgm: c.u16(),
		DgmVersion:  c.u16(),
		TimeSec:     c.u32(),
		TimeNanosec: c.u32(),
		Status:      c.u32(),
		LatitudeDeg: c.f64(),
		LongitudeDeg: c.f64(),
	}
	k.EllipsoidHeightM = c.f32()
	k.RollDeg = c.f32()
	k.PitchDeg = c.f32()
	k.HeadingDeg = c.f32()
	k.HeaveM = c.f32()
	k.RollRate = c.f32()
	k.PitchRate = c.f32()
	k.YawRate = c.f32()
	k.VelNorth = c.f32()
	k.VelEast = c.f32()
	k.VelDown = c.f32()
	k.LatitudeErrorM = c.f32()
	k.LongitudeErrorM = c.f32()
	k.EllipsoidHeightErrorM = c.f32()
	k.RollErrorDeg = c.f32()
	k.PitchErrorDeg = c.f32()
	k.HeadingErrorDeg = c.f32()
	k.HeaveErrorM = c.f32()
	k.NorthAcceleration = c.f32()
	k.EastAcceleration = c.f32()
	k.DownAcceleration = c.f32()
	return k
}

func decodeSKM(c *cursor, h Header) (Datagram, error) {
	d := &SKM{Header: h}
	d.Info = decodeSKMInfo(c)
	if err := c.Err(); err != nil {
		return nil, err
	}
	n := int(d.Info.NumSamplesArray)
	if n*int(d.Info.NumBytesPerSample) > c.remaining() {
		return nil, fmt.Errorf("%w: %d attitude samples exceed body", ErrTruncatedRecord, n)
	}
	d.Samples = make([]SKMSample, 0, n)
	for i := 0; i < n; i++ {
		start := c.pos()
		s := SKMSample{KMB: decodeKMBinary(c)}
		s.DelayedHeave = KMDelayedHeave{
			TimeSec:       c.u32(),
			TimeNanosec:   c.u32(),
			DelayedHeaveM: c.f32(),
		}
		// The per-sample byte count covers the KM binary block plus the
		// delayed heave; honor it when it exceeds what was parsed.
		if stride := int(d.Info.NumBytesPerSample); stride > c.pos()-start {
			c.seek(start + stride)
		}
		d.Samples = append(d.Samples, s)
	}
	return d, c.Err()
}

func decodeSVP(c *cursor, h Header) (Datagram, error) {
	d := &SVP{Header: h}
	d.NumBytesCmnPart = c.u16()
	n := int(c.u16())
	d.SensorFormat = c.tag4()
	d.TimeSec = c.u32()
	d.LatitudeDeg = c.f64()
	d.LongitudeDeg = c.f64()
	if err := c.Err(); err != nil {
		return nil, err
	}
	if n*20 > c.remaining() {
		return nil, fmt.Errorf("%w: %d profile points exceed body", ErrTruncatedRecord, n)
	}
	d.Samples = make([]SVPPoint, 0, n)
	for i := 0; i < n; i++ {
		d.Samples = append(d.Samples, SVPPoint{
			DepthM:               c.f32(),
			SoundVelocityMPerSec: c.f32(),
			Padding:              c.u32(),
			TempC:                c.f32(),
			Salinity:             c.f32(),
		})
	}
	return d, c.Err()
}

func decodeSVTInfo(c *cursor) SVTInfo {
	start := c.pos()
	i := SVTInfo{
		NumBytesInfoPart:           c.u16(),
		SensorStatus:               c.u16(),
		SensorInputFormat:          c.u16(),
		NumSamplesArray:            c.u16(),
		NumBytesPerSample:          c.u16(),
		SensorDataContents:         c.u16(),
		FilterTimeSec:              c.f32(),
		SoundVelocityOffsetMPerSec: c.f32(),
	}
	c.structEnd(start, int(i.NumBytesInfoPart))
	return i
}

func decodeSVT(c *cursor, h Header) (Datagram, error) {
	d := &SVT{Header: h}
	d.Info = decodeSVTInfo(c)
	if err := c.Err(); err != nil {
		return nil, err
	}
	n := int(d.Info.NumSamplesArray)
	if n*int(d.Info.NumBytesPerSample) > c.remaining() {
		return nil, fmt.Errorf("%w: %d velocity samples exceed body", ErrTruncatedRecord, n)
	}
	d.Samples = make([]SVTSample, 0, n)
	for i := 0; i < n; i++ {
		start := c.pos()
		d.Samples = append(d.Samples, SVTSample{
			TimeSec:              c.u32(),
			TimeNanosec:          c.u32(),
			SoundVelocityMPerSec: c.f32(),
			TempC:                c.f32(),
			PressurePa:           c.f32(),
			Salinity:             c.f32(),
		})
		if stride := int(d.Info.NumBytesPerSample); stride > c.pos()-start {
			c.seek(start + stride)
		}
	}
	return d, c.Err()
}

func decodeSCL(c *cursor, h Header) (Datagram, error) {
	d := &SCL{Header: h}
	d.CmnPart = decodeSCommon(c)
	d.OffsetSec = c.f32()
	d.ClockDevPUNanosec = c.i32()
	d.RawInput = trimSensorText(c.bytes(c.remaining()))
	return d, c.Err()
}

func decodeMWC(c *cursor, h Header) (Datagram, error) {
	d := &MWC{Header: h}
	d.Partition = decodePartition(c)
	d.CmnPart = decodeMBody(c)

	start := c.pos()
	d.TxInfo = MWCTxInfo{
		NumBytesTxInfo:      c.u16(),
		NumTxSectors:        c.u16(),
		NumBytesPerTxSector: c.u16(),
		Padding:             c.i16(),
		HeaveM:              c.f32(),
	}
	c.structEnd(start, int(d.TxInfo.NumBytesTxInfo))
	if err := c.Err(); err != nil {
		return nil, err
	}

	nSectors := int(d.TxInfo.NumTxSectors)
	if nSectors*int(d.TxInfo.NumBytesPerTxSector) > c.remaining() {
		return nil, fmt.Errorf("%w: %d tx sectors exceed body", ErrTruncatedRecord, nSectors)
	}
	d.TxSectors = make([]MWCTxSector, 0, nSectors)
	for i := 0; i < nSectors; i++ {
		start := c.pos()
		d.TxSectors = append(d.TxSectors, MWCTxSector{
			TiltAngleReTxDeg:    c.f32(),
			CentreFreqHz:        c.f32(),
			TxBeamWidthAlongDeg: c.f32(),
			TxSectorNum:         c.u16(),
			Padding:             c.i16(),
		})
		c.structEnd(start, int(d.TxInfo.NumBytesPerTxSector))
	}

	start = c.pos()
	d.RxInfo = MWCRxInfo{
		NumBytesRxInfo:       c.u16(),
		NumBeams:             c.u16(),
		NumBytesPerBeamEntry: c.u8(),
		PhaseFlag:            c.u8(),
		TVGFunctionApplied:   c.u8(),
		TVGOffsetDB:          c.i8(),
		SampleFreqHz:         c.f32(),
		SoundVelocityMPerSec: c.f32(),
	}
	c.structEnd(start, int(d.RxInfo.NumBytesRxInfo))
	if err := c.Err(); err != nil {
		return nil, err
	}

	nBeams := int(d.RxInfo.NumBeams)
	if nBeams*int(d.RxInfo.NumBytesPerBeamEntry) > c.remaining() {
		return nil, fmt.Errorf("%w: %d beams exceed body", ErrTruncatedRecord, nBeams)
	}
	d.Beams = make([]MWCBeam, 0, nBeams)
	for i := 0; i < nBeams; i++ {
		start := c.pos()
		b := MWCBeam{
			BeamPointAngReVerticalDeg: c.f32(),
			StartRangeSampleNum:       c.u16(),
			DetectedRangeInSamples:    c.u16(),
			BeamTxSectorNum:           c.u16(),
			NumSampleData:             c.u16(),
		}
		if stride := int(d.RxInfo.NumBytesPerBeamEntry); stride > c.pos()-start {
			c.seek(start + stride)
		}
		n := int(b.NumSampleData)
		if n > c.remaining() {
			return nil, fmt.Errorf("%w: beam %d samples exceed body", ErrTruncatedRecord, i)
		}
		raw := c.take(n)
		b.SampleAmplitude05dB = make([]int8, n)
		for j := 0; j < n && raw != nil; j++ {
			b.SampleAmplitude05dB[j] = int8(raw[j])
		}
		switch d.RxInfo.PhaseFlag {
		case 1:
			b.Phase = c.bytes(n)
		case 2:
			b.Phase = c.bytes(2 * n)
		}
		if err := c.Err(); err != nil {
			return nil, err
		}
		d.Beams = append(d.Beams, b)
	}
	return d, c.Err()
}
