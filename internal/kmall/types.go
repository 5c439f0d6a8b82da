package kmall

// Datagram type strings as they appear on disk. Every vendor tag starts
// with the '#' marker character.
const (
	TagIIP = "#IIP" // installation parameters (free text)
	TagIOP = "#IOP" // runtime parameters (free text)
	TagSPO = "#SPO" // position
	TagSKM = "#SKM" // attitude / KM binary sensor samples
	TagSVP = "#SVP" // sound velocity profile
	TagSVT = "#SVT" // sound velocity at transducer
	TagSCL = "#SCL" // clock
	TagCPO = "#CPO" // compatibility position
	TagMRZ = "#MRZ" // multibeam depth/range
	TagMWC = "#MWC" // water column

	// Synthetic tags emitted by the compression codec. Not part of the
	// vendor format.
	TagCZ0 = "#CZ0"
	TagCZ1 = "#CZ1"
)

// Header is the fixed 20-byte prefix shared by every datagram. The
// datagram length is duplicated in a trailing uint32; both counts include
// the length fields themselves.
type Header struct {
	NumBytesDgm   uint32
	DgmType       [4]byte
	DgmVersion    uint8
	SystemID      uint8
	EchoSounderID uint16
	TimeSec       uint32
	TimeNanosec   uint32
}

// Tag returns the datagram type as a string, e.g. "#MRZ".
func (h Header) Tag() string {
	return string(h.DgmType[:])
}

// Time combines the epoch seconds and nanosecond remainder into one
// floating point timestamp used for ordering.
func (h Header) Time() float64 {
	return float64(h.TimeSec) + float64(h.TimeNanosec)/1e9
}

// IndexEntry describes one datagram without decoding its body. Immutable
// once produced.
type IndexEntry struct {
	Time   float64
	Offset int64
	Size   uint32
	Tag    string
}

// FileIndex is the ordered list of entries spanning a file. Offsets are
// strictly increasing. Complete is false when the scan stopped short of
// the file end (truncated last record), ErrorCount counts malformed
// regions that were skipped over.
type FileIndex struct {
	Entries    []IndexEntry
	FileSize   int64
	Complete   bool
	ErrorCount int
}

// Datagram is the decoded form of one record. Exactly one concrete type
// exists per recognized tag, plus Partial for everything the decoder
// keeps opaque.
type Datagram interface {
	Hdr() Header
}

// Partial is a datagram whose header was fully parsed but whose body is
// retained as raw bytes. Produced for free-text parameter blocks
// (#IIP/#IOP) and for any unrecognized tag. Body excludes the header and
// the trailing length field.
type Partial struct {
	Header Header
	Body   []byte
}

func (d *Partial) Hdr() Header { return d.Header }

// Partition carries the multi-part info common to all M datagrams. Files
// written by the logger always hold merged datagrams (1 of 1).
type Partition struct {
	NumOfDgms uint16
	DgmNum    uint16
}

// MBody is the common body part of all M datagrams: which ping this
// record belongs to and which receive fan of that ping it carries.
type MBody struct {
	NumBytesCmnPart    uint16
	PingCnt            uint16
	RxFansPerPing      uint8
	RxFanIndex         uint8
	SwathsPerPing      uint8
	SwathAlongPosition uint8
	TxTransducerInd    uint8
	RxTransducerInd    uint8
	NumRxTransducers   uint8
	AlgorithmType      uint8
}

// MRZPingInfo holds the ping-level fields common to all soundings of one
// receive fan.
type MRZPingInfo struct {
	NumBytesInfoData          uint16
	Padding0                  uint16
	PingRateHz                float32
	BeamSpacing               uint8
	DepthMode                 uint8
	SubDepthMode              uint8
	DistanceBtwSwath          uint8
	DetectionMode             uint8
	PulseForm                 uint8
	Padding1                  uint16
	FrequencyModeHz           float32
	FreqRangeLowLimHz         float32
	FreqRangeHighLimHz        float32
	MaxTotalTxPulseLengthSec  float32
	MaxEffTxPulseLengthSec    float32
	MaxEffTxBandWidthHz       float32
	AbsCoeffDBPerKm           float32
	PortSectorEdgeDeg         float32
	StarbSectorEdgeDeg        float32
	PortMeanCovDeg            float32
	StarbMeanCovDeg           float32
	PortMeanCovM              int16
	StarbMeanCovM             int16
	ModeAndStabilisation      uint8
	RuntimeFilter1            uint8
	RuntimeFilter2            uint16
	PipeTrackingStatus        uint32
	TransmitArraySizeUsedDeg  float32
	ReceiveArraySizeUsedDeg   float32
	TransmitPowerDB           float32
	SLrampUpTimeRemaining     uint16
	Padding2                  uint16
	YawAngleDeg               float32
	NumTxSectors              uint16
	NumBytesPerTxSector       uint16
	HeadingVesselDeg          float32
	SoundSpeedAtTxDepthMPerS  float32
	TxTransducerDepthM        float32
	ZWaterLevelReRefPointM    float32
	XKmallToAllM              float32
	YKmallToAllM              float32
	LatLongInfo               uint8
	PosSensorStatus           uint8
	AttitudeSensorStatus      uint8
	Padding3                  uint8
	LatitudeDeg               float64
	LongitudeDeg              float64
	EllipsoidHeightReRefPtM   float32
}

// MRZTxSector describes one transmit sector of the ping.
type MRZTxSector struct {
	TxSectorNumb          uint8
	TxArrNumber           uint8
	TxSubArray            uint8
	Padding0              uint8
	SectorTransmitDelaySec float32
	TiltAngleReTxDeg      float32
	TxNominalSourceLevelDB float32
	TxFocusRangeM         float32
	CentreFreqHz          float32
	SignalBandWidthHz     float32
	TotalSignalLengthSec  float32
	PulseShading          uint8
	SignalWaveForm        uint8
	Padding1              uint16
}

// MRZRxInfo describes the receiver unit used in this swath and sizes the
// variable-length blocks that follow it.
type MRZRxInfo struct {
	NumBytesRxInfo           uint16
	NumSoundingsMaxMain      uint16
	NumSoundingsValidMain    uint16
	NumBytesPerSounding      uint16
	WCSampleRate             float32
	SeabedImageSampleRate    float32
	BSnormalDB               float32
	BSobliqueDB              float32
	ExtraDetectionAlarmFlag  uint16
	NumExtraDetections       uint16
	NumExtraDetectionClasses uint16
	NumBytesPerClass         uint16
}

// MRZExtraDetClass groups extra detections by detection class.
type MRZExtraDetClass struct {
	NumExtraDetInClass uint16
	Padding            int8
	AlarmFlag          uint8
}

// MRZSounding is one depth/range detection. SINumSamples sizes this
// sounding's share of the seabed-image sample array that trails the
// sounding block.
type MRZSounding struct {
	SoundingIndex            uint16
	TxSectorNumb             uint8
	DetectionType            uint8
	DetectionMethod          uint8
	RejectionInfo1           uint8
	RejectionInfo2           uint8
	PostProcessingInfo       uint8
	DetectionClass           uint8
	DetectionConfidenceLevel uint8
	Padding                  uint16
	RangeFactor              float32
	QualityFactor            float32
	DetectionUncertaintyVerM float32
	DetectionUncertaintyHorM float32
	DetectionWindowLengthSec float32
	EchoLengthSec            float32
	WCBeamNumb               uint16
	WCRangeSamples           uint16
	WCNomBeamAngleAcrossDeg  float32
	MeanAbsCoeffDBPerKm      float32
	Reflectivity1DB          float32
	Reflectivity2DB          float32
	ReceiverSensitivityDB    float32
	SourceLevelAppliedDB     float32
	BSCalibrationDB          float32
	TVGDB                    float32
	BeamAngleReRxDeg         float32
	BeamAngleCorrectionDeg   float32
	TwoWayTravelTimeSec      float32
	TwoWayTravelTimeCorrSec  float32
	DeltaLatitudeDeg         float32
	DeltaLongitudeDeg        float32
	ZReRefPointM             float32
	YReRefPointM             float32
	XReRefPointM             float32
	BeamIncAngleAdjDeg       float32
	RealTimeCleanInfo        uint16
	SIStartRangeSamples      uint16
	SICentreSample           uint16
	SINumSamples             uint16
}

// MRZ is the multibeam depth/range datagram, the richest record kind.
// SeabedImage holds the concatenated per-sounding sample sub-arrays in
// 0.1 dB units; its length equals the sum of SINumSamples over Soundings.
type MRZ struct {
	Header          Header
	Partition       Partition
	CmnPart         MBody
	PingInfo        MRZPingInfo
	TxSectors       []MRZTxSector
	RxInfo          MRZRxInfo
	ExtraDetClasses []MRZExtraDetClass
	Soundings       []MRZSounding
	SeabedImage     []int16
}

func (d *MRZ) Hdr() Header { return d.Header }

// SCommon is the body prefix shared by the S datagrams that carry it.
type SCommon struct {
	NumBytesCmnPart uint16
	SensorSystem    uint16
	SensorStatus    uint16
	Padding         uint16
}

// SPOData is the position sensor data block, shared in layout with #CPO.
// RawInput is the sensor telegram as received, uncorrected.
type SPOData struct {
	TimeSec                 uint32
	TimeNanosec             uint32
	PosFixQualityM          float32
	CorrectedLatDeg         float64
	CorrectedLonDeg         float64
	SpeedOverGroundMPerSec  float32
	CourseOverGroundDeg     float32
	EllipsoidHeightReRefPtM float32
	RawInput                []byte
}

// SPO is the position datagram.
type SPO struct {
	Header  Header
	CmnPart SCommon
	Data    SPOData
}

func (d *SPO) Hdr() Header { return d.Header }

// CPO is the compatibility position datagram. Same data block layout as
// #SPO, kept as a distinct variant.
type CPO struct {
	Header  Header
	CmnPart SCommon
	Data    SPOData
}

func (d *CPO) Hdr() Header { return d.Header }

// SKMInfo sizes and qualifies the KM binary sample array of an #SKM
// datagram.
type SKMInfo struct {
	NumBytesInfoPart   uint16
	SensorSystem       uint8
	SensorStatus       uint8
	SensorInputFormat  uint16
	NumSamplesArray    uint16
	NumBytesPerSample  uint16
	SensorDataContents uint16
}

// KMBinary is one attitude/position/velocity sample in the KM binary
// sensor format.
type KMBinary struct {
	DgmType                 [4]byte
	NumBytesDgm             uint16
	DgmVersion              uint16
	TimeSec                 uint32
	TimeNanosec             uint32
	Status                  uint32
	LatitudeDeg             float64
	LongitudeDeg            float64
	EllipsoidHeightM        float32
	RollDeg                 float32
	PitchDeg                float32
	HeadingDeg              float32
	HeaveM                  float32
	RollRate                float32
	PitchRate               float32
	YawRate                 float32
	VelNorth                float32
	VelEast                 float32
	VelDown                 float32
	LatitudeErrorM          float32
	LongitudeErrorM         float32
	EllipsoidHeightErrorM   float32
	RollErrorDeg            float32
	PitchErrorDeg           float32
	HeadingErrorDeg         float32
	HeaveErrorM             float32
	NorthAcceleration       float32
	EastAcceleration        float32
	DownAcceleration        float32
}

// Time combines the sample's epoch seconds and nanosecond remainder.
func (k KMBinary) Time() float64 {
	return float64(k.TimeSec) + float64(k.TimeNanosec)/1e9
}

// KMDelayedHeave trails each KM binary sample when the sensor provides
// delayed heave.
type KMDelayedHeave struct {
	TimeSec       uint32
	TimeNanosec   uint32
	DelayedHeaveM float32
}

// SKMSample pairs one KM binary sample with its delayed heave block.
type SKMSample struct {
	KMB          KMBinary
	DelayedHeave KMDelayedHeave
}

// SKM is the attitude datagram: a batch of KM binary sensor samples.
type SKM struct {
	Header  Header
	Info    SKMInfo
	Samples []SKMSample
}

func (d *SKM) Hdr() Header { return d.Header }

// SVPPoint is one depth point of a sound velocity profile.
type SVPPoint struct {
	DepthM               float32
	SoundVelocityMPerSec float32
	Padding              uint32
	TempC                float32
	Salinity             float32
}

// SVP is the sound velocity profile datagram.
type SVP struct {
	Header       Header
	NumBytesCmnPart uint16
	SensorFormat [4]byte
	TimeSec      uint32
	LatitudeDeg  float64
	LongitudeDeg float64
	Samples      []SVPPoint
}

func (d *SVP) Hdr() Header { return d.Header }

// SVTInfo sizes and qualifies the sample array of an #SVT datagram.
type SVTInfo struct {
	NumBytesInfoPart     uint16
	SensorStatus         uint16
	SensorInputFormat    uint16
	NumSamplesArray      uint16
	NumBytesPerSample    uint16
	SensorDataContents   uint16
	FilterTimeSec        float32
	SoundVelocityOffsetMPerSec float32
}

// SVTSample is one sound velocity probe sample.
type SVTSample struct {
	TimeSec              uint32
	TimeNanosec          uint32
	SoundVelocityMPerSec float32
	TempC                float32
	PressurePa           float32
	Salinity             float32
}

// SVT is the sound velocity at transducer datagram.
type SVT struct {
	Header  Header
	Info    SVTInfo
	Samples []SVTSample
}

func (d *SVT) Hdr() Header { return d.Header }

// SCL is the clock datagram. RawInput is the raw time telegram.
type SCL struct {
	Header            Header
	CmnPart           SCommon
	OffsetSec         float32
	ClockDevPUNanosec int32
	RawInput          []byte
}

func (d *SCL) Hdr() Header { return d.Header }

// MWCTxInfo is the transmit-sector block header of a water column
// datagram.
type MWCTxInfo struct {
	NumBytesTxInfo      uint16
	NumTxSectors        uint16
	NumBytesPerTxSector uint16
	Padding             int16
	HeaveM              float32
}

// MWCTxSector describes one transmit sector of a water column datagram.
type MWCTxSector struct {
	TiltAngleReTxDeg    float32
	CentreFreqHz        float32
	TxBeamWidthAlongDeg float32
	TxSectorNum         uint16
	Padding             int16
}

// MWCRxInfo sizes the beam array of a water column datagram. PhaseFlag
// selects the per-sample phase encoding (0 none, 1 int8, 2 int16).
type MWCRxInfo struct {
	NumBytesRxInfo       uint16
	NumBeams             uint16
	NumBytesPerBeamEntry uint8
	PhaseFlag            uint8
	TVGFunctionApplied   uint8
	TVGOffsetDB          int8
	SampleFreqHz         float32
	SoundVelocityMPerSec float32
}

// MWCBeam is one receive beam with its amplitude samples (0.5 dB units)
// and, when PhaseFlag > 0, the raw phase bytes.
type MWCBeam struct {
	BeamPointAngReVerticalDeg float32
	StartRangeSampleNum       uint16
	DetectedRangeInSamples    uint16
	BeamTxSectorNum           uint16
	NumSampleData             uint16
	SampleAmplitude05dB       []int8
	Phase                     []byte
}

// MWC is the water column datagram.
type MWC struct {
	Header    Header
	Partition Partition
	CmnPart   MBody
	TxInfo    MWCTxInfo
	TxSectors []MWCTxSector
	RxInfo    MWCRxInfo
	Beams     []MWCBeam
}

func (d *MWC) Hdr() Header { return d.Header }

// PingSummary is the subset of an #MRZ record needed by the
// ping-completeness check: header, partition and common body only.
type PingSummary struct {
	Header        Header
	Partition     Partition
	PingCnt       uint16
	RxFansPerPing uint8
	RxFanIndex    uint8
}
