package basedata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Kind is the on-disk encoding of one layout field.
type Kind uint8

const (
	Uint8 Kind = iota + 1
	Uint16
	Int16
	Uint32
	Int32
	Text // fixed-width GB18030 string, NUL padded
)

func (k Kind) width() int {
	switch k {
	case Uint8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32:
		return 4
	default:
		return 0
	}
}

// LayoutField describes one scalar at a fixed byte offset within a block.
type LayoutField struct {
	Name   string
	Offset int
	Kind   Kind
	Len    int // Text only
}

func (f LayoutField) end() int {
	if f.Kind == Text {
		return f.Offset + f.Len
	}
	return f.Offset + f.Kind.width()
}

// Layout is a declarative description of a fixed-size binary block.
type Layout struct {
	Name   string
	Size   int
	Fields []LayoutField
}

// Values holds the scalars decoded from one block.
type Values struct {
	ints  map[string]int64
	texts map[string]string
}

// Int returns the integer field name, or 0 when the layout has no such field.
func (v Values) Int(name string) int64 { return v.ints[name] }

// Text returns the string field name, or "" when the layout has no such field.
func (v Values) Text(name string) string { return v.texts[name] }

// Decode reads every field of l from the start of buf.
func (l Layout) Decode(buf []byte) (Values, error) {
	if len(buf) < l.Size {
		return Values{}, &DecodeError{Record: -1, Reason: fmt.Sprintf("%s: need %d bytes, have %d", l.Name, l.Size, len(buf))}
	}
	vals := Values{ints: make(map[string]int64, len(l.Fields))}
	for _, f := range l.Fields {
		b := buf[f.Offset:f.end()]
		switch f.Kind {
		case Uint8:
			vals.ints[f.Name] = int64(b[0])
		case Uint16:
			vals.ints[f.Name] = int64(binary.LittleEndian.Uint16(b))
		case Int16:
			vals.ints[f.Name] = int64(int16(binary.LittleEndian.Uint16(b)))
		case Uint32:
			vals.ints[f.Name] = int64(binary.LittleEndian.Uint32(b))
		case Int32:
			vals.ints[f.Name] = int64(int32(binary.LittleEndian.Uint32(b)))
		case Text:
			if vals.texts == nil {
				vals.texts = make(map[string]string)
			}
			vals.texts[f.Name] = decodeText(b)
		}
	}
	return vals, nil
}

// decodeText converts a NUL-padded GB18030 field to UTF-8. Undecodable bytes
// fall back to the raw string.
func decodeText(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(b)
	if err != nil {
		out = b
	}
	return strings.TrimSpace(string(out))
}

// Codec maps a one-byte gate code to a physical value:
//
//	value = (code-Bias)/Divisor + Offset, times the nyquist velocity if NyquistScaled.
//
// Codes at or below MissingAtOrBelow decode to the missing marker.
type Codec struct {
	Bias             float64
	Divisor          float64
	Offset           float64
	NyquistScaled    bool
	MissingAtOrBelow uint8
}

// Apply decodes one gate code.
func (c Codec) Apply(code uint8, nyquist float64) float32 {
	if code <= c.MissingAtOrBelow {
		return Missing
	}
	v := (float64(code)-c.Bias)/c.Divisor + c.Offset
	if c.NyquistScaled {
		v *= nyquist
	}
	return float32(v)
}

// MomentSpec places one moment's gates inside a radial record.
type MomentSpec struct {
	Name  string
	Codec Codec
	// GatesField names the radial header field holding this moment's gate
	// count (SAB family, moments stored back to back).
	GatesField string
	// Lane is the byte position of this moment inside each interleaved gate
	// (SC2).
	Lane int
}

// VariantLayout is the complete radial description for one Variant.
type VariantLayout struct {
	Variant    Variant
	RecordSize int
	Header     Layout
	Moments    []MomentSpec
	// Interleaved gates: Gates gates of len(Moments) bytes each, right after
	// the header. Otherwise moments follow each other in Moments order.
	Interleaved bool
	Gates       int
}

// Moment names.
const (
	MomentReflectivity      = "dBZ"
	MomentTotalReflectivity = "dBT"
	MomentVelocity          = "V"
	MomentWidth             = "W"
)

// SAB family radial header field names.
const (
	FieldMessageType      = "MessageType"
	FieldMilliseconds     = "Milliseconds"
	FieldJulianDate       = "JulianDate"
	FieldUnambiguousRange = "UnambiguousRange"
	FieldAzimuth          = "Azimuth"
	FieldRadialNumber     = "RadialNumber"
	FieldRadialStatus     = "RadialStatus"
	FieldElevation        = "Elevation"
	FieldElevationNumber  = "ElevationNumber"
	FieldRefFirstGate     = "RangeToFirstGateOfReflectivity"
	FieldDopFirstGate     = "RangeToFirstGateOfDoppler"
	FieldRefGateSize      = "GateSizeOfReflectivity"
	FieldDopGateSize      = "GateSizeOfDoppler"
	FieldRefGates         = "GatesNumberOfReflectivity"
	FieldDopGates         = "GatesNumberOfDoppler"
	FieldCutSector        = "CutSectorNumber"
	FieldCalibration      = "CalibrationConstant"
	FieldRefPointer       = "PointerOfReflectivity"
	FieldVelPointer       = "PointerOfVelocity"
	FieldWidthPointer     = "PointerOfSpectrumWidth"
	FieldVelResolution    = "ResolutionOfVelocity"
	FieldVCP              = "VcpNumber"
	FieldNyquist          = "Nyquist"
)

// SC2 radial header field names.
const (
	FieldStartAzimuth   = "StartAzimuth"
	FieldStartElevation = "StartElevation"
	FieldEndAzimuth     = "EndAzimuth"
	FieldEndElevation   = "EndElevation"
)

const (
	sabHeaderSize = 128
	sabMarkerOff  = 14
	sc2Gates      = 998
)

var sabRadialHeader = Layout{
	Name: "SAB radial header",
	Size: sabHeaderSize,
	Fields: []LayoutField{
		{Name: FieldMessageType, Offset: sabMarkerOff, Kind: Uint16},
		{Name: FieldMilliseconds, Offset: 28, Kind: Uint32},
		{Name: FieldJulianDate, Offset: 32, Kind: Uint16},
		{Name: FieldUnambiguousRange, Offset: 34, Kind: Uint16},
		{Name: FieldAzimuth, Offset: 36, Kind: Uint16},
		{Name: FieldRadialNumber, Offset: 38, Kind: Uint16},
		{Name: FieldRadialStatus, Offset: 40, Kind: Uint16},
		{Name: FieldElevation, Offset: 42, Kind: Uint16},
		{Name: FieldElevationNumber, Offset: 44, Kind: Uint16},
		{Name: FieldRefFirstGate, Offset: 46, Kind: Int16},
		{Name: FieldDopFirstGate, Offset: 48, Kind: Int16},
		{Name: FieldRefGateSize, Offset: 50, Kind: Uint16},
		{Name: FieldDopGateSize, Offset: 52, Kind: Uint16},
		{Name: FieldRefGates, Offset: 54, Kind: Uint16},
		{Name: FieldDopGates, Offset: 56, Kind: Uint16},
		{Name: FieldCutSector, Offset: 58, Kind: Uint16},
		{Name: FieldCalibration, Offset: 60, Kind: Uint32},
		{Name: FieldRefPointer, Offset: 64, Kind: Uint16},
		{Name: FieldVelPointer, Offset: 66, Kind: Uint16},
		{Name: FieldWidthPointer, Offset: 68, Kind: Uint16},
		{Name: FieldVelResolution, Offset: 70, Kind: Int16},
		{Name: FieldVCP, Offset: 72, Kind: Uint16},
		{Name: FieldNyquist, Offset: 88, Kind: Uint16},
	},
}

var sc2RadialHeader = Layout{
	Name: "SC2 radial header",
	Size: 8,
	Fields: []LayoutField{
		{Name: FieldStartAzimuth, Offset: 0, Kind: Uint16},
		{Name: FieldStartElevation, Offset: 2, Kind: Uint16},
		{Name: FieldEndAzimuth, Offset: 4, Kind: Uint16},
		{Name: FieldEndElevation, Offset: 6, Kind: Uint16},
	},
}

var (
	sabReflectivity = Codec{Bias: 2, Divisor: 2, Offset: -32, MissingAtOrBelow: 1}
	sabDoppler      = Codec{Bias: 2, Divisor: 2, Offset: -63.5, MissingAtOrBelow: 1}

	sc2Reflectivity = Codec{Bias: 64, Divisor: 2}
	sc2Velocity     = Codec{Bias: 128, Divisor: 128, NyquistScaled: true}
	sc2Width        = Codec{Divisor: 256, NyquistScaled: true}
)

var sabMoments = []MomentSpec{
	{Name: MomentReflectivity, Codec: sabReflectivity, GatesField: FieldRefGates},
	{Name: MomentVelocity, Codec: sabDoppler, GatesField: FieldDopGates},
	{Name: MomentWidth, Codec: sabDoppler, GatesField: FieldDopGates},
}

var registry = map[Variant]VariantLayout{
	VariantSAB:      {Variant: VariantSAB, RecordSize: 2432, Header: sabRadialHeader, Moments: sabMoments},
	VariantCB:       {Variant: VariantCB, RecordSize: 4132, Header: sabRadialHeader, Moments: sabMoments},
	VariantSCLegacy: {Variant: VariantSCLegacy, RecordSize: 3132, Header: sabRadialHeader, Moments: sabMoments},
	VariantSC2: {
		Variant:    VariantSC2,
		RecordSize: 4000,
		Header:     sc2RadialHeader,
		Moments: []MomentSpec{
			{Name: MomentReflectivity, Codec: sc2Reflectivity, Lane: 0},
			{Name: MomentVelocity, Codec: sc2Velocity, Lane: 1},
			{Name: MomentTotalReflectivity, Codec: sc2Reflectivity, Lane: 2},
			{Name: MomentWidth, Codec: sc2Width, Lane: 3},
		},
		Interleaved: true,
		Gates:       sc2Gates,
	},
}

// LayoutFor returns the radial layout of v. The zero VariantLayout is
// returned for VariantUnknown.
func LayoutFor(v Variant) VariantLayout {
	return registry[v]
}

// sabFamily lists the SAB family variants in detection order.
var sabFamily = []Variant{VariantSAB, VariantCB, VariantSCLegacy}

// SC2 file header layout. Offsets are absolute within the 1024-byte header.
const (
	sc2HeaderSize       = 1024
	sc2SiteOffset       = 0
	sc2PerformanceOff   = 170
	sc2ObservationOff   = 201
	sc2LayerOffset      = 217
	sc2LayerSize        = 21
	sc2MaxLayers        = 30
	sc2ObservationEnd   = sc2LayerOffset + sc2LayerSize*sc2MaxLayers
	sc2VolumeScanOffset = 100
)

var sc2Site = Layout{
	Name: "SC2 radar site",
	Size: 170,
	Fields: []LayoutField{
		{Name: "Country", Offset: 0, Kind: Text, Len: 30},
		{Name: "Province", Offset: 30, Kind: Text, Len: 20},
		{Name: "Station", Offset: 50, Kind: Text, Len: 40},
		{Name: "StationNumber", Offset: 90, Kind: Text, Len: 10},
		{Name: "RadarType", Offset: 100, Kind: Text, Len: 20},
		{Name: "LongitudeText", Offset: 120, Kind: Text, Len: 16},
		{Name: "LatitudeText", Offset: 136, Kind: Text, Len: 16},
		{Name: "LongitudeValue", Offset: 152, Kind: Int32},
		{Name: "LatitudeValue", Offset: 156, Kind: Int32},
		{Name: "Height", Offset: 160, Kind: Int32},
		{Name: "MaxAngle", Offset: 164, Kind: Int16},
		{Name: "OptimalAngle", Offset: 166, Kind: Int16},
		{Name: "ManagementFrequency", Offset: 168, Kind: Int16},
	},
}

var sc2Performance = Layout{
	Name: "SC2 radar performance",
	Size: 31,
	Fields: []LayoutField{
		{Name: "AntennaGain", Offset: 0, Kind: Int32},
		{Name: "BeamWidthH", Offset: 4, Kind: Uint16},
		{Name: "BeamWidthV", Offset: 6, Kind: Uint16},
		{Name: "Polarization", Offset: 8, Kind: Uint8},
		{Name: "SideLobe", Offset: 9, Kind: Uint8},
		{Name: "Power", Offset: 10, Kind: Int32},
		{Name: "Wavelength", Offset: 14, Kind: Int32},
		{Name: "LogDynamicRange", Offset: 18, Kind: Uint16},
		{Name: "LinearDynamicRange", Offset: 20, Kind: Uint16},
		{Name: "AGCDelay", Offset: 22, Kind: Uint16},
		{Name: "ClutterThreshold", Offset: 24, Kind: Uint8},
		{Name: "VelocityProcessing", Offset: 25, Kind: Uint8},
		{Name: "FilterProcessing", Offset: 26, Kind: Uint8},
		{Name: "NoiseThreshold", Offset: 27, Kind: Uint8},
		{Name: "SQIThreshold", Offset: 28, Kind: Uint8},
		{Name: "IntensityCorrection", Offset: 29, Kind: Uint8},
		{Name: "IntensityRange", Offset: 30, Kind: Uint8},
	},
}

var sc2Observation = Layout{
	Name: "SC2 observation start",
	Size: 16,
	Fields: []LayoutField{
		{Name: "ScanType", Offset: 0, Kind: Uint8},
		{Name: "Year", Offset: 1, Kind: Uint16},
		{Name: "Month", Offset: 3, Kind: Uint8},
		{Name: "Day", Offset: 4, Kind: Uint8},
		{Name: "Hour", Offset: 5, Kind: Uint8},
		{Name: "Minute", Offset: 6, Kind: Uint8},
		{Name: "Second", Offset: 7, Kind: Uint8},
		{Name: "TimeSource", Offset: 8, Kind: Uint8},
		{Name: "Millisecond", Offset: 9, Kind: Uint32},
		{Name: "Calibration", Offset: 13, Kind: Uint8},
		{Name: "IntensityIntegration", Offset: 14, Kind: Uint8},
		{Name: "VelocitySamples", Offset: 15, Kind: Uint8},
	},
}

var sc2Layer = Layout{
	Name: "SC2 layer parameters",
	Size: sc2LayerSize,
	Fields: []LayoutField{
		{Name: "AmbiguityMode", Offset: 0, Kind: Uint8},
		{Name: "RotationSpeed", Offset: 1, Kind: Uint16},
		{Name: "PRF1", Offset: 3, Kind: Uint16},
		{Name: "PRF2", Offset: 5, Kind: Uint16},
		{Name: "PulseWidth", Offset: 7, Kind: Uint16},
		{Name: "MaxV", Offset: 9, Kind: Uint16},
		{Name: "MaxL", Offset: 11, Kind: Uint16},
		{Name: "BinWidth", Offset: 13, Kind: Uint16},
		{Name: "BinNumber", Offset: 15, Kind: Uint16},
		{Name: "RecordNumber", Offset: 17, Kind: Uint16},
		{Name: "SweepAngle", Offset: 19, Kind: Int16},
	},
}

var sc2ObservationEndLayout = Layout{
	Name: "SC2 observation end",
	Size: 14,
	Fields: []LayoutField{
		{Name: "RHIAzimuth", Offset: 0, Kind: Uint16},
		{Name: "RHILowElevation", Offset: 2, Kind: Int16},
		{Name: "RHIHighElevation", Offset: 4, Kind: Int16},
		{Name: "Year", Offset: 6, Kind: Uint16},
		{Name: "Month", Offset: 8, Kind: Uint8},
		{Name: "Day", Offset: 9, Kind: Uint8},
		{Name: "Hour", Offset: 10, Kind: Uint8},
		{Name: "Minute", Offset: 11, Kind: Uint8},
		{Name: "Second", Offset: 12, Kind: Uint8},
		{Name: "Tenth", Offset: 13, Kind: Uint8},
	},
}
