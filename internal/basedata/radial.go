package basedata

import (
	"math"
	"time"
)

// Missing marks a gate with no valid measurement. It is a NaN, so compare
// with IsMissing rather than ==.
var Missing = float32(math.NaN())

// IsMissing reports whether v is the no-data marker.
func IsMissing(v float32) bool {
	return v != v
}

// RadialHeader holds the per-ray scalars of one radial record. SAB family
// records fill every field except the sector bounds; SC2 records fill only the
// sector bounds.
type RadialHeader struct {
	Status           int
	AzimuthCode      int
	ElevationCode    int
	ElevationNumber  int
	RadialNumber     int
	JulianDate       int
	Milliseconds     int64
	NyquistCode      int // m/s * 100
	URangeCode       int // km * 10
	RefFirstGate     int // m
	DopFirstGate     int // m
	RefGateSize      int // m
	DopGateSize      int // m
	RefGates         int
	DopGates         int
	VCP              int
	StartAzimuthCode int
	StartElevCode    int
	EndAzimuthCode   int
	EndElevCode      int
}

// Nyquist returns the ray's nyquist velocity in m/s (SAB family).
func (h RadialHeader) Nyquist() float64 { return float64(h.NyquistCode) / 100 }

// UnambiguousRange returns the ray's unambiguous range in km (SAB family).
func (h RadialHeader) UnambiguousRange() float64 { return float64(h.URangeCode) / 10 }

// Time returns the ray acquisition time in UTC (SAB family). Day 1 is
// 1970-01-01.
func (h RadialHeader) Time() time.Time {
	return sabEpoch.AddDate(0, 0, h.JulianDate).Add(time.Duration(h.Milliseconds) * time.Millisecond)
}

var sabEpoch = time.Date(1969, time.December, 31, 0, 0, 0, 0, time.UTC)

// Radial is one decoded ray: header scalars plus moment gates in physical
// units. A moment the record does not carry has an empty slice.
type Radial struct {
	Header    RadialHeader
	Azimuth   float64 // degrees
	Elevation float64 // degrees
	Moments   map[string][]float32
}

// Has reports whether the ray carries at least one gate of moment.
func (r Radial) Has(moment string) bool {
	return len(r.Moments[moment]) > 0
}

func sabAngle(code int) float64 {
	return float64(code) / 8 * 180 / 4096
}

func sc2Angle(start, end int) float64 {
	return float64(start+end) * 180 / 65536
}

// DecodeRadial decodes one radial record of variant v. record is the radial's
// position in the file and is only used in errors. nyquist scales the SC2
// velocity and width codecs and is ignored for the SAB family, whose records
// carry their own.
func DecodeRadial(v Variant, record int, buf []byte, nyquist float64) (Radial, error) {
	vl := LayoutFor(v)
	if vl.RecordSize == 0 {
		return Radial{}, formatErrorf("no radial layout for variant %s", v)
	}
	if len(buf) < vl.RecordSize {
		return Radial{}, &DecodeError{Record: record, Reason: "truncated record"}
	}
	vals, err := vl.Header.Decode(buf)
	if err != nil {
		return Radial{}, &DecodeError{Record: record, Reason: err.Error()}
	}
	if vl.Interleaved {
		return decodeInterleaved(vl, buf, vals, nyquist), nil
	}
	return decodeSequential(vl, record, buf, vals)
}

func decodeSequential(vl VariantLayout, record int, buf []byte, vals Values) (Radial, error) {
	h := RadialHeader{
		Status:          int(vals.Int(FieldRadialStatus)),
		AzimuthCode:     int(vals.Int(FieldAzimuth)),
		ElevationCode:   int(vals.Int(FieldElevation)),
		ElevationNumber: int(vals.Int(FieldElevationNumber)),
		RadialNumber:    int(vals.Int(FieldRadialNumber)),
		JulianDate:      int(vals.Int(FieldJulianDate)),
		Milliseconds:    vals.Int(FieldMilliseconds),
		NyquistCode:     int(vals.Int(FieldNyquist)),
		URangeCode:      int(vals.Int(FieldUnambiguousRange)),
		RefFirstGate:    int(vals.Int(FieldRefFirstGate)),
		DopFirstGate:    int(vals.Int(FieldDopFirstGate)),
		RefGateSize:     int(vals.Int(FieldRefGateSize)),
		DopGateSize:     int(vals.Int(FieldDopGateSize)),
		RefGates:        int(vals.Int(FieldRefGates)),
		DopGates:        int(vals.Int(FieldDopGates)),
		VCP:             int(vals.Int(FieldVCP)),
	}
	r := Radial{
		Header:    h,
		Azimuth:   sabAngle(h.AzimuthCode),
		Elevation: sabAngle(h.ElevationCode),
		Moments:   make(map[string][]float32, len(vl.Moments)),
	}
	off := vl.Header.Size
	for _, m := range vl.Moments {
		n := int(vals.Int(m.GatesField))
		if off+n > vl.RecordSize {
			return Radial{}, &DecodeError{Record: record, Reason: m.Name + " gate count overruns record"}
		}
		gates := make([]float32, n)
		for i, code := range buf[off : off+n] {
			gates[i] = m.Codec.Apply(code, 0)
		}
		r.Moments[m.Name] = gates
		off += n
	}
	return r, nil
}

func decodeInterleaved(vl VariantLayout, buf []byte, vals Values, nyquist float64) Radial {
	h := RadialHeader{
		StartAzimuthCode: int(vals.Int(FieldStartAzimuth)),
		StartElevCode:    int(vals.Int(FieldStartElevation)),
		EndAzimuthCode:   int(vals.Int(FieldEndAzimuth)),
		EndElevCode:      int(vals.Int(FieldEndElevation)),
	}
	r := Radial{
		Header:    h,
		Azimuth:   sc2Angle(h.StartAzimuthCode, h.EndAzimuthCode),
		Elevation: sc2Angle(h.StartElevCode, h.EndElevCode),
		Moments:   make(map[string][]float32, len(vl.Moments)),
	}
	stride := len(vl.Moments)
	body := buf[vl.Header.Size : vl.Header.Size+vl.Gates*stride]
	for _, m := range vl.Moments {
		gates := make([]float32, vl.Gates)
		for g := range gates {
			gates[g] = m.Codec.Apply(body[g*stride+m.Lane], nyquist)
		}
		r.Moments[m.Name] = gates
	}
	return r
}

// DecodeSABRadials splits data into fixed-size records of variant v and
// decodes every one. data must already be a whole number of records.
func DecodeSABRadials(v Variant, data []byte) ([]Radial, error) {
	if !v.IsSABFamily() {
		return nil, formatErrorf("%s is not an SAB family variant", v)
	}
	size := v.RecordSize()
	if len(data)%size != 0 {
		return nil, formatErrorf("length %d is not a multiple of %d", len(data), size)
	}
	n := len(data) / size
	radials := make([]Radial, n)
	for i := range n {
		r, err := DecodeRadial(v, i, data[i*size:(i+1)*size], 0)
		if err != nil {
			return nil, err
		}
		radials[i] = r
	}
	return radials, nil
}
