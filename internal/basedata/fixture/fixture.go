// Package fixture builds synthetic CINRAD base data files for tests and local
// runs. It encodes the on-disk layouts independently of the decoder.
package fixture

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Radial record sizes.
const (
	SABRecordSize      = 2432
	CBRecordSize       = 4132
	SCLegacyRecordSize = 3132
	SC2HeaderSize      = 1024
	SC2RecordSize      = 4000
	SC2Gates           = 998
)

// SAB family radial status codes.
const (
	StatusSweepStart   = 0
	StatusIntermediate = 1
	StatusSweepEnd     = 2
	StatusVolumeStart  = 3
	StatusVolumeEnd    = 4
)

// SABAngleCode encodes degrees as an SAB family angle code.
func SABAngleCode(deg float64) uint16 {
	return uint16(math.Round(deg * 8 * 4096 / 180))
}

// SABAngle is the decoded value of SABAngleCode(deg).
func SABAngle(deg float64) float64 {
	return float64(SABAngleCode(deg)) / 8 * 180 / 4096
}

// SABRay is one SAB family radial. Gate slices hold raw codes.
type SABRay struct {
	Status       int
	Azimuth      float64 // degrees
	Elevation    float64 // degrees
	ElevationNum int
	RadialNum    int
	JulianDate   int
	Milliseconds int
	NyquistCode  int // m/s * 100
	URangeCode   int // km * 10
	RefGateSize  int // m
	DopGateSize  int // m
	Ref          []byte
	Vel          []byte
	Width        []byte
}

// Encode writes the ray as one record of recordSize bytes.
func (r SABRay) Encode(recordSize int) []byte {
	b := make([]byte, recordSize)
	le := binary.LittleEndian
	le.PutUint16(b[14:], 1)
	le.PutUint32(b[28:], uint32(r.Milliseconds))
	le.PutUint16(b[32:], uint16(r.JulianDate))
	le.PutUint16(b[34:], uint16(r.URangeCode))
	le.PutUint16(b[36:], SABAngleCode(r.Azimuth))
	le.PutUint16(b[38:], uint16(r.RadialNum))
	le.PutUint16(b[40:], uint16(r.Status))
	le.PutUint16(b[42:], SABAngleCode(r.Elevation))
	le.PutUint16(b[44:], uint16(r.ElevationNum))
	le.PutUint16(b[46:], 0)
	le.PutUint16(b[48:], 0)
	le.PutUint16(b[50:], uint16(r.RefGateSize))
	le.PutUint16(b[52:], uint16(r.DopGateSize))
	le.PutUint16(b[54:], uint16(len(r.Ref)))
	le.PutUint16(b[56:], uint16(len(r.Vel)))
	le.PutUint16(b[64:], 128)
	le.PutUint16(b[66:], uint16(128+len(r.Ref)))
	le.PutUint16(b[68:], uint16(128+len(r.Ref)+len(r.Vel)))
	le.PutUint16(b[72:], 21)
	le.PutUint16(b[88:], uint16(r.NyquistCode))

	off := 128
	off += copy(b[off:], r.Ref)
	off += copy(b[off:], r.Vel)
	copy(b[off:], r.Width)
	return b
}

// Sweep describes one sweep of a synthetic SAB family volume. Every gate of
// a moment carries the same code; a zero gate count omits the moment.
type Sweep struct {
	Elevation float64
	Rays      int
	// Azimuths overrides the default even spread of Rays azimuths.
	Azimuths  []float64
	RefGates  int
	DopGates  int
	RefCode   byte
	VelCode   byte
	WidthCode byte
}

func (s Sweep) azimuths() []float64 {
	if len(s.Azimuths) > 0 {
		return s.Azimuths
	}
	az := make([]float64, s.Rays)
	for i := range az {
		az[i] = float64(i) * 360 / float64(s.Rays)
	}
	return az
}

// SAB family defaults.
const (
	DefaultRefGateSize = 1000
	DefaultDopGateSize = 250
	DefaultJulianDate  = 16983 // 2016-06-30
	DefaultNyquistCode = 2700
	DefaultURangeCode  = 4600
)

// SABRays expands sweeps into rays with status codes marking volume and
// sweep bounds. Ray time advances 100 ms per ray.
func SABRays(sweeps []Sweep) []SABRay {
	var rays []SABRay
	for si, s := range sweeps {
		az := s.azimuths()
		for j, a := range az {
			status := StatusIntermediate
			switch {
			case si == 0 && j == 0:
				status = StatusVolumeStart
			case si == len(sweeps)-1 && j == len(az)-1:
				status = StatusVolumeEnd
			case j == 0:
				status = StatusSweepStart
			case j == len(az)-1:
				status = StatusSweepEnd
			}
			rays = append(rays, SABRay{
				Status:       status,
				Azimuth:      a,
				Elevation:    s.Elevation,
				ElevationNum: si + 1,
				RadialNum:    j + 1,
				JulianDate:   DefaultJulianDate,
				Milliseconds: len(rays) * 100,
				NyquistCode:  DefaultNyquistCode,
				URangeCode:   DefaultURangeCode,
				RefGateSize:  DefaultRefGateSize,
				DopGateSize:  DefaultDopGateSize,
				Ref:          repeat(s.RefCode, s.RefGates),
				Vel:          repeat(s.VelCode, s.DopGates),
				Width:        repeat(s.WidthCode, s.DopGates),
			})
		}
	}
	return rays
}

// EncodeSAB concatenates rays as records of recordSize bytes.
func EncodeSAB(recordSize int, rays []SABRay) []byte {
	out := make([]byte, 0, recordSize*len(rays))
	for _, r := range rays {
		out = append(out, r.Encode(recordSize)...)
	}
	return out
}

// SABFile builds a complete SAB family file.
func SABFile(recordSize int, sweeps []Sweep) []byte {
	return EncodeSAB(recordSize, SABRays(sweeps))
}

// SplitCutVolume returns a two-tilt SA volume whose lowest tilt is a split
// cut: sweep 0 reflectivity only, sweep 1 velocity and width only, sweep 2
// complete.
func SplitCutVolume() []Sweep {
	return []Sweep{
		{Elevation: 0.5, Rays: 8, RefGates: 460, RefCode: 100},
		{Elevation: 0.5, Rays: 6, DopGates: 920, VelCode: 140, WidthCode: 10},
		{Elevation: 1.45, Rays: 6, RefGates: 460, DopGates: 920, RefCode: 90, VelCode: 130, WidthCode: 12},
	}
}

// VCP21Volume returns a nine-tilt precipitation mode volume with split cuts
// on the two lowest tilts, eleven raw sweeps in all.
func VCP21Volume(rays int) []Sweep {
	sweeps := []Sweep{
		{Elevation: 0.5, Rays: rays, RefGates: 460, RefCode: 110},
		{Elevation: 0.5, Rays: rays, DopGates: 920, VelCode: 140, WidthCode: 10},
		{Elevation: 1.45, Rays: rays, RefGates: 460, RefCode: 100},
		{Elevation: 1.45, Rays: rays, DopGates: 920, VelCode: 136, WidthCode: 10},
	}
	for _, el := range []float64{2.4, 3.35, 4.3, 6.0, 9.9, 14.6, 19.5} {
		sweeps = append(sweeps, Sweep{Elevation: el, Rays: rays, RefGates: 460, DopGates: 920, RefCode: 90, VelCode: 130, WidthCode: 12})
	}
	return sweeps
}

// SC2Layer is one sweep of a synthetic SC2 volume.
type SC2Layer struct {
	Rays       int
	MaxV       int // m/s * 100
	MaxL       int // km / 10
	BinWidth   int // m * 10
	SweepAngle int // degrees * 100
}

// SC2Header is the synthetic SC2 file header.
type SC2Header struct {
	ScanCode      int
	Country       string
	Station       string
	StationNumber string
	Longitude     int // degrees * 100
	Latitude      int // degrees * 100
	Height        int // mm
	Start         time.Time
	End           time.Time
	Layers        []SC2Layer
}

// Encode writes the 1024-byte header.
func (h SC2Header) Encode() []byte {
	b := make([]byte, SC2HeaderSize)
	le := binary.LittleEndian
	putText(b[0:30], h.Country)
	putText(b[50:90], h.Station)
	putText(b[90:100], h.StationNumber)
	putText(b[100:120], "CINRAD/SC")
	le.PutUint32(b[152:], uint32(int32(h.Longitude)))
	le.PutUint32(b[156:], uint32(int32(h.Latitude)))
	le.PutUint32(b[160:], uint32(int32(h.Height)))

	obs := b[201:]
	obs[0] = byte(h.ScanCode)
	le.PutUint16(obs[1:], uint16(h.Start.Year()))
	obs[3] = byte(h.Start.Month())
	obs[4] = byte(h.Start.Day())
	obs[5] = byte(h.Start.Hour())
	obs[6] = byte(h.Start.Minute())
	obs[7] = byte(h.Start.Second())

	for i, l := range h.Layers {
		p := b[217+i*21:]
		le.PutUint16(p[9:], uint16(l.MaxV))
		le.PutUint16(p[11:], uint16(l.MaxL))
		le.PutUint16(p[13:], uint16(l.BinWidth))
		le.PutUint16(p[15:], SC2Gates)
		le.PutUint16(p[17:], uint16(l.Rays))
		le.PutUint16(p[19:], uint16(int16(l.SweepAngle)))
	}

	end := b[847:]
	le.PutUint16(end[6:], uint16(h.End.Year()))
	end[8] = byte(h.End.Month())
	end[9] = byte(h.End.Day())
	end[10] = byte(h.End.Hour())
	end[11] = byte(h.End.Minute())
	end[12] = byte(h.End.Second())
	return b
}

func putText(dst []byte, s string) {
	enc, err := simplifiedchinese.GB18030.NewEncoder().String(s)
	if err != nil {
		enc = s
	}
	copy(dst, enc)
}

// SC2AngleCode encodes degrees as one SC2 sector bound code. A ray whose
// start and end codes are both SC2AngleCode(deg) decodes to deg.
func SC2AngleCode(deg float64) uint16 {
	return uint16(math.Round(deg * 65536 / 360))
}

// SC2Radial builds one 4000-byte radial with constant gate codes.
func SC2Radial(azimuth, elevation float64, dBZ, v, dBT, w byte) []byte {
	b := make([]byte, SC2RecordSize)
	le := binary.LittleEndian
	az, el := SC2AngleCode(azimuth), SC2AngleCode(elevation)
	le.PutUint16(b[0:], az)
	le.PutUint16(b[2:], el)
	le.PutUint16(b[4:], az)
	le.PutUint16(b[6:], el)
	for g := range SC2Gates {
		p := 8 + g*4
		b[p], b[p+1], b[p+2], b[p+3] = dBZ, v, dBT, w
	}
	return b
}

// SC2File builds a complete SC2 file: the header followed by every layer's
// rays, evenly spread in azimuth at the layer's sweep angle.
func SC2File(h SC2Header, dBZ, v, dBT, w byte) []byte {
	out := h.Encode()
	for _, l := range h.Layers {
		for j := range l.Rays {
			az := float64(j) * 360 / float64(l.Rays)
			out = append(out, SC2Radial(az, float64(l.SweepAngle)/100, dBZ, v, dBT, w)...)
		}
	}
	return out
}

// DefaultSC2Header returns a three-sweep volume scan header.
func DefaultSC2Header() SC2Header {
	return SC2Header{
		ScanCode:      103,
		Country:       "中国",
		Station:       "成都",
		StationNumber: "Z9280",
		Longitude:     10403,
		Latitude:      3065,
		Height:        583000,
		Start:         time.Date(2018, time.February, 9, 13, 27, 0, 0, time.UTC),
		End:           time.Date(2018, time.February, 9, 13, 33, 0, 0, time.UTC),
		Layers: []SC2Layer{
			{Rays: 12, MaxV: 2700, MaxL: 15, BinWidth: 3000, SweepAngle: 50},
			{Rays: 12, MaxV: 2700, MaxL: 15, BinWidth: 3000, SweepAngle: 150},
			{Rays: 10, MaxV: 1800, MaxL: 20, BinWidth: 3000, SweepAngle: 240},
		},
	}
}

func repeat(code byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = code
	}
	return b
}
