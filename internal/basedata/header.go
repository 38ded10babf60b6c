package basedata

import (
	"time"
)

// SC2 file header types.

// SiteInfo is the radar site block of an SC2 file header.
type SiteInfo struct {
	Country       string
	Province      string
	Station       string
	StationNumber string
	RadarType     string
	LongitudeText string
	LatitudeText  string
	Longitude     float64 // degrees
	Latitude      float64 // degrees
	Altitude      float64 // m
	MaxAngle      int
	OptimalAngle  int
}

// Performance is the radar performance block of an SC2 file header.
type Performance struct {
	AntennaGain  int
	BeamWidthH   int
	BeamWidthV   int
	Polarization int
	Power        int
	Wavelength   int
}

// LayerParam holds the acquisition parameters of one sweep.
type LayerParam struct {
	AmbiguityMode int
	PRF1          int
	PRF2          int
	PulseWidth    int
	MaxV          int // nyquist velocity, m/s * 100
	MaxL          int // unambiguous range, km / 10
	BinWidth      int // m * 10
	BinNumber     int
	RecordNumber  int
	SweepAngle    int // degrees * 100
}

// Nyquist returns the sweep's nyquist velocity in m/s.
func (p LayerParam) Nyquist() float64 { return float64(p.MaxV) / 100 }

// UnambiguousRange returns the sweep's unambiguous range in km.
func (p LayerParam) UnambiguousRange() float64 { return float64(p.MaxL) * 10 }

// FixedAngle returns the sweep's nominal elevation in degrees.
func (p LayerParam) FixedAngle() float64 { return float64(p.SweepAngle) / 100 }

// BaseDataHeader is the decoded 1024-byte SC2 file header. Layers holds only
// the sweeps the scan type declares.
type BaseDataHeader struct {
	Site        SiteInfo
	Performance Performance
	ScanCode    int
	Layers      []LayerParam
	Start       time.Time // Beijing time as recorded
	End         time.Time // Beijing time as recorded
}

// NSweeps returns the number of sweeps declared by the header.
func (h *BaseDataHeader) NSweeps() int { return len(h.Layers) }

// NRays returns the total radial count declared by the layer table.
func (h *BaseDataHeader) NRays() int {
	n := 0
	for _, l := range h.Layers {
		n += l.RecordNumber
	}
	return n
}

// RecordCounts returns the per-sweep radial counts.
func (h *BaseDataHeader) RecordCounts() []int {
	counts := make([]int, len(h.Layers))
	for i, l := range h.Layers {
		counts[i] = l.RecordNumber
	}
	return counts
}

// ScanType maps the header scan code to a ScanType: 1 is RHI, anything else
// PPI.
func (h *BaseDataHeader) ScanType() ScanType {
	if h.ScanCode == 1 {
		return ScanRHI
	}
	return ScanPPI
}

// DecodeHeader decodes the SC2 file header at the start of data. Only volume
// scans (scan code 101..130) are accepted.
func DecodeHeader(data []byte) (*BaseDataHeader, error) {
	if len(data) < sc2HeaderSize {
		return nil, &DecodeError{Record: -1, Reason: "truncated file header"}
	}
	site, err := sc2Site.Decode(data[sc2SiteOffset:])
	if err != nil {
		return nil, err
	}
	perf, err := sc2Performance.Decode(data[sc2PerformanceOff:])
	if err != nil {
		return nil, err
	}
	obs, err := sc2Observation.Decode(data[sc2ObservationOff:])
	if err != nil {
		return nil, err
	}
	end, err := sc2ObservationEndLayout.Decode(data[sc2ObservationEnd:])
	if err != nil {
		return nil, err
	}

	scan := int(obs.Int("ScanType"))
	if scan <= sc2VolumeScanOffset {
		return nil, formatErrorf("scan type %d is not a volume scan", scan)
	}
	nsweeps := scan - sc2VolumeScanOffset
	if nsweeps > sc2MaxLayers {
		return nil, formatErrorf("scan type %d declares %d sweeps, at most %d supported", scan, nsweeps, sc2MaxLayers)
	}

	h := &BaseDataHeader{
		Site: SiteInfo{
			Country:       site.Text("Country"),
			Province:      site.Text("Province"),
			Station:       site.Text("Station"),
			StationNumber: site.Text("StationNumber"),
			RadarType:     site.Text("RadarType"),
			LongitudeText: site.Text("LongitudeText"),
			LatitudeText:  site.Text("LatitudeText"),
			Longitude:     float64(site.Int("LongitudeValue")) / 100,
			Latitude:      float64(site.Int("LatitudeValue")) / 100,
			Altitude:      float64(site.Int("Height")) / 1000,
			MaxAngle:      int(site.Int("MaxAngle")),
			OptimalAngle:  int(site.Int("OptimalAngle")),
		},
		Performance: Performance{
			AntennaGain:  int(perf.Int("AntennaGain")),
			BeamWidthH:   int(perf.Int("BeamWidthH")),
			BeamWidthV:   int(perf.Int("BeamWidthV")),
			Polarization: int(perf.Int("Polarization")),
			Power:        int(perf.Int("Power")),
			Wavelength:   int(perf.Int("Wavelength")),
		},
		ScanCode: scan,
		Start: headerTime(obs.Int("Year"), obs.Int("Month"), obs.Int("Day"),
			obs.Int("Hour"), obs.Int("Minute"), obs.Int("Second")),
		End: headerTime(end.Int("Year"), end.Int("Month"), end.Int("Day"),
			end.Int("Hour"), end.Int("Minute"), end.Int("Second")),
		Layers: make([]LayerParam, nsweeps),
	}
	for i := range nsweeps {
		lv, err := sc2Layer.Decode(data[sc2LayerOffset+i*sc2LayerSize:])
		if err != nil {
			return nil, err
		}
		h.Layers[i] = LayerParam{
			AmbiguityMode: int(lv.Int("AmbiguityMode")),
			PRF1:          int(lv.Int("PRF1")),
			PRF2:          int(lv.Int("PRF2")),
			PulseWidth:    int(lv.Int("PulseWidth")),
			MaxV:          int(lv.Int("MaxV")),
			MaxL:          int(lv.Int("MaxL")),
			BinWidth:      int(lv.Int("BinWidth")),
			BinNumber:     int(lv.Int("BinNumber")),
			RecordNumber:  int(lv.Int("RecordNumber")),
			SweepAngle:    int(lv.Int("SweepAngle")),
		}
	}
	return h, nil
}

func headerTime(year, month, day, hour, minute, second int64) time.Time {
	return time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), int(second), 0, time.UTC)
}

// DecodeSCRadials decodes the radial records that follow an SC2 header. body
// is everything after the 1024-byte header and must hold exactly h.NRays()
// records. Each sweep's velocity and width are scaled by that sweep's MaxV.
func DecodeSCRadials(h *BaseDataHeader, body []byte) ([]Radial, error) {
	size := VariantSC2.RecordSize()
	nrays := h.NRays()
	if len(body) != nrays*size {
		return nil, formatErrorf("size mismatch: %d bytes of radials, header declares %d records of %d", len(body), nrays, size)
	}
	radials := make([]Radial, 0, nrays)
	rec := 0
	for _, layer := range h.Layers {
		nyquist := layer.Nyquist()
		for range layer.RecordNumber {
			r, err := DecodeRadial(VariantSC2, rec, body[rec*size:(rec+1)*size], nyquist)
			if err != nil {
				return nil, err
			}
			radials = append(radials, r)
			rec++
		}
	}
	return radials, nil
}
