package basedata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata/fixture"
)

func TestDecodeHeader(t *testing.T) {
	h, err := DecodeHeader(fixture.DefaultSC2Header().Encode())
	require.NoError(t, err)

	assert.Equal(t, "成都", h.Site.Station)
	assert.Equal(t, "Z9280", h.Site.StationNumber)
	assert.Equal(t, "CINRAD/SC", h.Site.RadarType)
	assert.InDelta(t, 30.65, h.Site.Latitude, 1e-9)
	assert.InDelta(t, 104.03, h.Site.Longitude, 1e-9)
	assert.InDelta(t, 583, h.Site.Altitude, 1e-9, "altitude is meters: height mm / 1000")

	assert.Equal(t, 103, h.ScanCode)
	assert.Equal(t, ScanPPI, h.ScanType())
	require.Equal(t, 3, h.NSweeps())
	assert.Equal(t, []int{12, 12, 10}, h.RecordCounts())
	assert.Equal(t, 34, h.NRays())

	l := h.Layers[2]
	assert.InDelta(t, 18.0, l.Nyquist(), 1e-9)
	assert.InDelta(t, 200.0, l.UnambiguousRange(), 1e-9)
	assert.InDelta(t, 2.4, l.FixedAngle(), 1e-9)
	assert.Equal(t, 998, l.BinNumber)

	assert.Equal(t, time.Date(2018, time.February, 9, 13, 27, 0, 0, time.UTC), h.Start)
	assert.Equal(t, time.Date(2018, time.February, 9, 13, 33, 0, 0, time.UTC), h.End)
}

func TestDecodeHeader_RejectsNonVolumeScans(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"rhi", 1},
		{"ppi single sweep", 10},
		{"boundary", 100},
		{"too many sweeps", 131},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := fixture.DefaultSC2Header()
			hdr.ScanCode = tt.code
			_, err := DecodeHeader(hdr.Encode())
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
		})
	}
}

func TestDecodeHeader_Truncated(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 512))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, -1, de.Record)
}

func TestDecodeSCRadials(t *testing.T) {
	hdr := fixture.DefaultSC2Header()
	data := fixture.SC2File(hdr, 84, 192, 84, 128)
	h, err := DecodeHeader(data)
	require.NoError(t, err)

	radials, err := DecodeSCRadials(h, data[1024:])
	require.NoError(t, err)
	require.Len(t, radials, 34)

	// Velocity is scaled by each sweep's own nyquist velocity.
	assert.Equal(t, float32(13.5), radials[0].Moments[MomentVelocity][0])
	assert.Equal(t, float32(9), radials[33].Moments[MomentVelocity][0])
	assert.InDelta(t, 2.4, radials[33].Elevation, 0.01)
}

func TestDecodeSCRadials_SizeMismatch(t *testing.T) {
	data := fixture.SC2File(fixture.DefaultSC2Header(), 84, 192, 84, 128)
	h, err := DecodeHeader(data)
	require.NoError(t, err)

	for _, body := range [][]byte{data[1024 : len(data)-4000], append(data[1024:len(data):len(data)], 0)} {
		_, err := DecodeSCRadials(h, body)
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe.Reason, "size mismatch")
	}
}
