package basedata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withMarker returns n zero bytes carrying the SAB radial signature.
func withMarker(n int) []byte {
	b := make([]byte, n)
	b[14], b[15] = 0x01, 0x00
	return b
}

func TestDetectSAB_ClassifiesBySize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		want    Variant
		records int
	}{
		{"SA/SB", 2432 * 3, VariantSAB, 3},
		{"CB", 4132 * 2, VariantCB, 2},
		{"SC legacy", 3132 * 5, VariantSCLegacy, 5},
		{"single record", 2432, VariantSAB, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, n, err := DetectSAB(withMarker(tt.size))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.records, n)
		})
	}
}

func TestDetectSAB_RejectsAmbiguousOrCorrupt(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"divisible by none", 2432*3 + 7},
		{"divisible by SA and CB", 2432 * 4132},
		{"divisible by SA and SC", 2432 * 3132 / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DetectSAB(withMarker(tt.size))
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "ambiguous or corrupt size", fe.Reason)
		})
	}
}

func TestDetectSAB_MissingMarker(t *testing.T) {
	_, _, err := DetectSAB(make([]byte, 2432))
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "signature")
}

func TestDetect(t *testing.T) {
	sc2 := make([]byte, 1024)
	sc2[201] = 109

	v, err := Detect(sc2)
	require.NoError(t, err)
	assert.Equal(t, VariantSC2, v)

	v, err = Detect(withMarker(4132))
	require.NoError(t, err)
	assert.Equal(t, VariantCB, v)

	sc2[201] = 1 // RHI is not a volume scan
	_, err = Detect(sc2)
	assert.Equal(t, "format", ErrorKind(err))

	_, err = Detect(nil)
	assert.Equal(t, "format", ErrorKind(err))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "decode", ErrorKind(&DecodeError{Record: 3, Reason: "x"}))
	assert.Equal(t, "consistency", ErrorKind(consistencyErrorf("x")))
	assert.Equal(t, "other", ErrorKind(errors.New("x")))
}

func TestVariant_Strings(t *testing.T) {
	for _, v := range []Variant{VariantSAB, VariantCB, VariantSCLegacy, VariantSC2} {
		got, ok := ParseVariant(v.String())
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
	_, ok := ParseVariant("WSR-88D")
	assert.False(t, ok)
	assert.Equal(t, 0, VariantUnknown.RecordSize())
	assert.Equal(t, 4000, VariantSC2.RecordSize())
}
