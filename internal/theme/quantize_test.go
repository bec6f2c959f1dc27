package theme

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeHex_TruecolorIsIdentity(t *testing.T) {
	assert.Equal(t, "#bd93f9", QuantizeHex("#bd93f9", Truecolor))
}

func TestQuantizeHex_256InBounds(t *testing.T) {
	out := QuantizeHex("#bd93f9", X256)
	n, err := strconv.Atoi(out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 0)
	assert.LessOrEqual(t, n, 255)
}

func TestQuantizeHex_16InANSIRange(t *testing.T) {
	out := QuantizeHex("#bd93f9", X16)
	n, err := strconv.Atoi(out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 0)
	assert.LessOrEqual(t, n, 15)
}

func TestQuantizeHex_BareAnsiIndexPassesThroughAtEveryDepth(t *testing.T) {
	for _, d := range []Depth{Truecolor, X256, X16} {
		assert.Equal(t, "205", QuantizeHex("205", d))
	}
}

func TestQuantizeHex_Idempotent(t *testing.T) {
	for _, d := range []Depth{Truecolor, X256, X16} {
		once := QuantizeHex("#50fa7b", d)
		twice := QuantizeHex(once, d)
		assert.Equal(t, once, twice)
	}
}

func TestQuantize256_PureColorsMapToExpectedCubeCorners(t *testing.T) {
	// Pure black and pure white are exact cube corners at indices 16 and 231.
	assert.Equal(t, 16, quantize256(rgb{0, 0, 0}))
	assert.Equal(t, 231, quantize256(rgb{255, 255, 255}))
}

func TestQuantize16_PrimaryColorsMapToClosestPaletteEntry(t *testing.T) {
	assert.Equal(t, 9, quantize16(rgb{255, 0, 0}))  // bright red
	assert.Equal(t, 10, quantize16(rgb{0, 255, 0})) // bright green
	assert.Equal(t, 12, quantize16(rgb{0, 0, 255})) // bright blue
}
