package theme

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// Depth is a terminal's supported color resolution (spec §4.5 "Color
// quantization"), grounded on the teacher's use of
// lipgloss.ColorProfile()/termenv.ANSI256 in internal/render/chat/message_block.go,
// generalized here into an explicit three-way depth instead of a single
// ANSI256 special case.
type Depth int

const (
	Truecolor Depth = iota
	X256
	X16
)

// DetectDepth inspects CHABEAU_COLOR, COLORTERM and TERM to decide how much
// color fidelity the terminal supports (spec §4.5), falling back to
// termenv's own profile detection when no explicit override is set.
func DetectDepth() Depth {
	switch strings.ToLower(os.Getenv("CHABEAU_COLOR")) {
	case "truecolor", "24bit", "24-bit":
		return Truecolor
	case "256", "ansi256", "256color":
		return X256
	case "16", "ansi16", "16color":
		return X16
	}

	if strings.Contains(strings.ToLower(os.Getenv("COLORTERM")), "truecolor") {
		return Truecolor
	}

	switch termenv.ColorProfile() {
	case termenv.TrueColor:
		return Truecolor
	case termenv.ANSI256:
		return X256
	case termenv.ANSI:
		return X16
	default:
		return X16
	}
}

// rgb is a parsed 24-bit color.
type rgb struct{ r, g, b int }

// QuantizeHex downsamples a hex ("#rrggbb") or bare ANSI-index ("10")
// color string to the given depth, returning a string lipgloss.Color
// accepts directly. Values already expressed as a plain ANSI index pass
// through unchanged at every depth, matching spec §4.5's requirement that
// quantization is idempotent and never upsamples.
func QuantizeHex(s string, depth Depth) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	c, ok := parseHex(s)
	if !ok {
		// Already an ANSI index (e.g. "10", "205") — pass through.
		return s
	}
	switch depth {
	case Truecolor:
		return s
	case X256:
		return strconv.Itoa(quantize256(c))
	default:
		return strconv.Itoa(quantize16(c))
	}
}

func parseHex(s string) (rgb, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{r: int(v >> 16 & 0xff), g: int(v >> 8 & 0xff), b: int(v & 0xff)}, true
}

// cubeSteps is the xterm 256-color palette's 6-step intensity ramp for the
// 6x6x6 color cube (indices 16-231).
var cubeSteps = [6]int{0, 95, 135, 175, 215, 255}

// quantize256 maps an RGB color to its nearest xterm 256-color index,
// choosing between the 6x6x6 color cube (16-231) and the 24-step grayscale
// ramp (232-255), whichever is closer in Euclidean distance.
func quantize256(c rgb) int {
	cubeIdx := func(v int) int {
		best, bestDist := 0, math.MaxInt
		for i, step := range cubeSteps {
			if d := abs(v - step); d < bestDist {
				best, bestDist = i, d
			}
		}
		return best
	}
	ri, gi, bi := cubeIdx(c.r), cubeIdx(c.g), cubeIdx(c.b)
	cubeColor := rgb{cubeSteps[ri], cubeSteps[gi], cubeSteps[bi]}
	cubeCode := 16 + 36*ri + 6*gi + bi

	gray := (c.r + c.g + c.b) / 3
	grayIdx := (gray - 8) / 10
	if grayIdx < 0 {
		grayIdx = 0
	}
	if grayIdx > 23 {
		grayIdx = 23
	}
	grayLevel := 8 + grayIdx*10
	grayCode := 232 + grayIdx

	if distSq(c, cubeColor) <= distSq(c, rgb{grayLevel, grayLevel, grayLevel}) {
		return cubeCode
	}
	return grayCode
}

// ansi16Palette is the standard 16-color ANSI palette, indices 0-15.
var ansi16Palette = [16]rgb{
	{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
	{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
	{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// quantize16 maps an RGB color to its nearest ANSI-16 index by Euclidean
// distance over the standard palette.
func quantize16(c rgb) int {
	best, bestDist := 0, math.MaxInt
	for i, p := range ansi16Palette {
		if d := distSq(c, p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func distSq(a, b rgb) int {
	dr, dg, db := a.r-b.r, a.g-b.g, a.b-b.b
	return dr*dr + dg*dg + db*db
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FormatHex renders an rgb back to a "#rrggbb" string.
func (c rgb) FormatHex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}
