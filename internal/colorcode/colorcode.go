// Package colorcode converts the textual colour codes found in ASCII PCD
// files into normalised RGB colours and back.
//
// An ASCII PCD "rgb" field of TYPE F and SIZE 4 is parsed as a float32 whose
// raw bytes hold the packed 8-bit channels. Byte 2 is red, byte 1 green and
// byte 0 blue; byte 3 is ignored.
package colorcode

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// FloatKind is the PCD TYPE tag for floating point fields.
const FloatKind = 'F'

// Decode parses code as a float32 and unpacks its raw bytes into a colour.
// Only kind 'F' with size 4 is supported; anything else, or a code that is
// not a number, decodes to black.
func Decode(code string, kind byte, size int) colorful.Color {
	if kind != FloatKind || size != 4 {
		return colorful.Color{}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(code), 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return colorful.Color{}
	}
	return FromPacked(math.Float32bits(float32(v)))
}

// FromPacked unpacks a 0x00RRGGBB word. The top byte is ignored.
func FromPacked(rgb uint32) colorful.Color {
	return colorful.Color{
		R: float64((rgb>>16)&0xff) / 255.0,
		G: float64((rgb>>8)&0xff) / 255.0,
		B: float64(rgb&0xff) / 255.0,
	}
}

// Pack quantises c to 8-bit channels and packs them as 0x00RRGGBB.
func Pack(c colorful.Color) uint32 {
	r, g, b := c.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Encode formats c as the shortest float32 text whose bytes decode back to c
// (after 8-bit quantisation).
func Encode(c colorful.Color) string {
	f := math.Float32frombits(Pack(c))
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
