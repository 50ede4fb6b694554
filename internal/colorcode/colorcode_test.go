package colorcode

import (
	"math"
	"strconv"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestDecode_ByteOrder(t *testing.T) {
	t.Parallel()

	// 16741671.0f has bits 0x4B7F7527: byte2=0x7F, byte1=0x75, byte0=0x27.
	got := Decode("16741671", 'F', 4)
	want := colorful.Color{R: 0x7F / 255.0, G: 0x75 / 255.0, B: 0x27 / 255.0}
	if got != want {
		t.Errorf("Decode(16741671) = %+v, want %+v", got, want)
	}
}

func TestDecode_MatchesFloatBits(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"4646984", "15219528", "8204959", "30894", "15231913", "7566712"} {
		v, err := strconv.ParseFloat(code, 32)
		if err != nil {
			t.Fatalf("parse %s: %v", code, err)
		}
		bits := math.Float32bits(float32(v))
		want := colorful.Color{
			R: float64(byte(bits>>16)) / 255.0,
			G: float64(byte(bits>>8)) / 255.0,
			B: float64(byte(bits)) / 255.0,
		}
		if got := Decode(code, 'F', 4); got != want {
			t.Errorf("Decode(%s) = %+v, want %+v", code, got, want)
		}
	}
}

func TestDecode_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		kind byte
		size int
	}{
		{"unsigned kind", "16741671", 'U', 4},
		{"integer kind", "16741671", 'I', 4},
		{"eight byte float", "16741671", 'F', 8},
		{"zero size", "16741671", 'F', 0},
		{"not a number", "red", 'F', 4},
		{"empty", "", 'F', 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.code, tt.kind, tt.size); got != (colorful.Color{}) {
				t.Errorf("Decode(%q, %c, %d) = %+v, want black", tt.code, tt.kind, tt.size, got)
			}
		})
	}
}

func TestDecode_Zero(t *testing.T) {
	t.Parallel()
	if got := Decode("0", 'F', 4); got != (colorful.Color{}) {
		t.Errorf("Decode(0) = %+v, want black", got)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"16741671", "4646984", "15219528", "0", "8204959", "30894", "15231913", "7566712"} {
		c := Decode(code, 'F', 4)
		if got := Decode(Encode(c), 'F', 4); got != c {
			t.Errorf("code %s: round trip = %+v, want %+v", code, got, c)
		}
	}

	for _, rgb := range []uint32{0x000000, 0xFFFFFF, 0x800000, 0x00FF00, 0x0000FF, 0x123456} {
		c := FromPacked(rgb)
		if got := Pack(c); got != rgb {
			t.Errorf("Pack(FromPacked(%06x)) = %06x", rgb, got)
		}
		if got := Decode(Encode(c), 'F', 4); got != c {
			t.Errorf("rgb %06x: round trip = %+v, want %+v", rgb, got, c)
		}
	}
}

func TestFromPacked_IgnoresTopByte(t *testing.T) {
	t.Parallel()
	if a, b := FromPacked(0x00102030), FromPacked(0xFF102030); a != b {
		t.Errorf("FromPacked top byte changed colour: %+v vs %+v", a, b)
	}
}
