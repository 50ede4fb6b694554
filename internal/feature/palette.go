package feature

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/banshee-data/pointfeature/internal/colorcode"
)

// ReferenceColor is one bin of the colour histogram: a pharmacophore
// label, the PCD colour code that encodes it, and the decoded colour.
type ReferenceColor struct {
	Label string
	Code  string
	Color colorful.Color
}

// referenceCodes lists the colour bins in row order (33..40).
var referenceCodes = [ColorBins]struct{ label, code string }{
	{"CA", "16741671"},
	{"CZ", "4646984"},
	{"O", "15219528"},
	{"OD1", "0"},
	{"OG", "8204959"},
	{"N", "30894"},
	{"NZ", "15231913"},
	{"DU", "7566712"},
}

// ReferencePalette holds the decoded reference colours, built once.
var ReferencePalette = buildPalette()

func buildPalette() [ColorBins]ReferenceColor {
	var p [ColorBins]ReferenceColor
	for i, rc := range referenceCodes {
		p[i] = ReferenceColor{
			Label: rc.label,
			Code:  rc.code,
			Color: colorcode.Decode(rc.code, colorcode.FloatKind, 4),
		}
	}
	return p
}

// ReferenceByLabel returns the palette entry and its bin offset for label.
func ReferenceByLabel(label string) (ReferenceColor, int, bool) {
	for i, rc := range ReferencePalette {
		if rc.Label == label {
			return rc, i, true
		}
	}
	return ReferenceColor{}, -1, false
}

// BinLabel names descriptor row r, e.g. "alpha[3]" or "color[OG]".
func BinLabel(r int) string {
	switch {
	case r >= 0 && r < BinsPerAngle:
		return fmt.Sprintf("alpha[%d]", r)
	case r >= BinsPerAngle && r < 2*BinsPerAngle:
		return fmt.Sprintf("phi[%d]", r-BinsPerAngle)
	case r >= 2*BinsPerAngle && r < GeometricDim:
		return fmt.Sprintf("theta[%d]", r-2*BinsPerAngle)
	case r >= GeometricDim && r < ColorDim:
		return fmt.Sprintf("color[%s]", ReferencePalette[r-GeometricDim].Label)
	}
	return fmt.Sprintf("row[%d]", r)
}
