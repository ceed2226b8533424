package registry

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle is the hue increment between consecutively created entities.
// The golden-angle step spreads an unbounded number of components across hue
// space without visually adjacent collisions, regardless of how many
// distinct names eventually appear.
const goldenAngle = 137.508

// Saturation and lightness are fixed, tuned for legible light-on-dark text.
const (
	colorSaturation = 0.65
	colorLightness  = 0.70
)

// colorForIndex returns the hex color for the nth created entity.
func colorForIndex(index int) string {
	hue := math.Mod(float64(index)*goldenAngle, 360)
	return colorful.Hsl(hue, colorSaturation, colorLightness).Hex()
}

// channelColor derives a channel color from its parent component's creation
// index, continuing the same hue walk so channels stay distinguishable from
// their component and from each other.
func channelColor(componentIndex, channelIndex int) string {
	hue := math.Mod(float64(componentIndex)*goldenAngle+float64(channelIndex+1)*goldenAngle/2, 360)
	return colorful.Hsl(hue, colorSaturation, colorLightness).Hex()
}
