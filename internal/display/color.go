package display

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a packed 24-bit 0xRRGGBB value as the module expects it.
type Color uint32

// RGB packs three components.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Components unpacks c.
func (c Color) Components() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGBA implements color.Color; the module has no alpha, so c is opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.Components()
	return color.RGBA{R: r8, G: g8, B: b8, A: 0xff}.RGBA()
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// FromColor converts any color.Color, dropping alpha.
func FromColor(c color.Color) Color {
	if dc, ok := c.(Color); ok {
		return dc
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return RGB(rgba.R, rgba.G, rgba.B)
}

// ParseColor accepts "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimSpace(s)
	hex = strings.TrimPrefix(hex, "#")
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if len(hex) != 6 {
		return 0, fmt.Errorf("display: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("display: invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// Palette, as 0xRRGGBB.
const (
	White Color = 0xFFFFFF
	Gray  Color = 0x808080
	Black Color = 0x000000

	Red   Color = 0xFF0000
	Green Color = 0x00FF00
	Blue  Color = 0x0000FF

	BRed   Color = 0xFF0080
	GRed   Color = 0xFF8000
	GBlue  Color = 0x0080FF
	RBlue  Color = 0x8000FF
	RGreen Color = 0x80FF00
	BGreen Color = 0x00FF80

	Yellow  Color = 0xFFFF00
	Magenta Color = 0xFF00FF
	Cyan    Color = 0x00FFFF

	Orange    Color = 0x808000
	Purple    Color = 0x800080
	BlueGreen Color = 0x008080

	DarkBlue  Color = 0x00008B
	DarkGreen Color = 0x008B00
	DarkRed   Color = 0x8B0000
)
