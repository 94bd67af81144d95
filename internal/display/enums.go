package display

import (
	"fmt"
	"strings"
)

// ScreenDirection is the LCD orientation passed to lcd_open.
type ScreenDirection int32

const (
	Vertical   ScreenDirection = 1
	Horizontal ScreenDirection = 2
)

// Width in pixels for this orientation.
func (d ScreenDirection) Width() int32 {
	switch d {
	case Vertical:
		return 64
	case Horizontal:
		return 128
	default:
		return 0
	}
}

// Height in pixels for this orientation.
func (d ScreenDirection) Height() int32 {
	switch d {
	case Vertical:
		return 128
	case Horizontal:
		return 64
	default:
		return 0
	}
}

func (d ScreenDirection) String() string {
	switch d {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("ScreenDirection(%d)", int32(d))
	}
}

// ParseScreenDirection accepts "vertical" or "horizontal".
func ParseScreenDirection(s string) (ScreenDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	default:
		return 0, fmt.Errorf("display: unknown screen direction %q", s)
	}
}

// FontSize selects one of the module's built-in fonts (LCD_SetFont).
type FontSize int32

const (
	Font4x6 FontSize = iota
	Font5x8
	Font5x12
	Font6x8
	Font6x10
	Font7x12
	Font8x8
	Font8x12
	Font8x14
	Font10x16
	Font12x16
	Font12x20
	Font16x26
	Font22x36
	Font24x40
)

// fontCells holds {column width, row height} per FontSize.
var fontCells = [...][2]int32{
	Font4x6:   {4, 6},
	Font5x8:   {5, 8},
	Font5x12:  {5, 12},
	Font6x8:   {6, 8},
	Font6x10:  {6, 10},
	Font7x12:  {7, 12},
	Font8x8:   {8, 8},
	Font8x12:  {8, 12},
	Font8x14:  {8, 14},
	Font10x16: {10, 16},
	Font12x16: {12, 16},
	Font12x20: {12, 20},
	Font16x26: {16, 26},
	Font22x36: {22, 36},
	Font24x40: {24, 40},
}

// FontSizes lists every font in module order.
func FontSizes() []FontSize {
	out := make([]FontSize, len(fontCells))
	for i := range fontCells {
		out[i] = FontSize(i)
	}
	return out
}

func (f FontSize) valid() bool {
	return f >= 0 && int(f) < len(fontCells)
}

// ColumnWidth is the glyph width in pixels.
func (f FontSize) ColumnWidth() int32 {
	if !f.valid() {
		return 0
	}
	return fontCells[f][0]
}

// RowHeight is the glyph height in pixels.
func (f FontSize) RowHeight() int32 {
	if !f.valid() {
		return 0
	}
	return fontCells[f][1]
}

// String returns the "WxH" name, e.g. "12x20".
func (f FontSize) String() string {
	if !f.valid() {
		return fmt.Sprintf("FontSize(%d)", int32(f))
	}
	return fmt.Sprintf("%dx%d", f.ColumnWidth(), f.RowHeight())
}

// ParseFontSize accepts the String form ("8x8", "Font8x8" also works).
func ParseFontSize(s string) (FontSize, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "font")
	for _, f := range FontSizes() {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("display: unknown font size %q", s)
}
