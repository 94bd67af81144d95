// Package display drives the board's LCD (through the module's uGUI
// build) and its two RGB LEDs.
//
// Every Screen method calls one native symbol right away and returns the
// Screen, so calls chain:
//
//	s.Open(display.Horizontal).FillScreen(display.Black).Print("ready").Refresh()
package display

import (
	"errors"
	"fmt"
	"sync"

	appLog "uptech/internal/log"
	"uptech/internal/native"
)

// ErrNative wraps a negative return code recorded by Screen.Err.
var ErrNative = errors.New("display: native call failed")

type symbols struct {
	lcdOpen        func(int32) int32
	lcdClose       func() int32
	refresh        func() int32
	setFont        func(int32) int32
	setForecolor   func(uint32) int32
	setBackcolor   func(uint32) int32
	ledSet         func(int32, uint32) int32
	fillScreen     func(uint32) int32
	putString      func(int32, int32, string) int32
	fillFrame      func(int32, int32, int32, int32, uint32) int32
	fillRoundFrame func(int32, int32, int32, int32, int32, uint32) int32
	fillCircle     func(int32, int32, int32, uint32) int32
	drawMesh       func(int32, int32, int32, int32, uint32) int32
	drawFrame      func(int32, int32, int32, int32, uint32) int32
	drawRoundFrame func(int32, int32, int32, int32, int32, uint32) int32
	drawPixel      func(int32, int32, uint32) int32
	drawCircle     func(int32, int32, int32, uint32) int32
	drawArc        func(int32, int32, int32, int32, uint32) int32
	drawLine       func(int32, int32, int32, int32, uint32) int32
}

// Screen is one display session. It is not safe for concurrent use.
type Screen struct {
	sym symbols

	width, height int32
	font          FontSize
	dir           ScreenDirection
	err           error
}

// New binds the LCD and LED symbols from r. The screen is not opened.
func New(r native.Resolver) (*Screen, error) {
	s := &Screen{font: Font12x20}
	y := &s.sym
	err := native.Bind(r,
		native.Sym("lcd_open", &y.lcdOpen),
		native.Sym("lcd_close", &y.lcdClose),
		native.Sym("LCD_Refresh", &y.refresh),
		native.Sym("LCD_SetFont", &y.setFont),
		native.Sym("UG_SetForecolor", &y.setForecolor),
		native.Sym("UG_SetBackcolor", &y.setBackcolor),
		native.Sym("adc_led_set", &y.ledSet),
		native.Sym("UG_FillScreen", &y.fillScreen),
		native.Sym("UG_PutString", &y.putString),
		native.Sym("UG_FillFrame", &y.fillFrame),
		native.Sym("UG_FillRoundFrame", &y.fillRoundFrame),
		native.Sym("UG_FillCircle", &y.fillCircle),
		native.Sym("UG_DrawMesh", &y.drawMesh),
		native.Sym("UG_DrawFrame", &y.drawFrame),
		native.Sym("UG_DrawRoundFrame", &y.drawRoundFrame),
		native.Sym("UG_DrawPixel", &y.drawPixel),
		native.Sym("UG_DrawCircle", &y.drawCircle),
		native.Sym("UG_DrawArc", &y.drawArc),
		native.Sym("UG_DrawLine", &y.drawLine),
	)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	return s, nil
}

var defaultScreen = sync.OnceValue(func() *Screen {
	s, err := New(native.Default())
	if err != nil {
		appLog.Error("display: symbol table does not match libuptech.so", err)
		panic(err)
	}
	return s
})

// Default returns the session bound to the process-wide library. It
// panics if the library or a symbol is missing.
func Default() *Screen {
	return defaultScreen()
}

// Init opens the screen in dir, clears it to black and refreshes.
func (s *Screen) Init(dir ScreenDirection) *Screen {
	return s.Open(dir).FillScreen(Black).Refresh()
}

// Err returns the first negative code seen by any call, or nil.
func (s *Screen) Err() error {
	return s.err
}

// TakeErr returns Err and clears it, so the next call sequence starts clean.
func (s *Screen) TakeErr() error {
	err := s.err
	s.err = nil
	return err
}

func (s *Screen) check(op string, ret int32) {
	if ret >= 0 {
		return
	}
	appLog.Debug("display call failed", "op", op, "ret", ret)
	if s.err == nil {
		s.err = fmt.Errorf("%w: %s returned %d", ErrNative, op, ret)
	}
}

// Direction returns the orientation of the last Open, if any.
func (s *Screen) Direction() (ScreenDirection, bool) {
	return s.dir, s.dir != 0
}

// FontSize returns the font last set with SetFontSize.
func (s *Screen) FontSize() FontSize {
	return s.font
}

// Size returns the pixel size for the current direction; 0x0 before Open.
func (s *Screen) Size() (width, height int32) {
	return s.width, s.height
}

// TextGrid returns how many characters of the current font fit per row
// and how many rows fit on screen.
func (s *Screen) TextGrid() (cols, rows int32) {
	cw, rh := s.font.ColumnWidth(), s.font.RowHeight()
	if cw == 0 || rh == 0 {
		return 0, 0
	}
	return s.width / cw, s.height / rh
}

func (s *Screen) Open(dir ScreenDirection) *Screen {
	appLog.Info("opening LCD", "direction", dir)
	s.check("lcd_open", s.sym.lcdOpen(int32(dir)))
	s.dir = dir
	s.width, s.height = dir.Width(), dir.Height()
	return s
}

func (s *Screen) Close() *Screen {
	appLog.Info("closing LCD")
	s.check("lcd_close", s.sym.lcdClose())
	return s
}

// Refresh pushes the frame buffer to the panel.
func (s *Screen) Refresh() *Screen {
	s.check("LCD_Refresh", s.sym.refresh())
	return s
}

func (s *Screen) SetFontSize(f FontSize) *Screen {
	s.font = f
	s.check("LCD_SetFont", s.sym.setFont(int32(f)))
	return s
}

func (s *Screen) SetForeColor(c Color) *Screen {
	s.check("UG_SetForecolor", s.sym.setForecolor(uint32(c)))
	return s
}

func (s *Screen) SetBackColor(c Color) *Screen {
	s.check("UG_SetBackcolor", s.sym.setBackcolor(uint32(c)))
	return s
}

// SetLEDColor sets LED index (0 or 1); Black turns it off.
func (s *Screen) SetLEDColor(index int32, c Color) *Screen {
	s.check("adc_led_set", s.sym.ledSet(index, uint32(c)))
	return s
}

func (s *Screen) SetLED0(c Color) *Screen {
	return s.SetLEDColor(0, c)
}

func (s *Screen) SetLED1(c Color) *Screen {
	return s.SetLEDColor(1, c)
}

func (s *Screen) SetAllLEDsSame(c Color) *Screen {
	return s.SetLEDColor(0, c).SetLEDColor(1, c)
}

func (s *Screen) SetAllLEDs(first, second Color) *Screen {
	return s.SetLEDColor(0, first).SetLEDColor(1, second)
}

func (s *Screen) SetAllLEDsOff() *Screen {
	return s.SetAllLEDsSame(Black)
}

func (s *Screen) FillScreen(c Color) *Screen {
	s.check("UG_FillScreen", s.sym.fillScreen(uint32(c)))
	return s
}

// PutString draws text with its top-left corner at (x, y).
func (s *Screen) PutString(x, y int32, text string) *Screen {
	s.check("UG_PutString", s.sym.putString(x, y, text))
	return s
}

// Print draws text at the origin.
func (s *Screen) Print(text string) *Screen {
	return s.PutString(0, 0, text)
}

// PutLine draws text on text row `row` of the current font.
func (s *Screen) PutLine(row int32, text string) *Screen {
	return s.PutString(0, row*s.font.RowHeight(), text)
}

func (s *Screen) FillFrame(x1, y1, x2, y2 int32, c Color) *Screen {
	s.check("UG_FillFrame", s.sym.fillFrame(x1, y1, x2, y2, uint32(c)))
	return s
}

func (s *Screen) FillRoundFrame(x1, y1, x2, y2, r int32, c Color) *Screen {
	s.check("UG_FillRoundFrame", s.sym.fillRoundFrame(x1, y1, x2, y2, r, uint32(c)))
	return s
}

func (s *Screen) FillCircle(x0, y0, r int32, c Color) *Screen {
	s.check("UG_FillCircle", s.sym.fillCircle(x0, y0, r, uint32(c)))
	return s
}

func (s *Screen) DrawMesh(x1, y1, x2, y2 int32, c Color) *Screen {
	s.check("UG_DrawMesh", s.sym.drawMesh(x1, y1, x2, y2, uint32(c)))
	return s
}

func (s *Screen) DrawFrame(x1, y1, x2, y2 int32, c Color) *Screen {
	s.check("UG_DrawFrame", s.sym.drawFrame(x1, y1, x2, y2, uint32(c)))
	return s
}

func (s *Screen) DrawRoundFrame(x1, y1, x2, y2, r int32, c Color) *Screen {
	s.check("UG_DrawRoundFrame", s.sym.drawRoundFrame(x1, y1, x2, y2, r, uint32(c)))
	return s
}

func (s *Screen) DrawPixel(x0, y0 int32, c Color) *Screen {
	s.check("UG_DrawPixel", s.sym.drawPixel(x0, y0, uint32(c)))
	return s
}

func (s *Screen) DrawCircle(x0, y0, r int32, c Color) *Screen {
	s.check("UG_DrawCircle", s.sym.drawCircle(x0, y0, r, uint32(c)))
	return s
}

// DrawArc draws the octants of a circle selected by the bitmask sections.
func (s *Screen) DrawArc(x0, y0, r, sections int32, c Color) *Screen {
	s.check("UG_DrawArc", s.sym.drawArc(x0, y0, r, sections, uint32(c)))
	return s
}

func (s *Screen) DrawLine(x1, y1, x2, y2 int32, c Color) *Screen {
	s.check("UG_DrawLine", s.sym.drawLine(x1, y1, x2, y2, uint32(c)))
	return s
}
