// Package adcio wraps the analog inputs and the digital IO header of the
// board: 10 ADC channels and 8 GPIO channels.
//
// Digital channel state is exchanged as 8-bit masks, bit i = channel i:
//
//	0b1000_0000 => io7 high / output
//	0b0000_0001 => io0 high / output
//
// Reads and writes are only meaningful after Open; the adapter does not
// enforce that ordering and reports whatever the module returns.
package adcio

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"

	appLog "uptech/internal/log"
	"uptech/internal/native"
)

const (
	// AnalogChannels is the length of the buffer ADC_GetAll fills.
	AnalogChannels = 10
	// DigitalChannels is the number of IO channels covered by a mask.
	DigitalChannels = 8
)

// hint is appended to every failure line; these two cover nearly all
// field reports.
const hint = "check that the channel was opened with adc_io_open() and that libuptech.so is loaded"

// ErrReadAnalog is returned when ADC_GetAll reports a nonzero code.
var ErrReadAnalog = errors.New("adcio: failed to get all ADC channels")

// Mode is the direction of one IO channel. It is passed to the module
// unchanged.
type Mode uint8

const (
	ModeInput  Mode = 0
	ModeOutput Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Bit decodes channel i from mask.
func Bit(mask uint8, i uint) uint8 {
	return (mask >> i) & 1
}

// IO is the bound adc_io_* symbol table.
type IO struct {
	open        func() int32
	close       func() int32
	getAll      func(*int32) int32
	inputGetAll func() uint8
	setAll      func(uint32) int32
	set         func(uint32) int32
	modeGetAll  func(*uint8) int32
	modeSet     func(uint32, int32) int32
}

// New binds the IO symbols from r.
func New(r native.Resolver) (*IO, error) {
	io := &IO{}
	err := native.Bind(r,
		native.Sym("adc_io_open", &io.open),
		native.Sym("adc_io_close", &io.close),
		native.Sym("ADC_GetAll", &io.getAll),
		native.Sym("adc_io_InputGetAll", &io.inputGetAll),
		native.Sym("adc_io_SetAll", &io.setAll),
		native.Sym("adc_io_Set", &io.set),
		native.Sym("adc_io_ModeGetAll", &io.modeGetAll),
		native.Sym("adc_io_ModeSet", &io.modeSet),
	)
	if err != nil {
		return nil, fmt.Errorf("adcio: %w", err)
	}
	return io, nil
}

var defaultIO = sync.OnceValue(func() *IO {
	io, err := New(native.Default())
	if err != nil {
		appLog.Error("adcio: symbol table does not match libuptech.so", err)
		panic(err)
	}
	return io
})

// Default binds against the process-wide library. A missing library or
// symbol means a mismatched module and panics.
func Default() *IO {
	return defaultIO()
}

// Open opens the ADC-IO plug. It returns how many times it is open, or -1.
func (io *IO) Open() int32 {
	appLog.Info("initializing ADC-IO")

	n := io.open()
	if n == -1 {
		appLog.Error("failed to open ADC-IO", errors.New(hint), "op", "adc_io_open", "ret", n)
	} else {
		appLog.Debug("ADC-IO opened", "times", n)
	}
	return n
}

// Close closes the ADC-IO plug and returns the native code.
func (io *IO) Close() int32 {
	appLog.Info("closing ADC-IO")

	ret := io.close()
	if ret == -1 {
		appLog.Error("failed to close ADC-IO", errors.New(hint), "op", "adc_io_close", "ret", ret)
	} else {
		appLog.Debug("ADC-IO closed")
	}
	return ret
}

// ReadAnalog fills buf with all ADC channels. On failure buf holds
// whatever the module left in it.
func (io *IO) ReadAnalog(buf *[AnalogChannels]int32) error {
	if ret := io.getAll(&buf[0]); ret != 0 {
		appLog.Error("failed to get all ADC channels", errors.New(hint), "op", "ADC_GetAll", "ret", ret)
		return ErrReadAnalog
	}
	return nil
}

// Levels returns the input level of every channel as a mask (1 = high).
func (io *IO) Levels() uint8 {
	return io.inputGetAll()
}

// Level returns the level of channel i. There is no single-channel read
// in the module; it is decoded from Levels.
func (io *IO) Level(i uint) gpio.Level {
	return Bit(io.Levels(), i) == 1
}

// SetLevels drives all channels from mask. Only output channels follow.
func (io *IO) SetLevels(mask uint32) int32 {
	ret := io.setAll(mask)
	if ret != 0 {
		appLog.Error("failed to set all IO levels", errors.New(hint), "op", "adc_io_SetAll", "levels", fmt.Sprintf("%#08b", mask), "ret", ret)
	}
	return ret
}

// Flip toggles the level of output channel i.
func (io *IO) Flip(i uint32) int32 {
	ret := io.set(i)
	if ret == -1 {
		appLog.Error("failed to flip IO level", errors.New(hint), "op", "adc_io_Set", "index", i, "ret", ret)
	}
	return ret
}

// Modes returns the direction of every channel as a mask.
func (io *IO) Modes() uint8 {
	var mask uint8
	if ret := io.modeGetAll(&mask); ret != 0 {
		appLog.Error("failed to get all IO modes", errors.New(hint), "op", "adc_io_ModeGetAll", "ret", ret)
	}
	return mask
}

// SetModes sets every channel to m. The module has no bulk call, so each
// channel is set in turn; a failing channel does not stop the rest. The
// result is -1 if any channel failed, 0 otherwise.
func (io *IO) SetModes(m Mode) int32 {
	failed := false
	for i := uint32(0); i < DigitalChannels; i++ {
		if io.modeSet(i, int32(m)) != 0 {
			failed = true
		}
	}
	if failed {
		appLog.Error("failed to set all IO modes", errors.New(hint), "op", "adc_io_ModeSet", "mode", m)
		return -1
	}
	return 0
}

// ApplyModes sets channel i to Mode(Bit(mask, i)) for every channel, with
// the same continue-on-failure rule as SetModes.
func (io *IO) ApplyModes(mask uint8) int32 {
	failed := false
	for i := uint32(0); i < DigitalChannels; i++ {
		if io.modeSet(i, int32(Bit(mask, uint(i)))) != 0 {
			failed = true
		}
	}
	if failed {
		appLog.Error("failed to apply IO modes", errors.New(hint), "op", "adc_io_ModeSet", "modes", fmt.Sprintf("%#08b", mask))
		return -1
	}
	return 0
}

// SetMode sets the direction of channel i.
func (io *IO) SetMode(i uint32, m Mode) int32 {
	ret := io.modeSet(i, int32(m))
	if ret != 0 {
		appLog.Error("failed to set IO mode", errors.New(hint), "op", "adc_io_ModeSet", "index", i, "mode", m, "ret", ret)
	}
	return ret
}
