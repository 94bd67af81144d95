package sampler

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"uptech/internal/adcio"
	"uptech/internal/mpu"
)

type fakeIO struct {
	analogErr error
	levels    uint8
	modes     uint8
}

func (f *fakeIO) ReadAnalog(buf *[adcio.AnalogChannels]int32) error {
	if f.analogErr != nil {
		return f.analogErr
	}
	for i := range buf {
		buf[i] = int32(i + 1)
	}
	return nil
}

func (f *fakeIO) Levels() uint8 { return f.levels }
func (f *fakeIO) Modes() uint8  { return f.modes }

type fakeMotion struct {
	gyroRet int32
	reads   atomic.Int32
}

func (f *fakeMotion) Accel(v *mpu.Vector) int32 {
	f.reads.Add(1)
	*v = mpu.Vector{0, 0, 1}
	return 0
}

func (f *fakeMotion) Gyro(v *mpu.Vector) int32 {
	f.reads.Add(1)
	return f.gyroRet
}

func (f *fakeMotion) Attitude(v *mpu.Vector) int32 {
	f.reads.Add(1)
	*v = mpu.Vector{10, 20, 30}
	return 0
}

func TestSampleCollectsEverything(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	s := New(&fakeIO{levels: 0b101, modes: 0xF0}, &fakeMotion{})
	s.now = func() time.Time { return now }

	if s.Latest() != nil {
		t.Fatal("Latest() must be nil before the first sample")
	}
	snap := s.Sample()

	if !snap.OK() {
		t.Errorf("unexpected errors: %v", snap.Errors)
	}
	if snap.Time != now {
		t.Errorf("Time = %v, want %v", snap.Time, now)
	}
	if snap.Analog[0] != 1 || snap.Analog[9] != 10 {
		t.Errorf("Analog = %v", snap.Analog)
	}
	if snap.Levels != 0b101 || snap.Modes != 0xF0 {
		t.Errorf("Levels/Modes = %#x/%#x", snap.Levels, snap.Modes)
	}
	if snap.Accel != [3]float32{0, 0, 1} || snap.Attitude != [3]float32{10, 20, 30} {
		t.Errorf("Accel = %v, Attitude = %v", snap.Accel, snap.Attitude)
	}
	if s.Latest() != snap {
		t.Error("Latest() does not return the last sample")
	}
}

func TestSampleRecordsFailuresAndContinues(t *testing.T) {
	motion := &fakeMotion{gyroRet: -1}
	s := New(&fakeIO{analogErr: adcio.ErrReadAnalog, levels: 0x01}, motion)

	snap := s.Sample()

	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", snap.Errors)
	}
	if snap.Errors[0] != adcio.ErrReadAnalog.Error() {
		t.Errorf("first error = %q", snap.Errors[0])
	}
	if !strings.Contains(snap.Errors[1], "mpu6500_Get_Gyro returned -1") {
		t.Errorf("second error = %q", snap.Errors[1])
	}
	if snap.Levels != 0x01 {
		t.Error("levels must still be read after an analog failure")
	}
	if n := motion.reads.Load(); n != 3 {
		t.Errorf("expected all 3 motion reads, got %d", n)
	}
}

func TestSampleWithoutMotion(t *testing.T) {
	s := New(&fakeIO{}, nil)
	snap := s.Sample()
	if !snap.OK() {
		t.Errorf("unexpected errors: %v", snap.Errors)
	}
	if snap.Accel != [3]float32{} {
		t.Errorf("Accel = %v, want zero", snap.Accel)
	}
}

func TestSampleIDsAreUnique(t *testing.T) {
	s := New(&fakeIO{}, nil)
	a, b := s.Sample(), s.Sample()
	if a.ID == b.ID {
		t.Errorf("two samples share ID %s", a.ID)
	}
}

func TestStart(t *testing.T) {
	s := New(&fakeIO{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, "not a schedule"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if s.Latest() != nil {
		t.Error("invalid schedule must not sample")
	}

	if err := s.Start(ctx, "@every 1h"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if s.Latest() == nil {
		t.Error("Start must take an initial sample")
	}
}

func TestDoSerializes(t *testing.T) {
	s := New(&fakeIO{}, nil)
	var inside atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			s.Do(func() {
				if inside.Add(1) != 1 {
					t.Error("Do ran concurrently")
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestLatestIsNewestUnderConcurrentSamples(t *testing.T) {
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	s := New(&fakeIO{}, nil)
	s.now = func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Second) }

	const n = 32
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			s.Sample()
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	want := base.Add(n * time.Second)
	if got := s.Latest().Time; !got.Equal(want) {
		t.Errorf("Latest().Time = %v, want newest %v", got, want)
	}
}
