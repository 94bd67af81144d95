package mpu

import (
	"errors"
	"math"
	"testing"
	"unsafe"

	"periph.io/x/conn/v3/physic"

	"uptech/internal/native"
	"uptech/internal/native/nativetest"
)

func fill(vals ...float32) func(*float32) int32 {
	return func(p *float32) int32 {
		copy(unsafe.Slice(p, 3), vals)
		return 0
	}
}

func fakeModule() *nativetest.Resolver {
	return nativetest.New(map[string]any{
		"mpu6500_dmp_init":     func() int32 { return 0 },
		"mpu6500_Get_Accel":    fill(0.01, -0.02, 1.0),
		"mpu6500_Get_Gyro":     fill(1.5, 0, -2.5),
		"mpu6500_Get_Attitude": fill(90, -45, 180),
		"mpu_get_gyro_fsr":     func(p *uint16) int32 { *p = 2000; return 0 },
		"mpu_get_accel_fsr":    func(p *uint8) int32 { *p = 8; return 0 },
		"mpu_set_gyro_fsr":     func(uint32) int32 { return 0 },
		"mpu_set_accel_fsr":    func(int32) int32 { return 0 },
	})
}

func mustNew(t *testing.T, r native.Resolver) *MPU {
	t.Helper()
	m, err := New(r)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return m
}

func TestOpen(t *testing.T) {
	r := fakeModule()
	m := mustNew(t, r)
	if got := m.Open(); got != 0 {
		t.Errorf("Open() = %d, want 0", got)
	}

	r.Set("mpu6500_dmp_init", func() int32 { return 7 })
	m = mustNew(t, r)
	if got := m.Open(); got != 7 {
		t.Errorf("Open() = %d, want native code 7", got)
	}
}

func TestReadings(t *testing.T) {
	m := mustNew(t, fakeModule())

	tests := []struct {
		name string
		read func(*Vector) int32
		want Vector
	}{
		{"accel", m.Accel, Vector{0.01, -0.02, 1.0}},
		{"gyro", m.Gyro, Vector{1.5, 0, -2.5}},
		{"attitude", m.Attitude, Vector{90, -45, 180}},
	}
	for _, tt := range tests {
		var v Vector
		if ret := tt.read(&v); ret != 0 {
			t.Errorf("%s returned %d", tt.name, ret)
		}
		if v != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, v, tt.want)
		}
	}
}

func TestReadFailurePassesCode(t *testing.T) {
	r := fakeModule()
	r.Set("mpu6500_Get_Gyro", func(*float32) int32 { return -1 })
	m := mustNew(t, r)

	var v Vector
	if ret := m.Gyro(&v); ret != -1 {
		t.Errorf("Gyro() = %d, want -1", ret)
	}
}

func TestAttitudeAngles(t *testing.T) {
	v := Vector{90, -45, 180}
	tests := []struct {
		name string
		got  physic.Angle
		want float64
	}{
		{"pitch", v.Pitch(), math.Pi / 2},
		{"roll", v.Roll(), -math.Pi / 4},
		{"yaw", v.Yaw(), math.Pi},
	}
	for _, tt := range tests {
		rad := float64(tt.got) / float64(physic.Radian)
		if math.Abs(rad-tt.want) > 1e-6 {
			t.Errorf("%s = %f rad, want %f", tt.name, rad, tt.want)
		}
	}
	if v.X() != 90 || v.Y() != -45 || v.Z() != 180 {
		t.Errorf("axis accessors = %v %v %v", v.X(), v.Y(), v.Z())
	}
}

func TestFSRPassThrough(t *testing.T) {
	r := fakeModule()
	var gyroArg uint32
	var accelArg int32
	r.Set("mpu_set_gyro_fsr", func(v uint32) int32 { gyroArg = v; return 0 })
	r.Set("mpu_set_accel_fsr", func(v int32) int32 { accelArg = v; return -1 })
	m := mustNew(t, r)

	if got := m.GyroFSR(); got != 2000 {
		t.Errorf("GyroFSR() = %d, want 2000", got)
	}
	if got := m.AccelFSR(); got != 8 {
		t.Errorf("AccelFSR() = %d, want 8", got)
	}
	if ret := m.SetGyroFSR(GyroFSR500); ret != 0 || gyroArg != 500 {
		t.Errorf("SetGyroFSR = %d (arg %d)", ret, gyroArg)
	}
	// Values outside the documented set are not filtered here.
	if ret := m.SetAccelFSR(3); ret != -1 || accelArg != 3 {
		t.Errorf("SetAccelFSR = %d (arg %d)", ret, accelArg)
	}
}

func TestNewMissingSymbol(t *testing.T) {
	r := fakeModule()
	r.Delete("mpu6500_Get_Attitude")
	if _, err := New(r); !errors.Is(err, native.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}
