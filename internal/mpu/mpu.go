// Package mpu reads the onboard MPU6500 through the module's DMP driver.
//
// Open must be called once before reading. The module's defaults are
// ±8 g, ±2000 °/s and a 1 kHz sample rate.
package mpu

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"

	appLog "uptech/internal/log"
	"uptech/internal/native"
)

// Full-scale range values documented for mpu_set_gyro_fsr, in °/s.
const (
	GyroFSR250  uint32 = 250
	GyroFSR500  uint32 = 500
	GyroFSR1000 uint32 = 1000
	GyroFSR2000 uint32 = 2000
)

// Full-scale range values documented for mpu_set_accel_fsr, in g.
const (
	AccelFSR2G  int32 = 2
	AccelFSR4G  int32 = 4
	AccelFSR8G  int32 = 8
	AccelFSR16G int32 = 16
)

// Vector is one 3-axis reading: X/Y/Z, or pitch/roll/yaw for attitude.
type Vector [3]float32

func (v Vector) X() float32 { return v[0] }
func (v Vector) Y() float32 { return v[1] }
func (v Vector) Z() float32 { return v[2] }

// Pitch, Roll and Yaw read an attitude vector (degrees) as angles.
func (v Vector) Pitch() physic.Angle { return degrees(v[0]) }
func (v Vector) Roll() physic.Angle  { return degrees(v[1]) }
func (v Vector) Yaw() physic.Angle   { return degrees(v[2]) }

func degrees(d float32) physic.Angle {
	return physic.Angle(float64(d) * float64(physic.Degree))
}

// MPU is the bound mpu6500_* / mpu_* symbol table.
type MPU struct {
	dmpInit     func() int32
	getAccel    func(*float32) int32
	getGyro     func(*float32) int32
	getAttitude func(*float32) int32
	getGyroFSR  func(*uint16) int32
	getAccelFSR func(*uint8) int32
	setGyroFSR  func(uint32) int32
	setAccelFSR func(int32) int32
}

// New binds the MPU symbols from r.
func New(r native.Resolver) (*MPU, error) {
	m := &MPU{}
	err := native.Bind(r,
		native.Sym("mpu6500_dmp_init", &m.dmpInit),
		native.Sym("mpu6500_Get_Accel", &m.getAccel),
		native.Sym("mpu6500_Get_Gyro", &m.getGyro),
		native.Sym("mpu6500_Get_Attitude", &m.getAttitude),
		native.Sym("mpu_get_gyro_fsr", &m.getGyroFSR),
		native.Sym("mpu_get_accel_fsr", &m.getAccelFSR),
		native.Sym("mpu_set_gyro_fsr", &m.setGyroFSR),
		native.Sym("mpu_set_accel_fsr", &m.setAccelFSR),
	)
	if err != nil {
		return nil, fmt.Errorf("mpu: %w", err)
	}
	return m, nil
}

var defaultMPU = sync.OnceValue(func() *MPU {
	m, err := New(native.Default())
	if err != nil {
		appLog.Error("mpu: symbol table does not match libuptech.so", err)
		panic(err)
	}
	return m
})

// Default binds against the process-wide library and panics on failure.
func Default() *MPU {
	return defaultMPU()
}

// Open initializes the sensor and its DMP. 0 is success.
func (m *MPU) Open() int32 {
	appLog.Info("initializing MPU6500")

	ret := m.dmpInit()
	if ret != 0 {
		appLog.Error("failed to initialize MPU6500",
			errors.New("check that the channel was opened with adc_io_open() and that libuptech.so is loaded"),
			"op", "mpu6500_dmp_init", "ret", ret)
		return ret
	}
	appLog.Info("MPU6500 initialized")
	return ret
}

// Accel fills v with acceleration in g.
func (m *MPU) Accel(v *Vector) int32 {
	return m.getAccel(&v[0])
}

// Gyro fills v with angular velocity in °/s.
func (m *MPU) Gyro(v *Vector) int32 {
	return m.getGyro(&v[0])
}

// Attitude fills v with pitch, roll and yaw in degrees, as fused by the DMP.
func (m *MPU) Attitude(v *Vector) int32 {
	return m.getAttitude(&v[0])
}

func (m *MPU) GyroFSR() uint16 {
	var fsr uint16
	m.getGyroFSR(&fsr)
	return fsr
}

func (m *MPU) AccelFSR() uint8 {
	var fsr uint8
	m.getAccelFSR(&fsr)
	return fsr
}

// SetGyroFSR passes fsr through; the module decides which values it takes.
func (m *MPU) SetGyroFSR(fsr uint32) int32 {
	return m.setGyroFSR(fsr)
}

// SetAccelFSR passes fsr through; the module decides which values it takes.
func (m *MPU) SetAccelFSR(fsr int32) int32 {
	return m.setAccelFSR(fsr)
}
