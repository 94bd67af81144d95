// Package sampler reads the whole board on a cron schedule and keeps the
// latest snapshot for the HTTP API.
package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"uptech/internal/adcio"
	appLog "uptech/internal/log"
	"uptech/internal/model"
	"uptech/internal/mpu"
)

// IO is the part of *adcio.IO the sampler reads.
type IO interface {
	ReadAnalog(buf *[adcio.AnalogChannels]int32) error
	Levels() uint8
	Modes() uint8
}

// Motion is the part of *mpu.MPU the sampler reads.
type Motion interface {
	Accel(v *mpu.Vector) int32
	Gyro(v *mpu.Vector) int32
	Attitude(v *mpu.Vector) int32
}

// Sampler serializes its own calls into the module; other callers of the
// same devices (e.g. the web API) must go through Do.
type Sampler struct {
	io     IO
	motion Motion
	now    func() time.Time

	mu sync.Mutex // held across native calls

	latestMu sync.RWMutex
	latest   *model.Snapshot
}

// New returns a Sampler. motion may be nil when the MPU is not opened.
func New(io IO, motion Motion) *Sampler {
	return &Sampler{
		io:     io,
		motion: motion,
		now:    time.Now,
	}
}

// Do runs fn while holding the device lock.
func (s *Sampler) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Sample reads every channel once and stores the result as Latest.
// Failing reads are recorded in Snapshot.Errors; nothing is retried.
// Stamping and publishing happen under the device lock, so Latest is
// always the most recent read.
func (s *Sampler) Sample() *model.Snapshot {
	var snap *model.Snapshot

	s.Do(func() {
		snap = model.NewSnapshot(s.now())
		defer s.publish(snap)

		if err := s.io.ReadAnalog(&snap.Analog); err != nil {
			snap.Errors = append(snap.Errors, err.Error())
		}
		snap.Levels = s.io.Levels()
		snap.Modes = s.io.Modes()

		if s.motion == nil {
			return
		}
		reads := []struct {
			name string
			read func(*mpu.Vector) int32
			dst  *[3]float32
		}{
			{"mpu6500_Get_Accel", s.motion.Accel, &snap.Accel},
			{"mpu6500_Get_Gyro", s.motion.Gyro, &snap.Gyro},
			{"mpu6500_Get_Attitude", s.motion.Attitude, &snap.Attitude},
		}
		for _, r := range reads {
			v := (*mpu.Vector)(r.dst)
			if ret := r.read(v); ret != 0 {
				snap.Errors = append(snap.Errors, fmt.Sprintf("mpu: %s returned %d", r.name, ret))
			}
		}
	})

	if !snap.OK() {
		appLog.Warn("sample incomplete", "id", snap.ID, "errors", len(snap.Errors))
	} else {
		appLog.Debug("sample taken", "id", snap.ID, "levels", fmt.Sprintf("%#08b", snap.Levels))
	}

	return snap
}

func (s *Sampler) publish(snap *model.Snapshot) {
	s.latestMu.Lock()
	s.latest = snap
	s.latestMu.Unlock()
}

// Latest returns the last snapshot, or nil before the first Sample.
func (s *Sampler) Latest() *model.Snapshot {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latest
}

// Start takes a first sample, then samples on spec until ctx is done.
func (s *Sampler) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sample() }); err != nil {
		return fmt.Errorf("sampler: invalid schedule %q: %w", spec, err)
	}

	s.Sample()
	c.Start()
	appLog.Info("sampler started", "schedule", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("sampler stopped")
	}()
	return nil
}
