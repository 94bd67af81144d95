package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is one sampling pass over the board: every ADC channel, the
// digital IO masks and the three MPU vectors.
//
// A failing read does not drop the snapshot; the failure is appended to
// Errors and that field keeps whatever the module returned.
type Snapshot struct {
	ID   uuid.UUID `json:"id"`
	Time time.Time `json:"time"`

	Analog [10]int32 `json:"analog"`

	// Levels / Modes are bit masks, bit i = IO channel i.
	Levels uint8 `json:"levels"`
	Modes  uint8 `json:"modes"`

	Accel    [3]float32 `json:"accel"`    // g, X/Y/Z
	Gyro     [3]float32 `json:"gyro"`     // °/s, X/Y/Z
	Attitude [3]float32 `json:"attitude"` // degrees, pitch/roll/yaw

	Errors []string `json:"errors,omitempty"`
}

// NewSnapshot stamps a fresh snapshot.
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		ID:   uuid.New(),
		Time: now,
	}
}

// OK reports whether every read in the pass succeeded.
func (s *Snapshot) OK() bool {
	return len(s.Errors) == 0
}
