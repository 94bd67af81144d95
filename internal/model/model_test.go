package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a, b := NewSnapshot(now), NewSnapshot(now)

	if a.ID == uuid.Nil || a.ID == b.ID {
		t.Errorf("IDs must be unique and non-nil: %v %v", a.ID, b.ID)
	}
	if !a.Time.Equal(now) {
		t.Errorf("Time = %v, want %v", a.Time, now)
	}
	if !a.OK() {
		t.Error("fresh snapshot should be OK")
	}
	a.Errors = append(a.Errors, "ADC_GetAll: -1")
	if a.OK() {
		t.Error("snapshot with errors reported OK")
	}
}

func TestSnapshotJSONOmitsEmptyErrors(t *testing.T) {
	b, err := json.Marshal(NewSnapshot(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["errors"]; ok {
		t.Errorf("errors key present in %s", b)
	}
	if _, ok := m["analog"]; !ok {
		t.Errorf("analog key missing in %s", b)
	}
}
