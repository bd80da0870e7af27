package model

import (
	"time"

	"github.com/google/uuid"
)

// TopicStudentLifecycle carries every student create/update/delete.
const TopicStudentLifecycle = "students.lifecycle"

type LifecycleKind string

const (
	LifecycleCreated LifecycleKind = "created"
	LifecycleUpdated LifecycleKind = "updated"
	LifecycleDeleted LifecycleKind = "deleted"
)

// StudentState is the slice of a student that unit counters care about.
type StudentState struct {
	SchoolID uuid.UUID           `json:"school_id"`
	UnitCode string              `json:"unit_code"`
	Status   SchoolStudentStatus `json:"status"`
}

func (s *StudentState) Active() bool {
	return s != nil && s.Status == SchoolStudentActive
}

func StateOf(m *SchoolStudentModel) *StudentState {
	if m == nil {
		return nil
	}
	return &StudentState{
		SchoolID: m.SchoolStudentSchoolID,
		UnitCode: m.SchoolStudentUnitCode,
		Status:   m.SchoolStudentStatus,
	}
}

// LifecycleEvent: Before nil on create, After nil on delete.
type LifecycleEvent struct {
	Kind       LifecycleKind `json:"kind"`
	StudentID  uuid.UUID     `json:"student_id"`
	Before     *StudentState `json:"before,omitempty"`
	After      *StudentState `json:"after,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
