package counters

import (
	"pesantrenku_backend/internals/features/school/students/model"

	"github.com/google/uuid"
)

// UnitDelta is one counter adjustment.
type UnitDelta struct {
	SchoolID uuid.UUID
	UnitCode string
	Delta    int
}

// DeltasFor translates a lifecycle event into counter adjustments:
//   - unit changed while staying active: -1 old unit, +1 new unit
//   - became active (or created active): +1 current unit
//   - became inactive (or deleted while active): -1 previous unit
func DeltasFor(evt model.LifecycleEvent) []UnitDelta {
	before, after := evt.Before, evt.After
	wasActive, isActive := before.Active(), after.Active()

	switch {
	case wasActive && isActive:
		if before.SchoolID == after.SchoolID && before.UnitCode == after.UnitCode {
			return nil
		}
		return []UnitDelta{
			{SchoolID: before.SchoolID, UnitCode: before.UnitCode, Delta: -1},
			{SchoolID: after.SchoolID, UnitCode: after.UnitCode, Delta: +1},
		}
	case !wasActive && isActive:
		return []UnitDelta{{SchoolID: after.SchoolID, UnitCode: after.UnitCode, Delta: +1}}
	case wasActive && !isActive:
		return []UnitDelta{{SchoolID: before.SchoolID, UnitCode: before.UnitCode, Delta: -1}}
	}
	return nil
}
