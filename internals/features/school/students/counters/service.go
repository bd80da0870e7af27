package counters

import (
	"context"

	database "pesantrenku_backend/internals/databases"
	"pesantrenku_backend/internals/features/school/students/model"
	"pesantrenku_backend/internals/features/school/students/repository"
	"pesantrenku_backend/internals/logger"

	"github.com/google/uuid"
)

// Service maintains active-students-per-unit counters.
type Service struct {
	db       database.IClient
	counters *repository.UnitCounterRepository
	students *repository.StudentRepository
	log      *logger.Logger
}

func NewService(db database.IClient, counters *repository.UnitCounterRepository, students *repository.StudentRepository, log *logger.Logger) *Service {
	return &Service{db: db, counters: counters, students: students, log: log.Named("counters")}
}

// Apply adjusts counters for one lifecycle event in a single transaction.
func (s *Service) Apply(ctx context.Context, evt model.LifecycleEvent) error {
	deltas := DeltasFor(evt)
	if len(deltas) == 0 {
		return nil
	}
	return s.db.WithTx(ctx, func(ctx context.Context) error {
		for _, d := range deltas {
			if err := s.counters.Adjust(ctx, d.SchoolID, d.UnitCode, d.Delta); err != nil {
				return err
			}
		}
		return nil
	})
}

// ActiveStudents is the informational estimate used when sizing broadcast invoices.
func (s *Service) ActiveStudents(ctx context.Context, schoolID uuid.UUID, unitCode string) (int, error) {
	return s.counters.Get(ctx, schoolID, unitCode)
}

func (s *Service) List(ctx context.Context, schoolID uuid.UUID) ([]model.UnitCounterModel, error) {
	return s.counters.List(ctx, schoolID)
}

type unitKey struct {
	school uuid.UUID
	unit   string
}

// Reconcile recomputes every counter from a live count. Units with no active
// students left are reset to zero.
func (s *Service) Reconcile(ctx context.Context) (fixed int, err error) {
	live, err := s.students.CountActiveByUnit(ctx)
	if err != nil {
		return 0, err
	}
	want := make(map[unitKey]int, len(live))
	for _, c := range live {
		want[unitKey{c.SchoolID, c.UnitCode}] = c.Total
	}

	stored, err := s.counters.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[unitKey]int, len(stored))
	for _, c := range stored {
		k := unitKey{c.UnitCounterSchoolID, c.UnitCounterUnitCode}
		have[k] = c.UnitCounterActiveStudents
		if _, ok := want[k]; !ok {
			want[k] = 0
		}
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		for k, n := range want {
			if cur, ok := have[k]; ok && cur == n {
				continue
			}
			if err := s.counters.Set(ctx, k.school, k.unit, n); err != nil {
				return err
			}
			s.log.Infow("unit counter corrected",
				"school_id", k.school, "unit_code", k.unit,
				"from", have[k], "to", n)
			fixed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fixed, nil
}
