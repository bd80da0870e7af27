package service

import (
	"context"
	"time"

	database "pesantrenku_backend/internals/databases"
	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/features/school/students/dto"
	"pesantrenku_backend/internals/features/school/students/model"
	"pesantrenku_backend/internals/features/school/students/repository"
	"pesantrenku_backend/internals/logger"
	"pesantrenku_backend/internals/pubsub"

	"github.com/google/uuid"
)

// StudentService owns the student lifecycle. Every committed write emits a
// LifecycleEvent so unit counters can follow along.
type StudentService struct {
	db        database.IClient
	students  *repository.StudentRepository
	publisher pubsub.Publisher
	log       *logger.Logger
}

func NewStudentService(db database.IClient, students *repository.StudentRepository, publisher pubsub.Publisher, log *logger.Logger) *StudentService {
	return &StudentService{
		db:        db,
		students:  students,
		publisher: publisher,
		log:       log.Named("students"),
	}
}

func (s *StudentService) Create(ctx context.Context, schoolID uuid.UUID, req *dto.CreateSchoolStudentRequest) (*model.SchoolStudentModel, error) {
	req.Normalize()
	m := req.ToModel()
	m.SchoolStudentSchoolID = schoolID

	if err := s.students.Create(ctx, m); err != nil {
		return nil, err
	}

	s.emit(ctx, model.LifecycleEvent{
		Kind:      model.LifecycleCreated,
		StudentID: m.SchoolStudentID,
		After:     model.StateOf(m),
	})
	return m, nil
}

func (s *StudentService) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.SchoolStudentModel, error) {
	return s.students.Get(ctx, schoolID, id)
}

func (s *StudentService) List(ctx context.Context, schoolID uuid.UUID, f repository.StudentListFilter) ([]model.SchoolStudentModel, int64, error) {
	return s.students.List(ctx, schoolID, f)
}

func (s *StudentService) Update(ctx context.Context, schoolID, id uuid.UUID, req *dto.UpdateSchoolStudentRequest) (*model.SchoolStudentModel, error) {
	var (
		before *model.StudentState
		after  *model.SchoolStudentModel
	)
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.students.Get(ctx, schoolID, id); err != nil {
			return err
		}
		cur, err := s.students.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = model.StateOf(cur)

		req.Apply(cur)
		if !cur.SchoolStudentStatus.Valid() {
			return ierr.NewError("invalid student status").
				WithHint("Status santri tidak valid").
				Mark(ierr.ErrValidation)
		}
		if cur.SchoolStudentUnitCode == "" || cur.SchoolStudentName == "" {
			return ierr.NewError("unit code and name are required").
				WithHint("Unit dan nama santri wajib diisi").
				Mark(ierr.ErrValidation)
		}
		cur.SchoolStudentUpdatedAt = time.Now()
		if err := s.students.UpdateProfile(ctx, cur); err != nil {
			return err
		}
		after = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, model.LifecycleEvent{
		Kind:      model.LifecycleUpdated,
		StudentID: id,
		Before:    before,
		After:     model.StateOf(after),
	})
	return after, nil
}

func (s *StudentService) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	cur, err := s.students.Get(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, model.LifecycleEvent{
		Kind:      model.LifecycleDeleted,
		StudentID: id,
		Before:    model.StateOf(cur),
	})
	return nil
}

// emit is fire-and-forget: a lost event is healed by the reconcile job.
func (s *StudentService) emit(ctx context.Context, evt model.LifecycleEvent) {
	if s.publisher == nil {
		return
	}
	evt.OccurredAt = time.Now()
	if err := s.publisher.Publish(ctx, model.TopicStudentLifecycle, evt); err != nil {
		s.log.Warnw("publish lifecycle event failed",
			"student_id", evt.StudentID,
			"kind", evt.Kind,
			"error", err,
		)
	}
}
