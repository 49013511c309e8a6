package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/store"
)

// StudentView is a student with its course name resolved.
type StudentView struct {
	models.Student
	CourseName string `json:"courseName"`
}

// StudentService defines the interface for enrollment operations
type StudentService interface {
	List(ctx context.Context) []StudentView
	Get(ctx context.Context, id string) (StudentView, error)
	Create(ctx context.Context, actor models.Session, student models.Student) (models.Student, error)
	Update(ctx context.Context, actor models.Session, id string, student models.Student) (models.Student, error)
	Delete(ctx context.Context, actor models.Session, id string) error
}

type studentServiceImpl struct {
	ledger *Ledger
}

// NewStudentService creates a new student service instance
func NewStudentService(ledger *Ledger) StudentService {
	return &studentServiceImpl{ledger: ledger}
}

func (s *studentServiceImpl) List(ctx context.Context) []StudentView {
	snap := s.ledger.snapshot()
	out := make([]StudentView, 0, len(snap.Students))
	for _, st := range snap.Students {
		out = append(out, StudentView{Student: st, CourseName: snap.CourseName(st.CourseID)})
	}
	return out
}

func (s *studentServiceImpl) Get(ctx context.Context, id string) (StudentView, error) {
	snap := s.ledger.snapshot()
	st, ok := snap.Student(id)
	if !ok {
		return StudentView{}, fmt.Errorf("%w: %s", apperrors.ErrStudentNotFound, id)
	}
	return StudentView{Student: st, CourseName: snap.CourseName(st.CourseID)}, nil
}

// prepare validates the student and fills defaults.
func (s *studentServiceImpl) prepare(st models.Student) (models.Student, error) {
	st.Name = strings.TrimSpace(st.Name)
	st.RollNumber = strings.TrimSpace(st.RollNumber)
	if st.Name == "" {
		return st, apperrors.Validation("Student name is required.")
	}
	if st.CourseID == "" {
		return st, apperrors.Validation("Select a course.")
	}

	snap := s.ledger.snapshot()
	if _, ok := snap.Course(st.CourseID); !ok {
		return st, apperrors.Validation("Selected course does not exist.")
	}
	if st.SessionID == "" {
		st.SessionID = snap.Settings.DefaultSession()
	}
	if st.EnrollmentDate == "" {
		st.EnrollmentDate = s.ledger.today()
	} else if _, err := time.Parse("2006-01-02", st.EnrollmentDate); err != nil {
		return st, apperrors.Validation("Enrollment date must be YYYY-MM-DD.")
	}
	return st, nil
}

func (s *studentServiceImpl) Create(ctx context.Context, actor models.Session, student models.Student) (models.Student, error) {
	if err := requireAdmin(actor, "enroll students"); err != nil {
		return models.Student{}, err
	}
	student, err := s.prepare(student)
	if err != nil {
		return models.Student{}, err
	}

	rec, err := s.ledger.Gateway.Insert(ctx, store.TableStudents, normalize.StudentRecord(student))
	if err != nil {
		return models.Student{}, fmt.Errorf("inserting student: %w", err)
	}
	student.ID = normalize.Student(rec).ID

	s.ledger.log.Info().Str("studentId", student.ID).Msg("Student enrolled")
	s.ledger.refresh(ctx)

	if saved, ok := s.ledger.snapshot().Student(student.ID); ok {
		return saved, nil
	}
	return student, nil
}

func (s *studentServiceImpl) Update(ctx context.Context, actor models.Session, id string, student models.Student) (models.Student, error) {
	if err := requireAdmin(actor, "edit students"); err != nil {
		return models.Student{}, err
	}
	student, err := s.prepare(student)
	if err != nil {
		return models.Student{}, err
	}
	student.ID = id

	n, err := s.ledger.Gateway.Update(ctx, store.TableStudents, store.Record{"id": id}, normalize.StudentRecord(student))
	if err != nil {
		return models.Student{}, fmt.Errorf("updating student: %w", err)
	}
	if n == 0 {
		return models.Student{}, fmt.Errorf("%w: %s", apperrors.ErrStudentNotFound, id)
	}

	s.ledger.refresh(ctx)
	if saved, ok := s.ledger.snapshot().Student(id); ok {
		return saved, nil
	}
	return student, nil
}

// Delete removes a student. Their payments stay in the ledger.
func (s *studentServiceImpl) Delete(ctx context.Context, actor models.Session, id string) error {
	if err := requireAdmin(actor, "delete students"); err != nil {
		return err
	}
	n, err := s.ledger.Gateway.Delete(ctx, store.TableStudents, store.Record{"id": id})
	if err != nil {
		return fmt.Errorf("deleting student: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrStudentNotFound, id)
	}
	s.ledger.log.Info().Str("studentId", id).Msg("Student deleted")
	s.ledger.refresh(ctx)
	return nil
}
