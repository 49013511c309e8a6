package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/store"
)

// CourseDraft is a course being edited. Its total always equals the sum of
// its heads.
type CourseDraft struct {
	ID        string
	Name      string
	Frequency models.Frequency
	heads     []models.FeeHead
	total     decimal.Decimal
}

// NewCourseDraft starts a draft for a new course.
func NewCourseDraft(name string, frequency models.Frequency) *CourseDraft {
	return &CourseDraft{Name: name, Frequency: frequency, total: decimal.Zero}
}

// DraftFromCourse starts a draft editing an existing course.
func DraftFromCourse(c models.Course) *CourseDraft {
	d := &CourseDraft{ID: c.ID, Name: c.Name, Frequency: c.Frequency}
	for _, h := range c.Heads {
		d.heads = append(d.heads, models.FeeHead{Name: h.Name, Amount: h.Amount, Category: h.Category})
	}
	d.recompute()
	return d
}

// AddHead appends a head and recomputes the total.
func (d *CourseDraft) AddHead(name string, amount decimal.Decimal, category models.HeadCategory) {
	d.heads = append(d.heads, models.FeeHead{Name: name, Amount: amount, Category: category})
	d.recompute()
}

// RemoveHead drops the head at index i and recomputes the total.
func (d *CourseDraft) RemoveHead(i int) bool {
	if i < 0 || i >= len(d.heads) {
		return false
	}
	d.heads = append(d.heads[:i:i], d.heads[i+1:]...)
	d.recompute()
	return true
}

// Heads returns a copy of the draft's heads.
func (d *CourseDraft) Heads() []models.FeeHead {
	return append([]models.FeeHead(nil), d.heads...)
}

// Total is the sum of the draft's heads.
func (d *CourseDraft) Total() decimal.Decimal {
	return d.total
}

func (d *CourseDraft) recompute() {
	d.total = models.SumHeads(d.heads)
}

// Course returns the course described by the draft.
func (d *CourseDraft) Course() models.Course {
	return models.Course{
		ID:          d.ID,
		Name:        strings.TrimSpace(d.Name),
		Frequency:   d.Frequency,
		TotalAmount: d.total,
		Heads:       d.Heads(),
	}
}

func (d *CourseDraft) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return apperrors.Validation("Course name is required.")
	}
	if !d.Frequency.Valid() {
		return apperrors.Validation(fmt.Sprintf("Unknown billing frequency %q.", d.Frequency))
	}
	if len(d.heads) == 0 {
		return apperrors.Validation("Add at least one fee head.")
	}
	for i, h := range d.heads {
		if strings.TrimSpace(h.Name) == "" {
			return apperrors.Validation(fmt.Sprintf("Fee head %d needs a name.", i+1))
		}
		if h.Amount.IsNegative() {
			return apperrors.Validation(fmt.Sprintf("Fee head %q cannot have a negative amount.", h.Name))
		}
		if !h.Category.Valid() {
			return apperrors.Validation(fmt.Sprintf("Fee head %q has unknown category %q.", h.Name, h.Category))
		}
	}
	return nil
}

// CourseService defines the interface for fee structure operations
type CourseService interface {
	List(ctx context.Context) []models.Course
	Get(ctx context.Context, id string) (models.Course, error)
	Save(ctx context.Context, actor models.Session, draft *CourseDraft) (models.Course, error)
	Delete(ctx context.Context, actor models.Session, id string) error
}

type courseServiceImpl struct {
	ledger *Ledger
}

// NewCourseService creates a new course service instance
func NewCourseService(ledger *Ledger) CourseService {
	return &courseServiceImpl{ledger: ledger}
}

func (s *courseServiceImpl) List(ctx context.Context) []models.Course {
	return s.ledger.snapshot().Courses
}

func (s *courseServiceImpl) Get(ctx context.Context, id string) (models.Course, error) {
	c, ok := s.ledger.snapshot().Course(id)
	if !ok {
		return models.Course{}, fmt.Errorf("%w: %s", apperrors.ErrCourseNotFound, id)
	}
	return c, nil
}

// Save creates the course when the draft has no id, otherwise replaces the
// course and its whole head set. Heads are never diffed.
func (s *courseServiceImpl) Save(ctx context.Context, actor models.Session, draft *CourseDraft) (models.Course, error) {
	if err := requireAdmin(actor, "edit fee structures"); err != nil {
		return models.Course{}, err
	}
	if draft == nil {
		return models.Course{}, fmt.Errorf("%w: draft is nil", apperrors.ErrValidationFailed)
	}
	if err := draft.validate(); err != nil {
		return models.Course{}, err
	}
	course := draft.Course()

	err := s.ledger.Gateway.WithTx(ctx, func(tx store.Gateway) error {
		if course.ID == "" {
			rec, err := tx.Insert(ctx, store.TableCourses, normalize.CourseRecord(course))
			if err != nil {
				return fmt.Errorf("inserting course: %w", err)
			}
			course.ID = normalize.Course(rec).ID
		} else {
			n, err := tx.Update(ctx, store.TableCourses, store.Record{"id": course.ID}, normalize.CourseRecord(course))
			if err != nil {
				return fmt.Errorf("updating course: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", apperrors.ErrCourseNotFound, course.ID)
			}
			if _, err := tx.Delete(ctx, store.TableFeeHeads, store.Record{"course_id": course.ID}); err != nil {
				return fmt.Errorf("clearing fee heads: %w", err)
			}
		}
		for _, h := range course.Heads {
			if _, err := tx.Insert(ctx, store.TableFeeHeads, normalize.FeeHeadRecord(course.ID, h)); err != nil {
				return fmt.Errorf("inserting fee head %q: %w", h.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Course{}, err
	}

	s.ledger.log.Info().Str("courseId", course.ID).Str("total", course.TotalAmount.String()).Msg("Fee structure saved")
	s.ledger.refresh(ctx)

	if saved, ok := s.ledger.snapshot().Course(course.ID); ok {
		return saved, nil
	}
	return course, nil
}

// Delete removes a course and its heads. Students still enrolled keep the
// dangling reference, show as Unassigned, and a warning is emitted.
func (s *courseServiceImpl) Delete(ctx context.Context, actor models.Session, id string) error {
	if err := requireAdmin(actor, "delete fee structures"); err != nil {
		return err
	}

	snap := s.ledger.snapshot()
	name := id
	if c, ok := snap.Course(id); ok {
		name = c.Name
	}
	enrolled := 0
	for _, st := range snap.Students {
		if st.CourseID == id {
			enrolled++
		}
	}

	err := s.ledger.Gateway.WithTx(ctx, func(tx store.Gateway) error {
		if _, err := tx.Delete(ctx, store.TableFeeHeads, store.Record{"course_id": id}); err != nil {
			return fmt.Errorf("deleting fee heads: %w", err)
		}
		n, err := tx.Delete(ctx, store.TableCourses, store.Record{"id": id})
		if err != nil {
			return fmt.Errorf("deleting course: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrCourseNotFound, id)
		}
		if enrolled > 0 {
			msg := fmt.Sprintf("Course %s was deleted; %d student(s) are now Unassigned.", name, enrolled)
			if err := emitNotification(ctx, tx, models.NotificationWarning, msg); err != nil {
				return fmt.Errorf("emitting notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.ledger.log.Info().Str("courseId", id).Int("orphanedStudents", enrolled).Msg("Fee structure deleted")
	s.ledger.refresh(ctx)
	return nil
}
