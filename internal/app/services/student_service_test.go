package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/pkg/apperrors"
)

func TestStudentCreate_RoundTripsFields(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.ledger)

	in := models.Student{
		Name:           "Meera Iyer",
		ParentName:     "R. Iyer",
		RollNumber:     "CS-03",
		CourseID:       "c1",
		Branch:         "CSE",
		Semester:       "Sem 1",
		SessionID:      "2023-24",
		Email:          "meera@example.edu",
		Phone:          "98111 22222",
		EnrollmentDate: "2023-07-10",
	}
	created, err := svc.Create(f.ctx, admin, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	view, err := svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	in.ID = created.ID
	assert.Equal(t, in, view.Student)
	assert.Equal(t, "B.Tech Computer Science", view.CourseName)
}

func TestStudentCreate_FillsDefaults(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.ledger)

	created, err := svc.Create(f.ctx, admin, models.Student{Name: "  Ishaan  ", CourseID: "c2"})
	require.NoError(t, err)
	assert.Equal(t, "Ishaan", created.Name)
	assert.Equal(t, "2024-25", created.SessionID)
	assert.Equal(t, "2024-08-01", created.EnrollmentDate)
}

func TestStudentCreate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.ledger)

	_, err := svc.Create(f.ctx, admin, models.Student{CourseID: "c1"})
	assert.Equal(t, "Student name is required.", apperrors.Message(err, ""))

	_, err = svc.Create(f.ctx, admin, models.Student{Name: "X"})
	assert.Equal(t, "Select a course.", apperrors.Message(err, ""))

	_, err = svc.Create(f.ctx, admin, models.Student{Name: "X", CourseID: "nope"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = svc.Create(f.ctx, accountant, models.Student{Name: "X", CourseID: "c1"})
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}

func TestStudentUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.ledger)

	current, err := svc.Get(f.ctx, "s3")
	require.NoError(t, err)
	changed := current.Student
	changed.CourseID = "c2"
	changed.Phone = "90000 00001"

	updated, err := svc.Update(f.ctx, admin, "s3", changed)
	require.NoError(t, err)
	assert.Equal(t, "c2", updated.CourseID)
	assert.Equal(t, "MBA", f.state.Current().CourseName(updated.CourseID))

	_, err = svc.Update(f.ctx, admin, "missing", changed)
	assert.True(t, errors.Is(err, apperrors.ErrStudentNotFound))

	require.NoError(t, svc.Delete(f.ctx, admin, "s3"))
	_, err = svc.Get(f.ctx, "s3")
	assert.True(t, errors.Is(err, apperrors.ErrStudentNotFound))
	assert.Len(t, svc.List(f.ctx), 2)
}
