package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/store"
	"github.com/yigit/edupay/internal/store/memstore"
)

func TestCreateDefaultData_CreatesSettingsOnce(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	require.NoError(t, CreateDefaultData(ctx, mem, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, mem, zerolog.Nop()))

	rows := mem.Rows(store.TableSettings)
	require.Len(t, rows, 1)
	settings := normalize.Settings(rows[0])
	assert.Equal(t, "EduPay Institute", settings.InstitutionName)
	assert.Contains(t, settings.Branches, "CSE")
	assert.Equal(t, 1, mem.Calls("insert", store.TableSettings))
}

func TestCreateDemoData(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	require.NoError(t, CreateDemoData(ctx, mem, zerolog.Nop()))

	courses := mem.Rows(store.TableCourses)
	require.Len(t, courses, 2)
	assert.Len(t, mem.Rows(store.TableFeeHeads), 5)

	btech := normalize.Course(courses[0])
	assert.Equal(t, "75000", btech.TotalAmount.String())

	students := mem.Rows(store.TableStudents)
	require.Len(t, students, 3)
	assert.Equal(t, btech.ID, normalize.Student(students[0]).CourseID)
	assert.Equal(t, normalize.Course(courses[1]).ID, normalize.Student(students[2]).CourseID)

	// A second run leaves existing courses alone.
	require.NoError(t, CreateDemoData(ctx, mem, zerolog.Nop()))
	assert.Len(t, mem.Rows(store.TableCourses), 2)
}

func TestCreateDemoData_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	mem.FailTable(store.TableStudents, errors.New("write refused"))

	err := CreateDemoData(ctx, mem, zerolog.Nop())
	require.Error(t, err)
	assert.Empty(t, mem.Rows(store.TableCourses))
	assert.Empty(t, mem.Rows(store.TableFeeHeads))
}
