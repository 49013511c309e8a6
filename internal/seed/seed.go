package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/store"
)

// DefaultSettings is the settings row created for an empty database.
func DefaultSettings() models.Settings {
	return models.Settings{
		InstitutionName: "EduPay Institute",
		Branches:        []string{"CSE", "ECE", "ME", "CE"},
		Semesters:       []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		Sessions:        []string{"2024-25", "2025-26"},
	}
}

// CreateDefaultData creates the settings row if none exists.
func CreateDefaultData(ctx context.Context, gw store.Gateway, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default settings...")

	rows, err := gw.SelectAll(ctx, store.TableSettings)
	if err != nil {
		lgr.Error().Err(err).Msg("Error reading settings")
		return err
	}
	if len(rows) > 0 {
		lgr.Info().Msg("Settings already exist, skipping creation")
		return nil
	}

	rec := normalize.SettingsRecord(DefaultSettings())
	if _, err := gw.Insert(ctx, store.TableSettings, rec); err != nil {
		lgr.Error().Err(err).Msg("Error creating default settings")
		return err
	}
	lgr.Info().Msg("Default settings created")
	return nil
}

type demoCourse struct {
	name      string
	frequency models.Frequency
	heads     []models.FeeHead
}

var demoCourses = []demoCourse{
	{
		name:      "B.Tech Computer Science",
		frequency: models.FrequencyAnnual,
		heads: []models.FeeHead{
			{Name: "Tuition Fee", Amount: decimal.NewFromInt(60000), Category: models.CategoryBase},
			{Name: "Admission Fee", Amount: decimal.NewFromInt(10000), Category: models.CategoryOneTime},
			{Name: "Library Fee", Amount: decimal.NewFromInt(5000), Category: models.CategoryOptional},
		},
	},
	{
		name:      "MBA",
		frequency: models.FrequencySemester,
		heads: []models.FeeHead{
			{Name: "Tuition Fee", Amount: decimal.NewFromInt(90000), Category: models.CategoryBase},
			{Name: "Exam Fee", Amount: decimal.NewFromInt(4000), Category: models.CategoryBase},
		},
	},
}

var demoStudents = []models.Student{
	{Name: "Aarav Sharma", ParentName: "Rakesh Sharma", RollNumber: "CS-001", Branch: "CSE", Semester: "1", SessionID: "2024-25", Phone: "98200 12345", EnrollmentDate: "2024-07-15"},
	{Name: "Diya Patel", ParentName: "Mehul Patel", RollNumber: "CS-002", Branch: "CSE", Semester: "1", SessionID: "2024-25", Email: "diya@example.com", EnrollmentDate: "2024-07-16"},
	{Name: "Kabir Rao", ParentName: "Sunita Rao", RollNumber: "MBA-001", Semester: "1", SessionID: "2024-25", Phone: "+91 99000 11111", EnrollmentDate: "2024-07-20"},
}

// CreateDemoData adds sample courses and students to a ledger with no courses.
// Students are split across the demo courses in order.
func CreateDemoData(ctx context.Context, gw store.Gateway, lgr zerolog.Logger) error {
	rows, err := gw.SelectAll(ctx, store.TableCourses)
	if err != nil {
		lgr.Error().Err(err).Msg("Error reading courses")
		return err
	}
	if len(rows) > 0 {
		lgr.Info().Int("courses", len(rows)).Msg("Courses already exist, skipping demo data")
		return nil
	}

	return gw.WithTx(ctx, func(tx store.Gateway) error {
		var finalErr error
		courseIDs := make([]string, 0, len(demoCourses))

		for _, dc := range demoCourses {
			course := models.Course{Name: dc.name, Frequency: dc.frequency, TotalAmount: models.SumHeads(dc.heads)}
			stored, err := tx.Insert(ctx, store.TableCourses, normalize.CourseRecord(course))
			if err != nil {
				lgr.Error().Err(err).Str("course", dc.name).Msg("Error creating demo course")
				return err
			}
			courseID := normalize.Course(stored).ID
			courseIDs = append(courseIDs, courseID)

			for _, h := range dc.heads {
				if _, err := tx.Insert(ctx, store.TableFeeHeads, normalize.FeeHeadRecord(courseID, h)); err != nil {
					lgr.Error().Err(err).Str("head", h.Name).Msg("Error creating demo fee head")
					finalErr = errors.Join(finalErr, err)
				}
			}
		}

		for i, st := range demoStudents {
			st.CourseID = courseIDs[i*len(courseIDs)/len(demoStudents)]
			if _, err := tx.Insert(ctx, store.TableStudents, normalize.StudentRecord(st)); err != nil {
				lgr.Error().Err(err).Str("student", st.Name).Msg("Error creating demo student")
				finalErr = errors.Join(finalErr, err)
			}
		}

		if finalErr == nil {
			lgr.Info().Int("courses", len(demoCourses)).Int("students", len(demoStudents)).Msg("Demo data created")
		}
		return finalErr
	})
}
