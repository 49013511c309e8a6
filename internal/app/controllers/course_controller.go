package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/middleware"
)

// CourseController handles fee structure operations
type CourseController struct {
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

func draftFromRequest(id string, req dto.CourseRequest) *services.CourseDraft {
	draft := services.NewCourseDraft(req.Name, req.Frequency)
	draft.ID = id
	for _, h := range req.Heads {
		draft.AddHead(h.Name, h.Amount, h.Type)
	}
	return draft
}

// ListCourses returns every fee structure with its heads
// @Summary List fee structures
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Course} "Courses"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.courseService.List(ctx))
}

// CreateCourse creates a fee structure
// @Summary Create a fee structure
// @Description The total is always the sum of the heads
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CourseRequest true "Course and heads"
// @Success 201 {object} dto.APIResponse{data=models.Course} "Course created"
// @Failure 400 {object} dto.ErrorResponse "Invalid course data"
// @Failure 403 {object} dto.ErrorResponse "Administrator only"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.Save(ctx, session, draftFromRequest("", req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, course)
}

// UpdateCourse replaces a fee structure and its whole head set
// @Summary Update a fee structure
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body dto.CourseRequest true "Course and heads"
// @Success 200 {object} dto.APIResponse{data=models.Course} "Course updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid course data"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.Save(ctx, session, draftFromRequest(ctx.Param("id"), req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, course)
}

// DeleteCourse deletes a fee structure and its heads
// @Summary Delete a fee structure
// @Description Enrolled students become Unassigned and a warning notification is raised
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Course deleted"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	if err := c.courseService.Delete(ctx, session, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.SuccessResponse{Message: "Course deleted"})
}
