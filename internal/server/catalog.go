package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	"gorm.io/datatypes"
)

// publicCourse is the storefront projection of a course: pricing resolved to
// the effective amount, full content withheld.
type publicCourse struct {
	ID             snowflake.ID   `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Tags           []string       `json:"tags"`
	Currency       string         `json:"currency"`
	BaseAmount     int64          `json:"base_amount"`
	EffectivePrice int64          `json:"effective_price"`
	Structure      datatypes.JSON `json:"structure,omitempty"`
	PublishedAt    *time.Time     `json:"published_at"`
}

type listPublicCoursesQuery struct {
	Query    string `form:"q"`
	Tag      string `form:"tag"`
	Category string `form:"category"`
}

func (s *Server) ListPublicCourses(c *gin.Context) {
	school := resolvedSchool(c)

	var query listPublicCoursesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	courses, err := s.courseSvc.ListPublished(c.Request.Context(), school.ID, coursedomain.PublicFilter{
		Query:    query.Query,
		Tag:      query.Tag,
		Category: query.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	now := time.Now().UTC()
	out := make([]publicCourse, 0, len(courses))
	for i := range courses {
		out = append(out, toPublicCourse(&courses[i], now))
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) GetPublicCourse(c *gin.Context) {
	school := resolvedSchool(c)

	courseID, err := pathID(c, "courseId")
	if err != nil {
		AbortWithError(c, newValidationError("courseId", "invalid_course_id", "invalid course id"))
		return
	}

	course, err := s.courseSvc.Get(c.Request.Context(), school.ID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if course.State != coursedomain.StatePublished {
		AbortWithError(c, coursedomain.ErrNotFound)
		return
	}

	view := toPublicCourse(course, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"data": view})
}

type checkAccessQuery struct {
	BuyerEmail string `form:"buyer_email"`
	CourseID   string `form:"course_id"`
}

func (s *Server) CheckAccess(c *gin.Context) {
	school := resolvedSchool(c)

	var query checkAccessQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	courseID, err := snowflake.ParseString(strings.TrimSpace(query.CourseID))
	if err != nil || courseID == 0 {
		AbortWithError(c, newValidationError("course_id", "invalid_course_id", "invalid course id"))
		return
	}

	canAccess, err := s.enrollmentSvc.CanAccess(c.Request.Context(), school.ID, query.BuyerEmail, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"can_access": canAccess}})
}

func toPublicCourse(course *coursedomain.Course, now time.Time) publicCourse {
	return publicCourse{
		ID:             course.ID,
		Title:          course.Title,
		Description:    course.Description,
		Category:       course.Category,
		Tags:           course.TagList(),
		Currency:       course.Currency,
		BaseAmount:     course.BaseAmount,
		EffectivePrice: course.EffectivePrice(now),
		Structure:      course.Structure,
		PublishedAt:    course.PublishedAt,
	}
}
