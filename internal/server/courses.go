package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	"github.com/skolahq/skola/internal/pricing"
)

type promoRequest struct {
	Type  string `json:"type"`
	Value int64  `json:"value"`
	Until string `json:"until"`
}

type createCourseRequest struct {
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags"`
	BaseAmount  int64         `json:"base_amount"`
	Currency    string        `json:"currency"`
	Promo       *promoRequest `json:"promo"`
}

func (s *Server) CreateCourse(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	promo, err := parsePromo(req.Promo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	create := coursedomain.CreateCourseRequest{
		SchoolID:    schoolID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		BaseAmount:  req.BaseAmount,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Promo:       promo,
	}

	var created *coursedomain.Course
	switch strings.ToUpper(strings.TrimSpace(req.Type)) {
	case coursedomain.TypeAI, "":
		created, err = s.courseSvc.CreateAI(c.Request.Context(), create)
	case coursedomain.TypeImport:
		created, err = s.courseSvc.CreateImport(c.Request.Context(), create)
	default:
		AbortWithError(c, newValidationError("type", "invalid_course_type", "invalid course type"))
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (s *Server) GetCourse(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	course, err := s.courseSvc.Get(c.Request.Context(), schoolID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) ListCourses(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	courses, err := s.courseSvc.ListBySchool(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": courses})
}

func (s *Server) GenerateStructure(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	var inputs coursedomain.GenerationInputs
	if err := c.ShouldBindJSON(&inputs); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.courseSvc.GenerateStructure(c.Request.Context(), schoolID, courseID, inputs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) EditStructure(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	var structure coursedomain.Structure
	if err := c.ShouldBindJSON(&structure); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.courseSvc.EditStructure(c.Request.Context(), schoolID, courseID, structure)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) ApproveStructure(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	course, err := s.courseSvc.Approve(c.Request.Context(), schoolID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) GenerateFull(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	course, err := s.courseSvc.GenerateFull(c.Request.Context(), schoolID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) SetImportStructure(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	var structure coursedomain.Structure
	if err := c.ShouldBindJSON(&structure); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.courseSvc.SetImportStructure(c.Request.Context(), schoolID, courseID, structure)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (s *Server) PublishCourse(c *gin.Context) {
	schoolID, courseID, ok := courseParams(c)
	if !ok {
		return
	}

	course, err := s.courseSvc.Publish(c.Request.Context(), schoolID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

func courseParams(c *gin.Context) (snowflake.ID, snowflake.ID, bool) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return 0, 0, false
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		AbortWithError(c, newValidationError("courseId", "invalid_course_id", "invalid course id"))
		return 0, 0, false
	}
	return schoolID, courseID, true
}

func parsePromo(req *promoRequest) (*pricing.Promo, error) {
	if req == nil {
		return nil, nil
	}
	until, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Until))
	if err != nil {
		return nil, newValidationError("promo.until", "invalid_promo_until", "invalid promo until")
	}
	return &pricing.Promo{
		Type:  pricing.PromoType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Value: req.Value,
		Until: until,
	}, nil
}
