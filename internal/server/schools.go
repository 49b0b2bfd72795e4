package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
)

type createSchoolRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Server) CreateSchool(c *gin.Context) {
	var req createSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	school, err := s.schoolSvc.Create(c.Request.Context(), schooldomain.CreateSchoolRequest{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": school})
}

func (s *Server) GetSchool(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	school, err := s.schoolSvc.Get(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": school})
}

type setSchoolStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetSchoolStatus(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	var req setSchoolStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	school, err := s.schoolSvc.SetStatus(c.Request.Context(), schoolID, strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": school})
}

func (s *Server) RotateWebhookSecret(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	school, err := s.schoolSvc.RotateWebhookSecret(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The secret is write-only in the model; hand back the fresh value once
	// so the seller can configure their provider.
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"school_id":      school.ID,
			"webhook_secret": school.WebhookSecret,
		},
	})
}
