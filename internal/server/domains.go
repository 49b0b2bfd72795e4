package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type requestCustomDomainRequest struct {
	Domain string `json:"domain"`
}

func (s *Server) RequestCustomDomain(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	var req requestCustomDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dc, err := s.tenantSvc.RequestCustomDomain(c.Request.Context(), schoolID, req.Domain)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The verification token travels once in the response; it is not
	// readable afterwards.
	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"domain":             dc,
			"verification_token": dc.VerificationToken,
		},
	})
}

type verifyCustomDomainRequest struct {
	Domain string `json:"domain"`
	Token  string `json:"token"`
}

func (s *Server) VerifyCustomDomain(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}

	var req verifyCustomDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dc, err := s.tenantSvc.VerifyCustomDomain(c.Request.Context(), schoolID, req.Domain, req.Token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dc})
}
