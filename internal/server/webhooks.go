package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type receiveWebhookRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// ReceiveWebhook is the payment provider ingress. Replayed events answer 200
// with the stored receipt, so providers can retry safely.
func (s *Server) ReceiveWebhook(c *gin.Context) {
	provider := strings.ToUpper(strings.TrimSpace(c.Param("provider")))

	var req receiveWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	receipt, err := s.webhookSvc.Process(c.Request.Context(), provider, req.Payload, req.Signature)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": receipt})
}
