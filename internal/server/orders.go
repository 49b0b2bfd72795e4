package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	CourseID   string `json:"course_id"`
	BuyerEmail string `json:"buyer_email"`
}

func (s *Server) CreatePublicOrder(c *gin.Context) {
	school := resolvedSchool(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
	if err != nil || courseID == 0 {
		AbortWithError(c, newValidationError("course_id", "invalid_course_id", "invalid course id"))
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), school.ID, courseID, req.BuyerEmail)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": order})
}

type listOrdersQuery struct {
	BuyerEmail string `form:"buyer_email"`
}

func (s *Server) ListPublicOrders(c *gin.Context) {
	school := resolvedSchool(c)

	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orders, err := s.orderSvc.ListByBuyer(c.Request.Context(), school.ID, query.BuyerEmail)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) GetOrder(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}
	orderID, err := pathID(c, "orderId")
	if err != nil {
		AbortWithError(c, newValidationError("orderId", "invalid_order_id", "invalid order id"))
		return
	}

	order, err := s.orderSvc.Get(c.Request.Context(), schoolID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) CancelOrder(c *gin.Context) {
	schoolID, ok := schoolIDParam(c)
	if !ok {
		return
	}
	orderID, err := pathID(c, "orderId")
	if err != nil {
		AbortWithError(c, newValidationError("orderId", "invalid_order_id", "invalid order id"))
		return
	}

	order, err := s.orderSvc.Cancel(c.Request.Context(), schoolID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

type startCheckoutRequest struct {
	Outcome string `json:"outcome"`
}

func (s *Server) StartCheckout(c *gin.Context) {
	school := resolvedSchool(c)

	orderID, err := pathID(c, "orderId")
	if err != nil {
		AbortWithError(c, newValidationError("orderId", "invalid_order_id", "invalid order id"))
		return
	}

	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.checkoutSvc.StartCheckout(c.Request.Context(), school.ID, orderID, req.Outcome)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": session})
}
