package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	orderdomain "github.com/skolahq/skola/internal/order/domain"
	paymentdomain "github.com/skolahq/skola/internal/payment/domain"
	"github.com/skolahq/skola/internal/pricing"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	tenantdomain "github.com/skolahq/skola/internal/tenantdir/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrSignatureInvalid):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: err.Error(),
		}
	case errors.Is(err, schooldomain.ErrSuspended),
		errors.Is(err, tenantdomain.ErrCustomDomainWrongOwner):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrCheckoutRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrGatewayDisabled),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, schooldomain.ErrNameRequired),
		errors.Is(err, schooldomain.ErrSlugInvalid),
		errors.Is(err, schooldomain.ErrStatusInvalid),
		errors.Is(err, tenantdomain.ErrCustomDomainInvalid),
		errors.Is(err, tenantdomain.ErrCustomDomainNotAllowed),
		errors.Is(err, tenantdomain.ErrTokenRequired),
		errors.Is(err, tenantdomain.ErrTokenMismatch),
		errors.Is(err, coursedomain.ErrTitleRequired),
		errors.Is(err, coursedomain.ErrStructureInvalid),
		errors.Is(err, coursedomain.ErrStructureMissing),
		errors.Is(err, coursedomain.ErrGenerationInputInvalid),
		errors.Is(err, pricing.ErrBaseAmountInvalid),
		errors.Is(err, pricing.ErrCurrencyInvalid),
		errors.Is(err, pricing.ErrPromoInvalid),
		errors.Is(err, orderdomain.ErrBuyerEmailInvalid),
		errors.Is(err, paymentdomain.ErrOutcomeInvalid),
		errors.Is(err, paymentdomain.ErrProviderUnsupported),
		errors.Is(err, paymentdomain.ErrPayloadInvalid),
		errors.Is(err, paymentdomain.ErrResultInvalid),
		errors.Is(err, auditdomain.ErrInvalidSchool),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, schooldomain.ErrSlugTaken),
		errors.Is(err, tenantdomain.ErrSubdomainCollision),
		errors.Is(err, tenantdomain.ErrCustomDomainInUse),
		errors.Is(err, coursedomain.ErrInvalidState),
		errors.Is(err, coursedomain.ErrNotAI),
		errors.Is(err, coursedomain.ErrNotImport),
		errors.Is(err, coursedomain.ErrNotReadyToPublish),
		errors.Is(err, orderdomain.ErrNotPending),
		errors.Is(err, orderdomain.ErrCourseNotForSale),
		errors.Is(err, paymentdomain.ErrSchoolMismatch),
		errors.Is(err, paymentdomain.ErrOrderMismatch):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, schooldomain.ErrNotFound),
		errors.Is(err, tenantdomain.ErrCustomDomainNotFound),
		errors.Is(err, coursedomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if idx := strings.Index(code, "_"); idx > 0 {
		return code[:idx]
	}
	return ""
}

// classifyErrorForLog feeds the request logger's error fields.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, payload.Message
}
