package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/skolahq/skola/internal/observability/context"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
)

const schoolContextKey = "resolved_school"

// HostResolutionMiddleware maps the request Host header to a school via the
// tenant directory. Unknown hosts and unverified custom domains 404.
func (s *Server) HostResolutionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		school, err := s.tenantSvc.ResolveHost(c.Request.Context(), c.Request.Host)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if school == nil {
			AbortWithError(c, schooldomain.ErrNotFound)
			return
		}
		if school.Status != schooldomain.StatusActive {
			AbortWithError(c, schooldomain.ErrSuspended)
			return
		}

		ctx := obscontext.WithSchoolID(c.Request.Context(), school.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(schoolContextKey, school)
		c.Next()
	}
}

func resolvedSchool(c *gin.Context) *schooldomain.School {
	value, ok := c.Get(schoolContextKey)
	if !ok {
		return nil
	}
	school, _ := value.(*schooldomain.School)
	return school
}
