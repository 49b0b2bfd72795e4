package server

import (
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := snowflake.ParseString(raw)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid_snowflake_id")
	}
	return parsed, nil
}

func schoolIDParam(c *gin.Context) (snowflake.ID, bool) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_school_id", "invalid school id"))
		return 0, false
	}
	return id, true
}
