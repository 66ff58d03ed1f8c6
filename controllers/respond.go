package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorWriter renders err as {"error", "code"}. Server-side failures are
// logged with their detail and answered with a generic message.
func ErrorWriter(log *logger.Logger) func(c *gin.Context, err error) {
	return func(c *gin.Context, err error) {
		status, code, msg := apperr.Public(err)
		if status >= 500 && log != nil {
			log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, errorBody{Error: msg, Code: code})
	}
}

func parseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s %q", name, c.Param(name))
	}
	return id, nil
}

func bindError(err error) error {
	return apperr.Validation("invalid request body: %v", err)
}
