package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
)

func TestErrorWriter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writeError := ErrorWriter(logger.Nop())

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.Validation("bad score"), http.StatusBadRequest, `{"error":"bad score","code":"validation_error"}`},
		{apperr.NotFound("article not found"), http.StatusNotFound, `{"error":"article not found","code":"not_found"}`},
		{apperr.Forbidden("admin access required"), http.StatusForbidden, `{"error":"admin access required","code":"forbidden"}`},
		{errors.New("sql: connection reset"), http.StatusInternalServerError, `{"error":"an error occurred while processing the request","code":"internal_error"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeError(c, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestParseID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	_, err := parseID(c, "id")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
