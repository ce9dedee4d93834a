package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/pkg/errno"
)

func TestValidAdminToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		presented  string
		want       bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "guess", false},
		{"missing header", "s3cret", "", false},
		{"not configured", "", "", false},
		{"not configured with header", "", "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAdminToken(tt.configured, tt.presented))
		})
	}
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := 0
	r := gin.New()
	r.POST("/admin/op", AdminAuth("s3cret"), func(c *gin.Context) {
		called++
		c.Status(http.StatusNoContent)
	})

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/op", nil)
		if token != "" {
			req.Header.Set(AdminTokenHeader, token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send("")
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errno.ErrPermissionDenied.Code, body.Code)
	assert.Equal(t, 0, called, "未授权请求不应到达处理器")

	send("wrong")
	assert.Equal(t, 0, called)

	w = send("s3cret")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, called)
}
