package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/empirehq/revenue_backend/utils"
	"github.com/gin-gonic/gin"
)

func TestOpsAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("OPS_API_TOKEN", "s3cret")

	var gotAdmin bool
	var gotUserName string
	r := gin.New()
	r.Use(OpsAuthMiddleware())
	r.POST("/internal/ops/noop", func(c *gin.Context) {
		gotAdmin, _ = utils.GetIsAdminFromContext(c.Request.Context())
		gotUserName, _ = utils.GetUserNameFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/ops/noop", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/internal/ops/noop", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/internal/ops/noop", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	req.Header.Set("x-user-name", "ops-oncall")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("valid token: status = %d, want 204", w.Code)
	}
	if !gotAdmin {
		t.Error("authorized request did not mark the context as admin")
	}
	if gotUserName != "ops-oncall" {
		t.Errorf("user_name = %q, want ops-oncall", gotUserName)
	}
}

func TestOpsAuthMiddlewareRejectsWhenUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("OPS_API_TOKEN", "")

	r := gin.New()
	r.Use(OpsAuthMiddleware())
	r.POST("/internal/ops/noop", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/ops/noop", nil)
	req.Header.Set("Authorization", "Bearer ")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unset token must deny everything, status = %d", w.Code)
	}
}
