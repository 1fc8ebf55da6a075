package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNotFoundHandlerRendersNotFoundView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.NoRoute(notFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "not_found") {
		t.Fatalf("body must render the not_found view: %s", recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "NOT_FOUND") {
		t.Fatalf("body must carry the NOT_FOUND code: %s", recorder.Body.String())
	}
	// 未登録パスはログインへリダイレクトしない
	if location := recorder.Header().Get("Location"); location != "" {
		t.Fatalf("unexpected redirect to %q", location)
	}
}
