package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var stored string
	r.GET("/ok", func(c *gin.Context) {
		stored = c.GetString(requestIDKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	echoed := w.Header().Get(requestIDHeader)
	if echoed == "" {
		t.Fatal("expected a generated request ID on the response")
	}
	if stored != echoed {
		t.Fatalf("context ID %q != header ID %q", stored, echoed)
	}
}

func TestRequestID_PropagatesIncoming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "rid-incoming")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(requestIDHeader); got != "rid-incoming" {
		t.Fatalf("request ID = %q; want the incoming one", got)
	}
}

func TestLogger_StoresRequestScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	var hadLogger bool
	r.GET("/ok", func(c *gin.Context) {
		_, hadLogger = c.Get(loggerKey)
		if LoggerFrom(c) == nil {
			t.Error("LoggerFrom returned nil inside request")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if !hadLogger {
		t.Fatal("expected request-scoped logger in context")
	}
}

func TestLoggerFrom_FallsBackToGlobal(t *testing.T) {
	if LoggerFrom(nil) != &log.Logger {
		t.Fatal("nil context should yield the global logger")
	}

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) != &log.Logger {
		t.Fatal("context without logger should yield the global logger")
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-panic")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d; want 500", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-panic" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func Test_asString(t *testing.T) {
	if asString("x") != "x" {
		t.Error("string passthrough failed")
	}
	if asString(nil) != "" || asString(42) != "" {
		t.Error("non-strings should coerce to empty")
	}
}
