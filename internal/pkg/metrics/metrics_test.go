package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"chefmate/internal/pkg/common"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "parse_error", Outcome(&common.ParseError{Err: errors.New("x")}))
	assert.Equal(t, "schema_error", Outcome(fmt.Errorf("wrap: %w", &common.SchemaError{Field: "versions"})))
	assert.Equal(t, "file_processing_error", Outcome(&common.FileProcessingError{Err: common.ErrProcessingTimeout}))
	assert.Equal(t, "upstream_error", Outcome(&common.UpstreamError{Provider: "openai", Err: errors.New("401")}))
	assert.Equal(t, "validation_error", Outcome(common.NewValidationError("empty query")))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	counter := HTTPRequests.WithLabelValues(http.MethodGet, "/ping/:id", "418")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/42", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
