package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Categories.WithLabelValues("shooting", "ok"))
	Categories.WithLabelValues("shooting", "ok").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(Categories.WithLabelValues("shooting", "ok")))
}

func TestObserveRun(t *testing.T) {
	ObserveRun(time.Now(), nil)
	require.Equal(t, 1.0, testutil.ToFloat64(RunSuccess))

	ObserveRun(time.Now(), errors.New("no data"))
	require.Equal(t, 0.0, testutil.ToFloat64(RunSuccess))
}

func TestHandler(t *testing.T) {
	Fetches.WithLabelValues("colly", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "fbref_fetches_total"))
}
