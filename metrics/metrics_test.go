// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	_, ok := backend.(noop)
	require.True(t, ok)

	// meters of the no-op backend must be safe to use
	CounterMeter("noop_counter").Add(1)
	GaugeMeter("noop_gauge").Set(5)
	HistogramMeter("noop_histogram", BucketDuration10s).Observe(42)
	assert.Nil(t, HTTPHandler())
}

func TestPrometheusBackend(t *testing.T) {
	InitializePrometheusMetrics()
	// switching twice must keep the same backend
	first := backend
	InitializePrometheusMetrics()
	require.Same(t, first, backend)

	CounterMeter("test_counter").Add(3)
	CounterVecMeter("test_counter_vec", []string{"op"}).AddWithLabel(2, map[string]string{"op": "stake"})
	GaugeMeter("test_gauge").Set(7)
	GaugeVecMeter("test_gauge_vec", []string{"pool"}).SetWithLabel(9, map[string]string{"pool": "p1"})
	HistogramMeter("test_histogram", BucketDuration10s).Observe(12)

	// repeated lookups return the registered meter instead of panicking
	CounterMeter("test_counter").Add(1)

	handler := HTTPHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "lsd_test_counter 4"))
	assert.True(t, strings.Contains(string(body), "lsd_test_gauge 7"))
}
