package psapi_test

import (
	"context"
	"testing"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/ws/v1/metadata":                      "/ws/v1/metadata",
		"/ws/schema/table/students":            "/ws/schema/table/students",
		"/ws/schema/table/students/count":      "/ws/schema/table/students/count",
		"/ws/schema/table/students/metadata":   "/ws/schema/table/students/metadata",
		"/ws/schema/table/students/12345":      "/ws/schema/table/students/{pk}",
		"/ws/schema/query/com.example.q/count": "/ws/schema/query/com.example.q/count",
	}

	for path, want := range tests {
		assert.Equal(t, want, psapi.NormalizeEndpoint(path), path)
	}
}

func TestMetrics_Interceptors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := psapi.NewMetrics(reg)

	chain := psapi.NewInterceptorChain()
	metrics.Install(chain)

	ctx := context.Background()

	for range 3 {
		req := &psapi.Request{Method: "GET", Path: "/ws/schema/table/students/42"}
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &psapi.Response{StatusCode: 200}))
	}

	metrics.AddRecords("students", 250)

	count, err := testutil.GatherAndCount(reg, "powerschool_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "powerschool_api_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[family.GetName()] = c.GetValue()
			}
		}
	}

	assert.InDelta(t, 3, values["powerschool_api_requests_total"], 0)
	assert.InDelta(t, 250, values["powerschool_records_fetched_total"], 0)
}
