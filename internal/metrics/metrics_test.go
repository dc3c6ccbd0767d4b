package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserve_CountsByResult(t *testing.T) {
	okBefore := testutil.ToFloat64(EnrichmentCalls.WithLabelValues("test_op", ResultOK))
	badBefore := testutil.ToFloat64(EnrichmentCalls.WithLabelValues("test_op", ResultDegraded))

	Observe("test_op", time.Now(), nil)
	Observe("test_op", time.Now(), errors.New("boom"))
	Observe("test_op", time.Now(), errors.New("boom"))

	require.Equal(t, okBefore+1, testutil.ToFloat64(EnrichmentCalls.WithLabelValues("test_op", ResultOK)))
	require.Equal(t, badBefore+2, testutil.ToFloat64(EnrichmentCalls.WithLabelValues("test_op", ResultDegraded)))
}
