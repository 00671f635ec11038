package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lirsacc/crible/internal/executor"
)

func TestObserveOperationCountsOutcome(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("query", "ok"))
	ObserveOperation("query", 0.01, nil)
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("query", "ok"))
	if after != before+1 {
		t.Fatalf("expected ok counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestObserveOperationCountsQueueRejection(t *testing.T) {
	before := testutil.ToFloat64(QueueRejectionsTotal)
	ObserveOperation("query", 0.01, executor.ErrTooManyRequests)
	after := testutil.ToFloat64(QueueRejectionsTotal)
	if after != before+1 {
		t.Fatalf("expected rejection counter to increment by 1, got %v -> %v", before, after)
	}
}
