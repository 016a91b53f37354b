package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSchedulerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry, Config{ServiceName: "membership", Environment: "test"})

	m.IncJobRun("subscriptions_expire")
	m.IncJobRun("subscriptions_expire")
	m.ObserveJobDuration("subscriptions_expire", 250*time.Millisecond)
	m.AddBatchProcessed("subscriptions_expire", "subscriptions", 3)
	m.IncBatchError("subscriptions_renew", "subscriptions")
	m.IncJobError("subscriptions_renew", gorm.ErrDuplicatedKey)
	m.IncEmailSent("expiry-warning")
	m.IncEmailError("expiry-warning")

	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("subscriptions_expire")); got != 2 {
		t.Fatalf("expected 2 job runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.batchProcessed.WithLabelValues("subscriptions_expire", "subscriptions")); got != 3 {
		t.Fatalf("expected 3 processed, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("subscriptions_renew", SchedulerJobReasonUniqueViolation)); got != 1 {
		t.Fatalf("expected 1 unique violation, got %v", got)
	}
	if got := testutil.ToFloat64(m.emailsSent.WithLabelValues("expiry-warning")); got != 1 {
		t.Fatalf("expected 1 email sent, got %v", got)
	}
}

func TestIsSchedulerErrorRetryable(t *testing.T) {
	if !IsSchedulerErrorRetryable(context.DeadlineExceeded) {
		t.Fatal("deadline should be retryable")
	}
	if IsSchedulerErrorRetryable(errors.New("boom")) {
		t.Fatal("unknown errors should not be retryable")
	}
}
