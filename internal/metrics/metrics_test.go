package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue sums every series of the named family in reg.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.VotesSubmitted.WithLabelValues("cat1", "static").Inc()
	m.VotesSubmitted.WithLabelValues("cat1", "static").Inc()
	m.VoteFailures.WithLabelValues("validation").Inc()

	if got := counterValue(t, reg, "slay_vote_votes_submitted_total"); got != 2 {
		t.Errorf("votes_submitted_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "slay_vote_vote_failures_total"); got != 1 {
		t.Errorf("vote_failures_total = %v, want 1", got)
	}

	// a second set on a fresh registry must not collide
	New(prometheus.NewRegistry())
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest(http.MethodGet, "/api/results", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "slay_vote_http_request_duration_seconds" {
			if n := len(mf.GetMetric()); n != 2 {
				t.Errorf("histogram series = %d, want 2", n)
			}
			return
		}
	}
	t.Fatal("request histogram not registered")
}

func TestObserveRequest_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}
