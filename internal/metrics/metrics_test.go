package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignUp()
	c.RecordSignIn()
	c.RecordSignIn()
	c.RecordSessionCheck("authenticated")
	c.RecordWebhookEvent("user.created", "processed")
	c.StreamOpened()
	c.StreamOpened()
	c.StreamClosed()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"foyer_sign_ups_total 1",
		"foyer_sign_ins_total 2",
		`foyer_session_checks_total{state="authenticated"} 1`,
		`foyer_webhook_events_total{outcome="processed",type="user.created"} 1`,
		"foyer_live_event_streams 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}
