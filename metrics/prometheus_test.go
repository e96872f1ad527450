package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ExportsSnapshot(t *testing.T) {
	c := NewCollector("receiver", "event_stream", "mldsa44", "fs")
	c.IncTransferStarted()
	c.IncTransferStarted()
	c.RecordOutcome(OutcomeSuccess)
	c.RecordOutcome(OutcomeIncompleteTransfer)
	c.AddBytes(4096)

	srv := httptest.NewServer(Handler(c))
	defer srv.Close()

	// Counters are read at scrape time.
	c.AddBytes(4096)

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	labels := `{protocol="event_stream",role="receiver",scheme="mldsa44",storage_backend="fs"}`
	for _, want := range []string{
		"sigbench_transfers_started_total" + labels + " 2",
		"sigbench_transfers_succeeded_total" + labels + " 1",
		"sigbench_incomplete_transfers_total" + labels + " 1",
		"sigbench_bytes_total" + labels + " 8192",
		"sigbench_publish_failure_total" + labels + " 0",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("scrape missing %q:\n%s", want, body)
		}
	}
}

func TestRegistry_NilCollector(t *testing.T) {
	families, err := Registry(nil).Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 11 {
		t.Errorf("families = %d, want 11", len(families))
	}
}
