package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"statplane/pkg/api"
)

func TestWatchEvents_StopsOnCompleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/job-1/events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"progress\",\"job_id\":\"job-1\",\"fraction\":0.5,\"message\":\"halfway\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"completed\",\"job_id\":\"job-1\",\"status\":\"succeeded\"}\n\n")
		// Events after the terminal one must not be delivered to the callback.
		fmt.Fprint(w, "data: {\"type\":\"log\",\"job_id\":\"job-1\",\"message\":\"late\"}\n\n")
	}))
	defer server.Close()

	client := NewStatClient(server.URL)

	var events []api.JobEvent
	err := client.WatchEvents("job-1", func(event api.JobEvent) bool {
		events = append(events, event)
		return event.Type != "completed"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "progress" || events[0].Fraction != 0.5 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != "completed" || events[1].Status != "succeeded" {
		t.Errorf("unexpected terminal event: %+v", events[1])
	}
}

func TestWatchEvents_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"job not found","code":"UNKNOWN_JOB"}`))
	}))
	defer server.Close()

	client := NewStatClient(server.URL)

	err := client.WatchEvents("missing", func(api.JobEvent) bool { return true })
	if err == nil {
		t.Fatal("expected error for missing job")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.StatusCode)
	}
}
