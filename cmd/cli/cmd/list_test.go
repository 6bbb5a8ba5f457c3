package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"statplane/pkg/api"

	"github.com/spf13/viper"
)

func TestListCommand_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("expected limit=20, got %s", got)
		}

		resp := api.ListJobsResponse{
			Jobs: []api.JobResponse{
				{ID: "job-2", Tool: "describe_data", Status: "running", Progress: 0.5, CreatedAt: time.Now()},
				{ID: "job-1", Tool: "calculate_mean", Status: "succeeded", Progress: 1, CreatedAt: time.Now().Add(-time.Minute)},
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"list"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "job-2") || !strings.Contains(output, "job-1") {
		t.Errorf("expected both job IDs in output, got: %s", output)
	}
	if !strings.Contains(output, "describe_data") {
		t.Errorf("expected tool name in output, got: %s", output)
	}
}

func TestListCommand_StatusFilter(t *testing.T) {
	resetViper()

	// Reset flags from previous tests
	defer listCmd.Flags().Set("status", "")

	var capturedStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedStatus = r.URL.Query().Get("status")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.ListJobsResponse{})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"list", "--status", "failed,cancelled"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedStatus != "failed,cancelled" {
		t.Errorf("expected status filter in query, got: %s", capturedStatus)
	}

	if !strings.Contains(stdout.String(), "No jobs found") {
		t.Errorf("expected empty message, got: %s", stdout.String())
	}
}
