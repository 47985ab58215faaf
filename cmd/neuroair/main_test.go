package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("NEUROAIR_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config failure", err)
	}
}

// TestRun_MissingSecret verifies auth cannot be enabled without a secret.
func TestRun_MissingSecret(t *testing.T) {
	t.Setenv("NEUROAIR_CONFIG", writeTestConfig(t, `
device:
  driver: log
security:
  auth_enabled: true
`))
	t.Setenv("NEUROAIR_JWT_SECRET", "")

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail without a JWT secret")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("NEUROAIR_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("NEUROAIR_CONFIG", "/custom/path/config.yaml")
	if got := getConfigPath(); got != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}

// TestRun_LogDriverStartupAndShutdown runs the full stack without a
// broker and checks the API answers until the context ends.
func TestRun_LogDriverStartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "neuroair.db")
	t.Setenv("NEUROAIR_CONFIG", writeTestConfig(t, `
device:
  id: neuroair-test
  driver: log
database:
  path: "`+dbPath+`"
  history_retention: 720h
api:
  host: "127.0.0.1"
  port: 18931
security:
  auth_enabled: false
logging:
  level: error
  format: text
`))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	var resp *http.Response
	var err error
	for range 50 {
		resp, err = http.Get("http://127.0.0.1:18931/api/v1/health")
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("API never became reachable: %v (run: %v)", err, <-done)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	body := strings.NewReader(`{"text":"включи ароматизатор","emotion":"neutral","confidence":0.9}`)
	resp, err = http.Post("http://127.0.0.1:18931/api/v1/dispatch", "application/json", body)
	if err != nil {
		t.Fatalf("dispatch request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("dispatch status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}
