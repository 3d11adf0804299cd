package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// defaultRunTimeout bounds how long tests wait for a run to finish.
const defaultRunTimeout = 30 * time.Second

// testServer holds the base URL of a running dollop server for tests.
var testServer string

func init() {
	testServer = os.Getenv("DOLLOP_URL")
	if testServer == "" {
		testServer = "http://localhost:8787"
	}
	// Ensure the URL has a scheme.
	if !strings.HasPrefix(testServer, "http://") && !strings.HasPrefix(testServer, "https://") {
		testServer = "http://" + testServer
	}
}

// apiURL builds a full URL for the given API path.
func apiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/v1/" + path
}

// uniqueID generates a unique script ID for test isolation.
func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// createScript registers a script via the scripts API and returns its ID.
func createScript(t *testing.T, scriptID, source string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]interface{}{
		"id":     scriptID,
		"source": source,
	})
	resp, err := http.Post(apiURL("scripts"), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("createScript HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("createScript failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return scriptID
}

// startRun kicks off a run of the script and returns the run name.
func startRun(t *testing.T, scriptID string) string {
	t.Helper()

	resp, err := http.Post(apiURL("scripts/"+scriptID+"/runs"), "application/json", nil)
	if err != nil {
		t.Fatalf("startRun HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("startRun failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var run map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("startRun decode error: %v", err)
	}

	name, _ := run["name"].(string)
	if name == "" {
		t.Fatalf("startRun: no run name in response: %v", run)
	}
	return name
}

// runResult is the terminal record of a script run.
type runResult struct {
	Name   string
	State  string // SUCCEEDED, FAILED, CANCELLED
	Result string
	Output string
	Error  string
	Steps  float64
	Raw    map[string]interface{}
}

// waitForRun polls the run until it leaves ACTIVE.
func waitForRun(t *testing.T, scriptID, runName string, timeout time.Duration) runResult {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("run %s did not complete within %s", runName, timeout)
		}

		resp, err := http.Get(apiURL("scripts/" + scriptID + "/runs/" + runName))
		if err != nil {
			t.Fatalf("waitForRun HTTP error: %v", err)
		}

		var run map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			resp.Body.Close()
			t.Fatalf("waitForRun decode error: %v", err)
		}
		resp.Body.Close()

		state, _ := run["state"].(string)
		if state != "" && state != "ACTIVE" {
			rr := runResult{Name: runName, State: state, Raw: run}
			rr.Result, _ = run["result"].(string)
			rr.Output, _ = run["output"].(string)
			rr.Error, _ = run["error"].(string)
			rr.Steps, _ = run["steps"].(float64)
			return rr
		}

		time.Sleep(50 * time.Millisecond)
	}
}

// runScript starts a run and waits for its terminal state.
func runScript(t *testing.T, scriptID string) runResult {
	t.Helper()
	name := startRun(t, scriptID)
	return waitForRun(t, scriptID, name, defaultRunTimeout)
}

// deployAndRun is a convenience that creates a script from inline source,
// runs it, and returns the result.
func deployAndRun(t *testing.T, prefix, source string) runResult {
	t.Helper()
	id := createScript(t, uniqueID(prefix), source)
	return runScript(t, id)
}

// assertSucceeded checks that the run succeeded.
func assertSucceeded(t *testing.T, rr runResult) {
	t.Helper()
	if rr.State != "SUCCEEDED" {
		t.Fatalf("expected SUCCEEDED but got %s; error: %q; raw: %v", rr.State, rr.Error, rr.Raw)
	}
}

// assertFailed checks that the run failed.
func assertFailed(t *testing.T, rr runResult) {
	t.Helper()
	if rr.State != "FAILED" {
		t.Fatalf("expected FAILED but got %s; result: %q; raw: %v", rr.State, rr.Result, rr.Raw)
	}
}

// assertResultEquals checks that the run succeeded with the given result.
func assertResultEquals(t *testing.T, rr runResult, expected string) {
	t.Helper()
	assertSucceeded(t, rr)
	if rr.Result != expected {
		t.Errorf("result mismatch:\n  expected: %q\n  actual:   %q", expected, rr.Result)
	}
}

// assertErrorContains checks that the run failed and the error message
// contains the substring.
func assertErrorContains(t *testing.T, rr runResult, substr string) {
	t.Helper()
	assertFailed(t, rr)
	if !strings.Contains(strings.ToLower(rr.Error), strings.ToLower(substr)) {
		t.Errorf("run error %q does not contain %q", rr.Error, substr)
	}
}

// evalOutcome is the decoded response of POST /v1/eval, success or error.
type evalOutcome struct {
	Status  int
	Result  string
	Output  string
	Steps   float64
	ErrMsg  string
	ErrCode string // INVALID_ARGUMENT etc.
}

// evalSource posts source to the one-shot eval endpoint.
func evalSource(t *testing.T, source string) evalOutcome {
	t.Helper()

	body, _ := json.Marshal(map[string]interface{}{"source": source})
	resp, err := http.Post(apiURL("eval"), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("eval HTTP error: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("eval decode error: %v", err)
	}

	out := evalOutcome{Status: resp.StatusCode}
	if errMap, ok := payload["error"].(map[string]interface{}); ok {
		out.ErrMsg, _ = errMap["message"].(string)
		out.ErrCode, _ = errMap["status"].(string)
		return out
	}
	out.Result, _ = payload["result"].(string)
	out.Output, _ = payload["output"].(string)
	out.Steps, _ = payload["steps"].(float64)
	return out
}

// assertEvalResult evaluates source and checks the result value.
func assertEvalResult(t *testing.T, source, expected string) {
	t.Helper()
	out := evalSource(t, source)
	if out.Status != http.StatusOK {
		t.Fatalf("eval of %q failed with status %d: %s", source, out.Status, out.ErrMsg)
	}
	if out.Result != expected {
		t.Errorf("eval of %q: expected result %q, got %q", source, expected, out.Result)
	}
}

// assertEvalError evaluates source and checks that it is rejected with a
// message containing the substring.
func assertEvalError(t *testing.T, source, substr string) {
	t.Helper()
	out := evalSource(t, source)
	if out.Status == http.StatusOK {
		t.Fatalf("eval of %q: expected error containing %q, got result %q", source, substr, out.Result)
	}
	if !strings.Contains(strings.ToLower(out.ErrMsg), strings.ToLower(substr)) {
		t.Errorf("eval of %q: error %q does not contain %q", source, out.ErrMsg, substr)
	}
}

// deleteScript removes a script by ID (cleanup).
func deleteScript(t *testing.T, scriptID string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodDelete, apiURL("scripts/"+scriptID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Logf("deleteScript warning: %v", err)
		return
	}
	resp.Body.Close()
}
