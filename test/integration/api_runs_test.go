package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// TestAPIRuns_Lifecycle covers the create/poll cycle of a successful run.
func TestAPIRuns_Lifecycle(t *testing.T) {
	scriptID := createScript(t, uniqueID("run-lifecycle"), "(print \"running\")\n(+ 40 2)")

	rr := runScript(t, scriptID)
	assertResultEquals(t, rr, "42")

	if rr.Output != "running\n" {
		t.Errorf("expected output %q, got %q", "running\n", rr.Output)
	}
	if rr.Steps <= 0 {
		t.Errorf("expected positive step count, got %v", rr.Steps)
	}
	if rr.Raw["scriptId"] != scriptID {
		t.Errorf("expected scriptId %q, got %v", scriptID, rr.Raw["scriptId"])
	}
	if rr.Raw["scriptRevision"] != "000001" {
		t.Errorf("expected scriptRevision 000001, got %v", rr.Raw["scriptRevision"])
	}
	if _, ok := rr.Raw["endTime"].(string); !ok {
		t.Errorf("expected endTime on finished run, got %v", rr.Raw["endTime"])
	}
}

// TestAPIRuns_List verifies per-script run listing, newest first.
func TestAPIRuns_List(t *testing.T) {
	scriptID := createScript(t, uniqueID("run-list"), `(+ 1 2)`)

	first := startRun(t, scriptID)
	waitForRun(t, scriptID, first, defaultRunTimeout)
	second := startRun(t, scriptID)
	waitForRun(t, scriptID, second, defaultRunTimeout)

	resp, err := http.Get(apiURL("scripts/" + scriptID + "/runs"))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	runs, ok := result["runs"].([]interface{})
	if !ok {
		t.Fatalf("expected runs array in response, got: %v", result)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	newest, _ := runs[0].(map[string]interface{})
	if newest["name"] != second {
		t.Errorf("expected newest run %q first, got %v", second, newest["name"])
	}
}

// TestAPIRuns_AllRuns verifies the cross-script run listing.
func TestAPIRuns_AllRuns(t *testing.T) {
	scriptID := createScript(t, uniqueID("run-all"), `(+ 1 2)`)
	rr := runScript(t, scriptID)
	assertSucceeded(t, rr)

	resp, err := http.Get(apiURL("runs"))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	runs, _ := result["runs"].([]interface{})
	for _, r := range runs {
		if m, ok := r.(map[string]interface{}); ok && m["name"] == rr.Name {
			return
		}
	}
	t.Errorf("run %q not found in global run list", rr.Name)
}

// TestAPIRuns_Failed verifies that a runtime error lands the run in FAILED
// with the message preserved.
func TestAPIRuns_Failed(t *testing.T) {
	rr := deployAndRun(t, "run-failed", `(+ 1 "one")`)
	assertErrorContains(t, rr, "requires number arguments")

	if rr.Result != "" {
		t.Errorf("expected no result on failed run, got %q", rr.Result)
	}
	if _, ok := rr.Raw["endTime"].(string); !ok {
		t.Errorf("expected endTime on failed run, got %v", rr.Raw["endTime"])
	}
}

// TestAPIRuns_RunNotFound verifies 404 for a non-existent run.
func TestAPIRuns_RunNotFound(t *testing.T) {
	scriptID := createScript(t, uniqueID("run-missing"), `(+ 1 2)`)

	resp, err := http.Get(apiURL("scripts/" + scriptID + "/runs/run-999999999"))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// TestAPIRuns_WrongScript verifies that a run is only addressable under its
// own script.
func TestAPIRuns_WrongScript(t *testing.T) {
	scriptA := createScript(t, uniqueID("run-owner"), `(+ 1 2)`)
	scriptB := createScript(t, uniqueID("run-other"), `(+ 3 4)`)

	name := startRun(t, scriptA)
	waitForRun(t, scriptA, name, defaultRunTimeout)

	resp, err := http.Get(apiURL("scripts/" + scriptB + "/runs/" + name))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for run under wrong script, got %d", resp.StatusCode)
	}
}

// TestAPIRuns_ScriptNotFound verifies that starting a run of a missing
// script returns 404.
func TestAPIRuns_ScriptNotFound(t *testing.T) {
	resp, err := http.Post(apiURL("scripts/nonexistent-script-12345/runs"), "application/json", nil)
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// TestAPIRuns_CancelFinished verifies that cancelling a finished run is
// rejected with 409.
func TestAPIRuns_CancelFinished(t *testing.T) {
	scriptID := createScript(t, uniqueID("run-cancel-done"), `(+ 1 2)`)
	rr := runScript(t, scriptID)
	assertSucceeded(t, rr)

	resp, err := http.Post(apiURL("scripts/"+scriptID+"/runs/"+rr.Name+"/cancel"), "application/json", nil)
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		respBody, _ := io.ReadAll(resp.Body)
		t.Errorf("expected 409 cancelling a finished run, got %d: %s", resp.StatusCode, string(respBody))
	}
}

// TestAPIRuns_SurviveScriptDelete verifies that run records outlive their
// script.
func TestAPIRuns_SurviveScriptDelete(t *testing.T) {
	scriptID := createScript(t, uniqueID("run-survive"), `(+ 1 2)`)
	rr := runScript(t, scriptID)
	assertSucceeded(t, rr)

	deleteScript(t, scriptID)

	// The run itself stays retrievable by name.
	resp, err := http.Get(apiURL("scripts/" + scriptID + "/runs/" + rr.Name))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for run of deleted script, got %d", resp.StatusCode)
	}

	// The per-script listing is gone along with the script.
	listResp, err := http.Get(apiURL("scripts/" + scriptID + "/runs"))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	listResp.Body.Close()
	if listResp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 listing runs of deleted script, got %d", listResp.StatusCode)
	}
}
