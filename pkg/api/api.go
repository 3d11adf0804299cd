// Package api implements the REST API handlers for the dollop script
// service.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/dollop/pkg/lang"
	"github.com/lemonberrylabs/dollop/pkg/runtime"
	"github.com/lemonberrylabs/dollop/pkg/stdlib"
	"github.com/lemonberrylabs/dollop/pkg/store"
)

// MaxScriptSize is the maximum accepted script source size (1 MB).
const MaxScriptSize = 1 << 20

// Server is the dollop script service.
type Server struct {
	app      *fiber.App
	store    *store.Store
	maxSteps int

	mu      sync.Mutex
	engines map[string]*runtime.Engine // running engines by run name (for cancel)
}

// New creates a new API server. maxSteps is the per-run step budget; zero
// or below applies runtime.DefaultMaxSteps.
func New(s *store.Store, maxSteps int) *Server {
	srv := &Server{
		store:    s,
		maxSteps: maxSteps,
		engines:  make(map[string]*runtime.Engine),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Get("/healthz", srv.healthz)

	// Scripts API
	app.Post("/v1/scripts", srv.createScript)
	app.Get("/v1/scripts", srv.listScripts)
	app.Get("/v1/scripts/:id", srv.getScript)
	app.Patch("/v1/scripts/:id", srv.updateScript)
	app.Delete("/v1/scripts/:id", srv.deleteScript)

	// Runs API
	app.Post("/v1/scripts/:id/runs", srv.createRun)
	app.Get("/v1/scripts/:id/runs", srv.listRuns)
	app.Get("/v1/scripts/:id/runs/:run", srv.getRun)
	app.Post("/v1/scripts/:id/runs/:run/cancel", srv.cancelRun)
	app.Get("/v1/runs", srv.listAllRuns)

	// One-shot evaluation
	app.Post("/v1/eval", srv.eval)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// --- Script Handlers ---

var validScriptID = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

type scriptRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// validateSource lexes and parses source, rejecting oversized and empty
// scripts. The returned message is ready for an error envelope.
func validateSource(source string) (msg string, ok bool) {
	if len(source) > MaxScriptSize {
		return fmt.Sprintf("source exceeds maximum size of %d bytes", MaxScriptSize), false
	}
	stmts, err := lang.ParseSource(source)
	if err != nil {
		return fmt.Sprintf("invalid script source: %v", err), false
	}
	if len(stmts) == 0 {
		return "script contains no statements", false
	}
	return "", true
}

func (s *Server) createScript(c *fiber.Ctx) error {
	var req scriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": fmt.Sprintf("invalid request body: %v", err),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	if !validScriptID.MatchString(req.ID) || len(req.ID) > 128 {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": fmt.Sprintf("invalid script ID %q", req.ID),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	if req.Source == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": "source is required",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	if msg, ok := validateSource(req.Source); !ok {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": msg,
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	sc, err := s.store.CreateScript(req.ID, req.Source, req.Description)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return c.Status(409).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    409,
					"message": err.Error(),
					"status":  "ALREADY_EXISTS",
				},
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    500,
				"message": err.Error(),
				"status":  "INTERNAL",
			},
		})
	}

	return c.Status(200).JSON(scriptToJSON(sc))
}

func (s *Server) getScript(c *fiber.Ctx) error {
	sc, err := s.store.GetScript(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	return c.JSON(scriptToJSON(sc))
}

func (s *Server) listScripts(c *fiber.Ctx) error {
	scripts := s.store.ListScripts()

	items := make([]fiber.Map, len(scripts))
	for i, sc := range scripts {
		items[i] = scriptToJSON(sc)
	}

	return c.JSON(fiber.Map{
		"scripts": items,
	})
}

func (s *Server) updateScript(c *fiber.Ctx) error {
	var req scriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": fmt.Sprintf("invalid request body: %v", err),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	if req.Source != "" {
		if msg, ok := validateSource(req.Source); !ok {
			return c.Status(400).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    400,
					"message": msg,
					"status":  "INVALID_ARGUMENT",
				},
			})
		}
	}

	sc, err := s.store.UpdateScript(c.Params("id"), req.Source, req.Description)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	return c.JSON(scriptToJSON(sc))
}

func (s *Server) deleteScript(c *fiber.Ctx) error {
	if err := s.store.DeleteScript(c.Params("id")); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	return c.SendStatus(204)
}

// --- Run Handlers ---

func (s *Server) createRun(c *fiber.Ctx) error {
	sc, err := s.store.GetScript(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	run, err := s.store.CreateRun(sc.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    500,
				"message": err.Error(),
				"status":  "INTERNAL",
			},
		})
	}

	// Evaluate asynchronously; the run is polled via GET
	go s.runRun(run.Name, sc.Source)

	return c.Status(200).JSON(runToJSON(run))
}

func (s *Server) runRun(runName, source string) {
	var buf bytes.Buffer

	stmts, err := lang.ParseSource(source)
	if err != nil {
		_ = s.store.FailRun(runName, err, "", 0)
		return
	}

	engine := s.newEngine(&buf)

	s.mu.Lock()
	s.engines[runName] = engine
	s.mu.Unlock()

	result, err := engine.Run(context.Background(), stmts)

	s.mu.Lock()
	delete(s.engines, runName)
	s.mu.Unlock()

	if err != nil {
		_ = s.store.FailRun(runName, err, buf.String(), engine.StepCount())
	} else {
		_ = s.store.CompleteRun(runName, result.String(), buf.String(), engine.StepCount())
	}
}

// newEngine builds a fresh engine whose print writes to out.
func (s *Server) newEngine(out io.Writer) *runtime.Engine {
	env := runtime.NewEnvironment()
	reg := stdlib.NewRegistry()
	reg.RegisterPrint(out)
	reg.Seed(env)
	return runtime.NewEngine(env, s.maxSteps)
}

// scriptRun fetches a run and checks it belongs to the script in the path.
func (s *Server) scriptRun(c *fiber.Ctx) (*store.Run, error) {
	run, err := s.store.GetRun(c.Params("run"))
	if err != nil {
		return nil, err
	}
	if run.ScriptID != c.Params("id") {
		return nil, fmt.Errorf("run '%s' not found", c.Params("run"))
	}
	return run, nil
}

func (s *Server) getRun(c *fiber.Ctx) error {
	run, err := s.scriptRun(c)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	return c.JSON(runToJSON(run))
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	if _, err := s.store.GetScript(c.Params("id")); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	runs := s.store.ListRuns(c.Params("id"))

	items := make([]fiber.Map, len(runs))
	for i, run := range runs {
		items[i] = runToJSON(run)
	}

	return c.JSON(fiber.Map{
		"runs": items,
	})
}

func (s *Server) listAllRuns(c *fiber.Ctx) error {
	runs := s.store.ListAllRuns()

	items := make([]fiber.Map, len(runs))
	for i, run := range runs {
		items[i] = runToJSON(run)
	}

	return c.JSON(fiber.Map{
		"runs": items,
	})
}

func (s *Server) cancelRun(c *fiber.Ctx) error {
	run, err := s.scriptRun(c)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	// Mark cancelled first so the engine goroutine cannot race the state
	// to FAILED when it unwinds.
	if err := s.store.CancelRun(run.Name); err != nil {
		if strings.Contains(err.Error(), "not active") {
			return c.Status(409).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    409,
					"message": err.Error(),
					"status":  "FAILED_PRECONDITION",
				},
			})
		}
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": err.Error(),
				"status":  "NOT_FOUND",
			},
		})
	}

	s.mu.Lock()
	if engine, ok := s.engines[run.Name]; ok {
		engine.Cancel()
	}
	s.mu.Unlock()

	run, _ = s.store.GetRun(run.Name)
	return c.JSON(runToJSON(run))
}

// --- One-Shot Evaluation ---

type evalRequest struct {
	Source string `json:"source"`
}

func (s *Server) eval(c *fiber.Ctx) error {
	var req evalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": fmt.Sprintf("invalid request body: %v", err),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	if len(req.Source) > MaxScriptSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": fmt.Sprintf("source exceeds maximum size of %d bytes", MaxScriptSize),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	stmts, err := lang.ParseSource(req.Source)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": err.Error(),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}
	if len(stmts) == 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": "script contains no statements",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	var buf bytes.Buffer
	engine := s.newEngine(&buf)

	result, err := engine.Run(context.Background(), stmts)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": err.Error(),
				"status":  "INVALID_ARGUMENT",
			},
		})
	}

	return c.JSON(fiber.Map{
		"result": result.String(),
		"output": buf.String(),
		"steps":  engine.StepCount(),
	})
}

// --- Directory Loading ---

type scriptManifest struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Source      string `yaml:"source"`
}

// LoadDir seeds the store from a directory. *.yaml files are manifests
// carrying id, description and source; *.dlp files are bare sources whose
// ID comes from the file name. Bad files are logged and skipped.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading scripts directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" && ext != ".dlp" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}

		var id, description, source string
		if ext == ".dlp" {
			id = strings.ToLower(strings.TrimSuffix(name, ext))
			source = string(data)
		} else {
			var m scriptManifest
			if err := yaml.Unmarshal(data, &m); err != nil {
				log.Printf("Warning: could not parse manifest %q: %v", name, err)
				continue
			}
			id = m.ID
			if id == "" {
				id = strings.ToLower(strings.TrimSuffix(name, ext))
			}
			description = m.Description
			source = m.Source
		}

		if !validScriptID.MatchString(id) || len(id) > 128 {
			log.Printf("Warning: skipping file %q, invalid script ID %q", name, id)
			continue
		}

		if msg, ok := validateSource(source); !ok {
			log.Printf("Warning: skipping file %q: %s", name, msg)
			continue
		}

		if _, err := s.store.CreateScript(id, source, description); err != nil {
			log.Printf("Warning: could not load %q: %v", name, err)
			continue
		}

		loaded++
		log.Printf("Loaded script %q from %s", id, name)
	}

	log.Printf("Loaded %d script(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

func scriptToJSON(sc *store.Script) fiber.Map {
	return fiber.Map{
		"id":          sc.ID,
		"description": sc.Description,
		"source":      sc.Source,
		"revision":    sc.Revision,
		"createTime":  sc.CreateTime.Format(time.RFC3339),
		"updateTime":  sc.UpdateTime.Format(time.RFC3339),
	}
}

func runToJSON(run *store.Run) fiber.Map {
	result := fiber.Map{
		"name":           run.Name,
		"scriptId":       run.ScriptID,
		"scriptRevision": run.ScriptRevision,
		"state":          run.State,
		"steps":          run.Steps,
		"startTime":      run.StartTime.Format(time.RFC3339),
	}

	if run.Output != "" {
		result["output"] = run.Output
	}
	if run.Result != "" {
		result["result"] = run.Result
	}
	if run.Error != "" {
		result["error"] = run.Error
	}
	if !run.EndTime.IsZero() {
		result["endTime"] = run.EndTime.Format(time.RFC3339)
	}

	return result
}
