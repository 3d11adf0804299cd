// Package web provides the embedded web UI for the dollop script service.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/dollop/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"duration":   duration,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
			"countLines": countLines,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Parse templates fresh each time for the page-specific template
	// This avoids the Go template issue where define blocks conflict across pages
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/scripts", h.scriptList)
	app.Get("/ui/scripts/:id", h.scriptDetail)
	app.Get("/ui/runs", h.runList)
	app.Get("/ui/runs/:name", h.runDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Scripts        []*store.Script
	RecentRuns     []*store.Run
	ActiveCount    int
	SucceededCount int
	FailedCount    int
	CancelledCount int
}

type scriptListContent struct {
	Scripts []*scriptView
}

type scriptView struct {
	*store.Script
	RunCount    int
	ActiveCount int
}

type scriptDetailContent struct {
	Script *store.Script
	Runs   []*store.Run
}

type runListContent struct {
	Runs []*store.Run
}

type runDetailContent struct {
	Run *store.Run
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	scripts := h.store.ListScripts()

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].UpdateTime.After(scripts[j].UpdateTime)
	})

	runs := h.store.ListAllRuns()

	var active, succeeded, failed, cancelled int
	for _, r := range runs {
		switch r.State {
		case store.RunActive:
			active++
		case store.RunSucceeded:
			succeeded++
		case store.RunFailed:
			failed++
		case store.RunCancelled:
			cancelled++
		}
	}

	recent := runs
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Scripts:        scripts,
		RecentRuns:     recent,
		ActiveCount:    active,
		SucceededCount: succeeded,
		FailedCount:    failed,
		CancelledCount: cancelled,
	})
}

func (h *Handler) scriptList(c *fiber.Ctx) error {
	scripts := h.store.ListScripts()

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].UpdateTime.After(scripts[j].UpdateTime)
	})

	var views []*scriptView
	for _, sc := range scripts {
		runs := h.store.ListRuns(sc.ID)
		activeCount := 0
		for _, r := range runs {
			if r.State == store.RunActive {
				activeCount++
			}
		}
		views = append(views, &scriptView{
			Script:      sc,
			RunCount:    len(runs),
			ActiveCount: activeCount,
		})
	}

	return h.render(c, "script_list.html", "scripts", scriptListContent{
		Scripts: views,
	})
}

func (h *Handler) scriptDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	sc, err := h.store.GetScript(id)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Script '%s' not found", id),
		})
	}

	return h.render(c, "script_detail.html", "scripts", scriptDetailContent{
		Script: sc,
		Runs:   h.store.ListRuns(id),
	})
}

func (h *Handler) runList(c *fiber.Ctx) error {
	return h.render(c, "run_list.html", "runs", runListContent{
		Runs: h.store.ListAllRuns(),
	})
}

func (h *Handler) runDetail(c *fiber.Ctx) error {
	name := c.Params("name")

	run, err := h.store.GetRun(name)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Run '%s' not found", name),
		})
	}

	return h.render(c, "run_detail.html", "runs", runDetailContent{
		Run: run,
	})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04:05")
}

func duration(start, end time.Time) string {
	if end.IsZero() {
		d := time.Since(start)
		return fmt.Sprintf("%s (running)", formatDuration(d))
	}
	return formatDuration(end.Sub(start))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}

func stateClass(state store.RunState) string {
	switch state {
	case store.RunActive:
		return "state-active"
	case store.RunSucceeded:
		return "state-succeeded"
	case store.RunFailed:
		return "state-failed"
	case store.RunCancelled:
		return "state-cancelled"
	default:
		return ""
	}
}

func stateIcon(state store.RunState) template.HTML {
	switch state {
	case store.RunActive:
		return "&#9654;"
	case store.RunSucceeded:
		return "&#10003;"
	case store.RunFailed:
		return "&#10007;"
	case store.RunCancelled:
		return "&#9632;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
