// Package web serves the dashboard page.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dtorcivia/flowdash/internal/status"
	"github.com/dtorcivia/flowdash/internal/util"
	"github.com/dtorcivia/flowdash/internal/webhook"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultMaxAge is how old the snapshot may get before a page render refreshes it.
const DefaultMaxAge = 30 * time.Second

// Operations reports per-operation webhook configuration.
type Operations interface {
	Configured(op webhook.Operation) bool
	WorkflowURL(op webhook.Operation) string
}

// Snapshots provides spreadsheet-derived data.
type Snapshots interface {
	Configured() bool
	Snapshot() status.Snapshot
	Refresh(ctx context.Context) status.Snapshot
}

// Handler provides web UI handlers.
type Handler struct {
	templates  *template.Template
	operations Operations
	snapshots  Snapshots
	maxAge     time.Duration
	now        func() time.Time
}

// NewHandler creates a new web handler.
func NewHandler(operations Operations, snapshots Snapshots) (*Handler, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		templates:  tmpl,
		operations: operations,
		snapshots:  snapshots,
		maxAge:     DefaultMaxAge,
		now:        time.Now,
	}, nil
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return humanize.Time(t)
		},
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"label": func(s string) string {
			return strings.ReplaceAll(s, "_", " ")
		},
	}

	tmpl, err := template.New("root").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// RegisterRoutes registers web UI routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Dashboard)
}

// OperationView is one trigger button on the dashboard.
type OperationView struct {
	Name        string
	Method      string
	Configured  bool
	WorkflowURL string
	NeedsInput  bool
}

// BucketView is one status tally on the dashboard.
type BucketView struct {
	Name  string
	Count int
}

// Dashboard renders the main page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r.Context())

	ops := make([]OperationView, 0, len(webhook.Operations()))
	for _, op := range webhook.Operations() {
		ops = append(ops, OperationView{
			Name:        string(op),
			Method:      op.Method(),
			Configured:  h.operations.Configured(op),
			WorkflowURL: h.operations.WorkflowURL(op),
			NeedsInput:  op.RequiresPayload(),
		})
	}

	buckets := make([]BucketView, 0, len(status.Buckets))
	for _, b := range status.Buckets {
		buckets = append(buckets, BucketView{Name: b, Count: snap.Counts[b]})
	}

	h.render(w, "dashboard.html", map[string]any{
		"Title":            "Dashboard",
		"Operations":       ops,
		"Categories":       snap.Categories,
		"Buckets":          buckets,
		"RefreshedAt":      snap.RefreshedAt(),
		"SheetsConfigured": h.snapshots.Configured(),
	})
}

// snapshot returns the cached snapshot, refreshing it first when either half is stale.
func (h *Handler) snapshot(ctx context.Context) status.Snapshot {
	snap := h.snapshots.Snapshot()
	if !h.snapshots.Configured() {
		return snap
	}
	if snap.Stale(h.now(), h.maxAge) {
		return h.snapshots.Refresh(ctx)
	}
	return snap
}

func (h *Handler) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		util.Error("Template error", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
