package main

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"
)

const defaultEntryLimit = 100

const baseTemplate = `<!DOCTYPE html>
<html>
<head><title>cronqueue</title></head>
<body>
<nav><a href="/">Queues</a> | <a href="/metrics">Metrics</a></nav>
{{template "content" .}}
</body>
</html>`

const dashboardTemplate = `{{define "content"}}
<h1>Queues</h1>
<p>{{.Stats.TotalQueues}} queues, {{.Stats.TotalEntries}} entries, {{.Stats.LockedQueues}} locked</p>
<table>
<tr><th>Name</th><th>Size</th><th>Locked</th><th>Handler</th><th>Saved at</th></tr>
{{range .Queues}}<tr>
<td><a href="/queues/{{.Name}}">{{.Name}}</a></td><td>{{.Size}}</td><td>{{if .Locked}}yes{{else}}no{{end}}</td><td>{{.Handler}}</td><td>{{since .SavedAt}}</td>
</tr>{{end}}
</table>
{{end}}`

const queueTemplate = `{{define "content"}}
<h1>{{.Queue.Name}}</h1>
<dl>
<dt>Size</dt><dd>{{.Queue.Size}}</dd>
<dt>Locked</dt><dd>{{if .Queue.Locked}}yes ({{.Queue.LockTTL}} left){{else}}no{{end}}</dd>
<dt>Handler</dt><dd>{{.Queue.Handler}}</dd>
<dt>Fetcher</dt><dd>{{.Queue.Fetcher}}</dd>
<dt>Created</dt><dd>{{since .Queue.CreatedAt}}</dd>
<dt>Expires in</dt><dd>{{.Queue.ExpiresIn}}</dd>
</dl>
<table>
<tr><th>#</th><th>Payload</th></tr>
{{range .Entries}}<tr><td>{{.Position}}</td><td>{{if .Error}}<em>{{.Error}}</em>{{else}}<code>{{.Payload}}</code>{{end}}</td></tr>{{end}}
</table>
{{end}}`

// Handler handles HTTP requests for the UI.
type Handler struct {
	inspector *Inspector
	templates map[string]*template.Template
	registry  *prometheus.Registry
}

// NewHandler creates a new Handler.
func NewHandler(inspector *Inspector) (*Handler, error) {
	funcMap := template.FuncMap{
		"since": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return time.Since(t).Truncate(time.Second).String() + " ago"
		},
	}

	pages := map[string]string{"dashboard": dashboardTemplate, "queue": queueTemplate}
	templates := make(map[string]*template.Template)
	for name, page := range pages {
		tmpl, err := template.New("base").Funcs(funcMap).Parse(baseTemplate)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.Parse(page); err != nil {
			return nil, err
		}
		templates[name] = tmpl
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(newQueueCollector(inspector)); err != nil {
		return nil, err
	}

	return &Handler{
		inspector: inspector,
		templates: templates,
		registry:  reg,
	}, nil
}

// RegisterRoutes registers HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleDashboard)
	mux.HandleFunc("GET /queues/{name}", h.handleQueue)
	mux.HandleFunc("GET /api/stats", h.handleAPIStats)
	mux.HandleFunc("GET /api/queues", h.handleAPIQueues)
	mux.HandleFunc("GET /api/queues/{name}", h.handleAPIQueue)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inspector.GetDashboardStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	queues, err := h.inspector.GetQueues(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "dashboard", map[string]interface{}{
		"Stats":  stats,
		"Queues": queues,
	})
}

type queueView struct {
	Queue   QueueInfo   `json:"queue"`
	Entries []EntryInfo `json:"entries"`
}

func (h *Handler) queueView(w http.ResponseWriter, r *http.Request) (*queueView, bool) {
	limit := defaultEntryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return nil, false
		}
		limit = n
	}

	qname := r.PathValue("name")
	info, err := h.inspector.GetQueue(r.Context(), qname)
	if errors.Is(err, ErrQueueNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	entries, err := h.inspector.GetEntries(r.Context(), qname, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return &queueView{Queue: info, Entries: entries}, true
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.queueView(w, r); ok {
		h.render(w, "queue", v)
	}
}

func (h *Handler) handleAPIQueue(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.queueView(w, r); ok {
		writeJSON(w, v)
	}
}

func (h *Handler) handleAPIQueues(w http.ResponseWriter, r *http.Request) {
	queues, err := h.inspector.GetQueues(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, queues)
}

func (h *Handler) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inspector.GetDashboardStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl, ok := h.templates[name]
	if !ok {
		http.Error(w, "Template not found: "+name, http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
