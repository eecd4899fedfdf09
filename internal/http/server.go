// Package http serves the ledger web UI: server-rendered pages for browsing
// and editing transactions, a JSON chart endpoint and health probes.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	appweb "ledger/web"
)

// Ledger is the service surface the handlers depend on.
// *services.LedgerService implements it.
type Ledger interface {
	ListPage(ctx context.Context, f core.Filter) (services.ListPage, error)
	Dashboard(ctx context.Context) (core.Summary, core.Charts, error)
	Categories(ctx context.Context) ([]core.Category, error)
	AddCategory(ctx context.Context, name string) error
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Create(ctx context.Context, in core.TransactionInput) (int64, error)
	Update(ctx context.Context, id int64, in core.TransactionInput) error
	Delete(ctx context.Context, id int64) error
}

// Options configures NewServer. Ledger is required.
type Options struct {
	Ledger Ledger
	// Ready backs /readyz; nil means always ready.
	Ready  func(ctx context.Context) error
	Clock  core.Clock
	Logger *applog.Logger
}

type Server struct {
	http.Server
	ledger    Ledger
	ready     func(ctx context.Context) error
	clock     core.Clock
	logger    *applog.Logger
	templates map[string]*template.Template
}

// Page templates. Each is parsed together with layout.html into its own set
// so every page can define its own "title" and "content".
var pages = []string{"index", "dashboard", "add", "edit", "error"}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("ledger service is required")
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}

	templates, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		ledger:    opts.Ledger,
		ready:     opts.Ready,
		clock:     opts.Clock,
		logger:    opts.Logger.WithComponent(applog.ComponentHTTP),
		templates: templates,
	}

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /add", s.handleAddForm)
	mux.HandleFunc("POST /add", s.handleCreate)
	mux.HandleFunc("GET /edit/{id}", s.handleEditForm)
	mux.HandleFunc("POST /edit/{id}", s.handleUpdate)
	mux.HandleFunc("GET /delete/{id}", s.handleDelete)
	mux.HandleFunc("POST /delete/{id}", s.handleDelete)
	mux.HandleFunc("POST /add-category", s.handleAddCategory)
	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	ips := security.NewClientIPResolver()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(opts.Logger, ips.ClientIP)
	s.Handler = tracer.Middleware(headers.Middleware(mux))

	return s, nil
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout template: %w", err)
	}

	sets := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := set.ParseFS(fsys, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		sets[name] = set
	}
	return sets, nil
}

var templateFuncs = template.FuncMap{
	"formatAmount": formatAmount,
}

// formatAmount renders an amount with exactly two decimal places.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(core.AmountScale)
}
