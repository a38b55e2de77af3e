package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"orcamentos/internal/core"
	"orcamentos/internal/log"
	"orcamentos/internal/middleware/security"
	"orcamentos/internal/middleware/trace"
	"orcamentos/internal/services"
	appweb "orcamentos/web"
)

// ReadyFunc reports whether the storage behind the service answers.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.QuoteService
	ready     ReadyFunc
	logger    *log.Logger
	tracer    *trace.Middleware
	started   time.Time

	shutdownOnce sync.Once
}

// templateFuncs are available to every page and partial.
var templateFuncs = template.FuncMap{
	"brl":   core.FormatBRL,
	"plain": core.FormatPlainBR,
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.QuoteService, ready ReadyFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		svc:     svc,
		ready:   ready,
		logger:  logger,
		tracer:  trace.NewMiddleware(logger, security.ClientIP),
		started: time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err, log.FieldComponent, log.ComponentTemplate)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /general", s.handleUpdateGeneral)
	mux.HandleFunc("GET /ui/notice", s.handleNotice)

	mux.HandleFunc("GET /ui/catalog", s.handleCatalogPanel)
	mux.HandleFunc("POST /catalog", s.handleCatalogAdd)
	mux.HandleFunc("POST /catalog/select", s.handleCatalogSelect)
	mux.HandleFunc("POST /catalog/import", s.handleCatalogImport)
	mux.HandleFunc("POST /catalog/attach-defaults", s.handleCatalogAttach)
	mux.HandleFunc("POST /catalog/restore", s.handleCatalogRestore)
	mux.HandleFunc("GET /catalog/template.csv", s.handleTemplateCSV)
	mux.HandleFunc("GET /catalog/template.txt", s.handleTemplateText)
	mux.HandleFunc("GET /catalog/export.csv", s.handleCatalogExport)
	mux.HandleFunc("POST /catalog/{id}", s.handleCatalogEdit)
	mux.HandleFunc("POST /catalog/{id}/delete", s.handleCatalogDelete)
	mux.HandleFunc("POST /catalog/{id}/cancel-delete", s.handleCatalogCancelDelete)

	mux.HandleFunc("GET /ui/budget", s.handleBudgetPanel)
	mux.HandleFunc("POST /budget", s.handleBudgetAdd)
	mux.HandleFunc("POST /budget/clear", s.handleBudgetClear)
	mux.HandleFunc("GET /budget/export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /budget/export.pdf", s.handleExportPDF)
	mux.HandleFunc("POST /budget/{id}", s.handleBudgetUpdate)
	mux.HandleFunc("POST /budget/{id}/remove", s.handleBudgetRemove)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// render executes the named template into a buffer so a failure never
// leaves a half-written page behind.
func (s *Server) render(r *http.Request, name string, data any) ([]byte, bool) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path, log.FieldOperation, log.OpRender)
		return nil, false
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name, log.FieldOperation, log.OpRender)
		return nil, false
	}
	return buf.Bytes(), true
}

// respond renders name with data into b and writes it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	body, ok := s.render(r, name, data)
	if !ok {
		InternalServerError("Erro ao montar a página").Write(w)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").Body(body).Write(w)
}
