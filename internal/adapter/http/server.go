package http

import (
	"net/http"

	"github.com/calibancode/gifforge/internal/adapter/http/middleware"
	"github.com/calibancode/gifforge/internal/deps"
	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/service"
)

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
}

func NewServer(convSvc ConversionService, eventBus *service.EventBus, defaults domain.ConversionParameters, uploadDir string, maxSizeMB int, requirements []deps.Requirement) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		handlers:   NewHandlers(convSvc, defaults, uploadDir, maxSizeMB, requirements),
		sseHandler: NewSSEHandler(eventBus, convSvc),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/jobs", s.handlers.CreateJob())
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handlers.JobStatus())
	s.mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handlers.CancelJob())
	s.mux.HandleFunc("GET /api/jobs/{id}/download", s.handlers.Download())

	s.mux.HandleFunc("GET /api/events/{id}", s.sseHandler.Events())

	s.mux.HandleFunc("GET /api/history", s.handlers.History())
	s.mux.HandleFunc("GET /api/deps", s.handlers.Deps())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.SecurityHeaders(s.mux).ServeHTTP(w, r)
}
