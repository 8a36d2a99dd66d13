package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/patrol/internal/config"
	"github.com/me/patrol/internal/events"
	"github.com/me/patrol/internal/scheduler"
	"github.com/me/patrol/internal/store"
)

// Server is the Patrol REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	scheduler *scheduler.Scheduler
	bus       *events.Bus
}

// New creates a new Server with all routes registered.
// sched may be nil if no scheduling is desired (e.g. in tests).
func New(cfg config.ServerConfig, st store.Store, sched *scheduler.Scheduler, bus *events.Bus, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		scheduler: sched,
		bus:       bus,
	}
	s.routes()
	return s
}

// StartScheduler begins the evaluation loop in a background goroutine.
func (s *Server) StartScheduler(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	go func() {
		if err := s.scheduler.Start(ctx); err != nil && err != context.Canceled {
			s.logger.Error("scheduler stopped", "error", err)
		}
	}()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Health
		r.Get("/health", s.handleHealth)

		// Assignments (scheduling rules)
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", s.handleListAssignments)
			r.Post("/", s.handleCreateAssignment)
			r.Post("/re-quest", s.handleReQuest)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAssignment)
				r.Put("/", s.handleUpdateAssignment)
				r.Delete("/", s.handleDeleteAssignment)
				r.Post("/start", s.handleStartAssignment)
			})
		})

		// Assignment groups
		r.Route("/assignment-groups", func(r chi.Router) {
			r.Get("/", s.handleListAssignmentGroups)
			r.Post("/", s.handleCreateAssignmentGroup)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetAssignmentGroup)
				r.Delete("/", s.handleDeleteAssignmentGroup)
				r.Post("/start", s.handleStartAssignmentGroup)
			})
		})

		// Devices
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)
			r.Get("/{uuid}", s.handleGetDevice)
		})

		// Device groups
		r.Route("/device-groups", func(r chi.Router) {
			r.Get("/", s.handleListDeviceGroups)
			r.Post("/", s.handleCreateDeviceGroup)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetDeviceGroup)
				r.Delete("/", s.handleDeleteDeviceGroup)
			})
		})

		// Instances
		r.Route("/instances", func(r chi.Router) {
			r.Get("/", s.handleListInstances)
			r.Post("/", s.handleCreateInstance)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetInstance)
				r.Delete("/", s.handleDeleteInstance)
				r.Post("/complete", s.handleInstanceComplete)
			})
		})

		// Geofences
		r.Route("/geofences", func(r chi.Router) {
			r.Get("/", s.handleListGeofences)
			r.Post("/", s.handleCreateGeofence)
			r.Delete("/{name}", s.handleDeleteGeofence)
		})

		// SSE endpoint for real-time scheduler events
		r.Get("/sse/events", s.handleSSEEvents)
	})
}
