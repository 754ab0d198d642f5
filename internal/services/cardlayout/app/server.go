// Package app composes the card layout service: JSON API, public pages,
// overlay change feed and the gRPC health endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	platformgrpc "github.com/louisbranch/tablecards/internal/platform/grpc"
	"github.com/louisbranch/tablecards/internal/platform/i18n/catalog"
	"github.com/louisbranch/tablecards/internal/platform/timeouts"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/api/httpapi"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/feed"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/search"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage/postgres"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/storage/sqlite"
	"github.com/louisbranch/tablecards/internal/services/cardlayout/web"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config defines startup inputs for the card layout service.
type Config struct {
	HTTPAddr string
	// GRPCAddr serves grpc.health.v1. Empty disables it.
	GRPCAddr       string
	DBDriver       string
	DBPath         string
	PostgresDSN    string
	RedisURL       string
	AllowedOrigins []string
}

// HandlerDeps are the collaborators of the root HTTP handler.
type HandlerDeps struct {
	Store          storage.Store
	Bus            feed.Bus
	Hub            *feed.Hub
	Search         *search.Index
	Messages       *catalog.Bundle
	AllowedOrigins []string
}

// NewHandler composes the API under /api, the overlay websocket under
// /ws/overlay/{slug} and the HTML pages under /.
func NewHandler(deps HandlerDeps) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Hub == nil {
		return nil, errors.New("feed hub is required")
	}
	api, err := httpapi.NewHandler(httpapi.Deps{
		Store:    deps.Store,
		Feed:     deps.Bus,
		Search:   deps.Search,
		Messages: deps.Messages,
	})
	if err != nil {
		return nil, fmt.Errorf("compose api handler: %w", err)
	}
	pages, err := web.NewHandler(deps.Store, deps.Search, deps.Messages)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpapi.RequestLogger(log.Default()))
	r.Use(chimiddleware.Recoverer)
	r.Use(httpapi.Trace)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/ws/overlay/{slug}", func(w http.ResponseWriter, r *http.Request) {
		deps.Hub.ServeOverlay(w, r, chi.URLParam(r, "slug"))
	})
	r.Mount("/api", api.Routes())
	r.Mount("/", pages.Routes())
	return r, nil
}

// Server hosts the card layout service and its lifecycle.
type Server struct {
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	health       *platformgrpc.HealthServer

	store storage.Store
	bus   feed.Bus
	hub   *feed.Hub
	index *search.Index

	closeOnce sync.Once
}

// NewServer opens storage and the change feed, binds the listeners and
// composes the handler. Resources opened before a failure are released.
func NewServer(ctx context.Context, cfg Config) (_ *Server, err error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}

	s := &Server{hub: feed.NewHub(cfg.AllowedOrigins)}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.store, err = openStore(ctx, cfg); err != nil {
		return nil, err
	}
	if s.bus, err = openBus(ctx, cfg.RedisURL); err != nil {
		return nil, err
	}
	if s.index, err = search.New(); err != nil {
		return nil, err
	}

	handler, err := NewHandler(HandlerDeps{
		Store:          s.store,
		Bus:            s.bus,
		Hub:            s.hub,
		Search:         s.index,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return nil, err
	}

	if s.httpListener, err = net.Listen("tcp", httpAddr); err != nil {
		return nil, fmt.Errorf("listen on http addr %s: %w", httpAddr, err)
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	if grpcAddr := strings.TrimSpace(cfg.GRPCAddr); grpcAddr != "" {
		if s.grpcListener, err = net.Listen("tcp", grpcAddr); err != nil {
			return nil, fmt.Errorf("listen on grpc addr %s: %w", grpcAddr, err)
		}
		s.health = platformgrpc.NewHealthServer()
	}
	return s, nil
}

func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver)); driver {
	case "", DriverSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = filepath.Join("data", "cardlayout.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func openBus(ctx context.Context, redisURL string) (feed.Bus, error) {
	if strings.TrimSpace(redisURL) == "" {
		return feed.NewMemoryBus(), nil
	}
	bus, err := feed.OpenRedis(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the health listener address, or "" when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// ListenAndServe serves until ctx ends or a component fails, then shuts
// every component down and releases the server resources.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("card layout server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	defer s.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 3)
	pending := 0

	pending++
	go func() {
		if err := s.hub.Run(runCtx, s.bus); err != nil {
			errs <- err
			return
		}
		errs <- nil
	}()

	if s.health != nil {
		pending++
		log.Printf("cardlayout health listening at %v", s.grpcListener.Addr())
		go func() {
			errs <- s.health.Serve(runCtx, s.grpcListener)
		}()
		s.health.SetServing(true)
	}

	pending++
	log.Printf("cardlayout HTTP listening at %v", s.httpListener.Addr())
	go func() {
		err := s.httpServer.Serve(s.httpListener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else if err != nil {
			err = fmt.Errorf("serve cardlayout http: %w", err)
		}
		errs <- err
	}()

	var firstErr error
	select {
	case <-ctx.Done():
	case firstErr = <-errs:
		pending--
		if firstErr == nil {
			log.Printf("cardlayout component stopped, shutting down")
		}
	}

	if s.health != nil {
		s.health.SetServing(false)
	}
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("shutdown cardlayout http server: %w", err)
	}
	shutdownCancel()

	for ; pending > 0; pending-- {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases listeners, the change feed, the search index and storage.
// It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		if s.httpListener != nil {
			_ = s.httpListener.Close()
		}
		if s.grpcListener != nil {
			_ = s.grpcListener.Close()
		}
		if s.bus != nil {
			if err := s.bus.Close(); err != nil {
				log.Printf("close feed bus: %v", err)
			}
		}
		if s.index != nil {
			if err := s.index.Close(); err != nil {
				log.Printf("close search index: %v", err)
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				log.Printf("close cardlayout store: %v", err)
			}
		}
	})
}
