// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server wires the services behind the JSON API. Summaries are cached
// per user and month; every ledger mutation invalidates the user's
// cached months.
type Server struct {
	http.Server

	authSvc   *auth.Service
	incomes   *services.IncomeService
	expenses  *services.ExpenseService
	summaries *services.SummaryService
	generator *report.Generator
	repo      *storage.SQLiteRepository
	logger    *log.Logger

	summaryCache *cache.LRUCache[core.MonthSummary]
	cacheManager *cache.Manager
	rateLimiter  *rateLimiter

	shutdownOnce sync.Once
}

// Deps carries everything the server needs. The report generator may be
// nil when PDF downloads are disabled.
type Deps struct {
	Auth      *auth.Service
	Incomes   *services.IncomeService
	Expenses  *services.ExpenseService
	Summaries *services.SummaryService
	Generator *report.Generator
	Repo      *storage.SQLiteRepository
	Logger    *log.Logger
}

func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		authSvc:      deps.Auth,
		incomes:      deps.Incomes,
		expenses:     deps.Expenses,
		summaries:    deps.Summaries,
		generator:    deps.Generator,
		repo:         deps.Repo,
		logger:       deps.Logger,
		summaryCache: cache.NewLRUCache[core.MonthSummary](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/signup", s.withCommon(s.handleSignup))
	mux.HandleFunc("POST /api/login", s.withCommon(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withCommon(s.withAuth(s.handleLogout)))

	mux.HandleFunc("GET /api/categories", s.withCommon(s.withAuth(s.handleListCategories)))

	mux.HandleFunc("GET /api/incomes", s.withCommon(s.withAuth(s.handleListIncomes)))
	mux.HandleFunc("POST /api/incomes", s.withCommon(s.withAuth(s.handleCreateIncome)))
	mux.HandleFunc("PUT /api/incomes/{id}", s.withCommon(s.withAuth(s.handleUpdateIncome)))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.withCommon(s.withAuth(s.handleDeleteIncome)))

	mux.HandleFunc("GET /api/expenses", s.withCommon(s.withAuth(s.handleListExpenses)))
	mux.HandleFunc("POST /api/expenses", s.withCommon(s.withAuth(s.handleCreateExpense)))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withCommon(s.withAuth(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withCommon(s.withAuth(s.handleDeleteExpense)))

	mux.HandleFunc("GET /api/summary", s.withCommon(s.withAuth(s.handleSummary)))
	mux.HandleFunc("GET /api/summary/report", s.withCommon(s.withAuth(s.handleSummaryReport)))

	return s
}

// Shutdown stops the background cleanup goroutines and then drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateSummaries drops every cached month for the user.
func (s *Server) invalidateSummaries(userID int64) {
	s.summaryCache.DeletePrefix(summaryKeyPrefix(userID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListCategories(r.Context()); err != nil {
		http.Error(w, "storage not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
