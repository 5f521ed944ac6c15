// Package httpapi exposes the catalog, membership and lending
// operations over HTTP for desk front ends.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"librarydesk/library"
)

var json = jsoniter.ConfigFastest

// Server is the librarydesk HTTP API server.
type Server struct {
	lib            *library.Library
	log            *slog.Logger
	metricsEnabled bool
}

// NewServer creates a new API server over an open library.
func NewServer(lib *library.Library, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{lib: lib, log: log}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/books", s.handleAddBook)
		r.Get("/books", s.handleListBooks)
		r.Post("/members", s.handleAddMember)
		r.Get("/members", s.handleListMembers)
		r.Post("/loans", s.handleIssue)
		r.Get("/loans", s.handleListTransactions)
		r.Post("/loans/{id}/return", s.handleReturn)
		r.Get("/reports/overdue", s.handleOverdueReport)
		r.Get("/reports/fines", s.handleFineSummary)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// requestID tags every request with a fresh UUID so log lines can be
// correlated with client reports.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// instrument records metrics and a structured log line per request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.log.Info("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration", elapsed,
			"request_id", ww.Header().Get("X-Request-ID"),
		)
	})
}

// ---------------------------------------------------------------------------
// Catalog handlers
// ---------------------------------------------------------------------------

type addBookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Quantity int    `json:"quantity"`
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.lib.Catalog.Add(req.Title, req.Author, req.Quantity)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"book_id": id})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.lib.Catalog.List()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if books == nil {
		books = []library.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// ---------------------------------------------------------------------------
// Membership handlers
// ---------------------------------------------------------------------------

type addMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.lib.Membership.Add(req.Name, req.Email, req.Phone)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"member_id": id})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.lib.Membership.List()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if members == nil {
		members = []library.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// ---------------------------------------------------------------------------
// Lending handlers
// ---------------------------------------------------------------------------

type issueRequest struct {
	MemberID int64 `json:"member_id"`
	BookID   int64 `json:"book_id"`
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, due, err := s.lib.Lending.Issue(req.MemberID, req.BookID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	LoansIssued.Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction_id": id,
		"due_date":       due.Format("2006-01-02"),
	})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	fine, days, err := s.lib.Lending.Return(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	LoansReturned.Inc()
	FinesAssessed.Add(float64(fine))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": id,
		"fine":           fine,
		"days_overdue":   days,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := s.lib.Lending.Transactions()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []library.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleOverdueReport(w http.ResponseWriter, r *http.Request) {
	entries, err := s.lib.Lending.OverdueReport()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []library.OverdueEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleFineSummary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.lib.Lending.FineSummary()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []library.FineEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrBookNotFound),
		errors.Is(err, library.ErrMemberNotFound),
		errors.Is(err, library.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrBookUnavailable),
		errors.Is(err, library.ErrDuplicateLoan),
		errors.Is(err, library.ErrAlreadyReturned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("store failure", "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
		},
	})
}
