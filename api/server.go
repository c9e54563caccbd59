package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"secretbox/logger"
	"secretbox/metrics"
	"secretbox/models"
	"secretbox/render"
	"secretbox/sanitize"
	"secretbox/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxBodyBytes      = 1 << 20
	deadLetterTimeout = 2 * time.Second
	readyTimeout      = 1 * time.Second

	// DefaultStoreTimeout bounds each datastore call made while serving a page.
	DefaultStoreTimeout = 5 * time.Second
	// WriteTimeout must exceed DefaultStoreTimeout plus deadLetterTimeout so the page
	// still reaches the client when the store hangs.
	WriteTimeout = 15 * time.Second
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")
)

// Repository abstracts message persistence & retrieval.
type Repository interface {
	Create(ctx context.Context, text, sender string) (models.Message, error)
	ListRecent(ctx context.Context, limit int) []models.Message
	Ping(ctx context.Context) error
}

// Namer hands out pseudonyms.
type Namer interface {
	Next() string
}

// DeadLetter receives records whose write failed. Optional.
type DeadLetter interface {
	Publish(ctx context.Context, msg models.Message, reason string) error
}

// Settings are the router's tunables, usually taken from config.Config.
type Settings struct {
	ArchivePath      string
	ArchiveLimit     int
	MessageMaxLength int
	StoreTimeout     time.Duration
}

type Server struct {
	router   chi.Router
	repo     Repository
	names    Namer
	dlq      DeadLetter
	settings Settings
}

func NewServer(repo Repository, names Namer, dlq DeadLetter, settings Settings) *Server {
	if settings.ArchivePath == "" {
		settings.ArchivePath = "/ghost123"
	}
	if settings.ArchiveLimit <= 0 {
		settings.ArchiveLimit = 200
	}
	if settings.MessageMaxLength <= 0 {
		settings.MessageMaxLength = 5000
	}
	if settings.StoreTimeout <= 0 {
		settings.StoreTimeout = DefaultStoreTimeout
	}
	s := &Server{router: chi.NewRouter(), repo: repo, names: names, dlq: dlq, settings: settings}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(accessLog)
	s.router.Use(recoverer)

	s.router.Get("/", s.handleForm)
	s.router.Post("/send", s.handleSend)
	s.router.Get(s.settings.ArchivePath, s.handleArchive)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	s.router.Get("/metrics", metrics.Handler)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writePage(w, http.StatusNotFound, render.NotFound())
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writePage(w, http.StatusMethodNotAllowed, render.NotFound())
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// NewHTTPServer wraps h with the listener timeouts the site runs under.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusOK, render.Form())
}

// handleSend always answers 200. Storage trouble is the operator's problem, not the sender's.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := readMessage(r)
	if err == nil {
		raw, err = validateSubmission(raw, s.settings.MessageMaxLength)
	}
	switch {
	case errors.Is(err, ErrMessageTooLong):
		metrics.IncSecretsRejected(metrics.RejectTooLong)
		logger.Info("secret rejected", logger.FieldKV("reason", "too_long"))
		writePage(w, http.StatusOK, render.TooLong(s.settings.MessageMaxLength))
		return
	case err != nil:
		metrics.IncSecretsRejected(metrics.RejectEmpty)
		logger.Info("secret rejected", logger.FieldKV("reason", "empty"))
		writePage(w, http.StatusOK, render.Empty())
		return
	}

	text := sanitize.Escape(raw)
	sender := s.names.Next()
	metrics.IncSecretsSubmitted()

	// The write outlives a client that hangs up mid-request, but not the store budget.
	ctx := context.WithoutCancel(r.Context())
	wctx, cancel := context.WithTimeout(ctx, s.settings.StoreTimeout)
	msg, err := s.repo.Create(wctx, text, sender)
	cancel()
	if err != nil {
		metrics.IncStoreWriteFailure()
		logger.Error("persist secret failed", err,
			logger.FieldKV("message_id", msg.MessageID),
			logger.FieldKV("text_len", len(text)))
		s.deadLetter(ctx, msg, err)
	} else {
		logger.Info("secret saved", logger.FieldKV("message_id", msg.MessageID))
	}

	writePage(w, http.StatusOK, render.Sent(sender))
}

func (s *Server) deadLetter(ctx context.Context, msg models.Message, cause error) {
	if s.dlq == nil || msg.MessageID == "" {
		return
	}
	reason := "store_create_failure"
	var serr *store.StorageError
	if errors.As(cause, &serr) && serr.Op == "validate" {
		reason = "invalid_record"
	}
	ctx, cancel := context.WithTimeout(ctx, deadLetterTimeout)
	defer cancel()
	if err := s.dlq.Publish(ctx, msg, reason); err != nil {
		metrics.IncDeadLetterFailure()
		logger.Error("dead letter publish failed", err, logger.FieldKV("message_id", msg.MessageID))
		return
	}
	metrics.IncDeadLettered()
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.settings.StoreTimeout)
	defer cancel()
	msgs := s.repo.ListRecent(ctx, s.settings.ArchiveLimit)
	metrics.IncArchiveViews()
	logger.Debug("archive viewed", logger.FieldKV("count", len(msgs)))
	w.Header().Set("Cache-Control", "no-store")
	writePage(w, http.StatusOK, render.Archive(msgs))
}

// Health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readiness endpoint
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		logger.Error("readiness check failed", err)
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// readMessage returns the raw "message" form field. An oversized body reports ErrMessageTooLong.
func readMessage(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", ErrMessageTooLong
		}
		return "", fmt.Errorf("parse form: %w", err)
	}
	return r.PostFormValue("message"), nil
}

// validateSubmission trims raw and enforces the length limit in runes.
func validateSubmission(raw string, maxLen int) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxLen {
		return "", ErrMessageTooLong
	}
	return text, nil
}

func writePage(w http.ResponseWriter, status int, fragment string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, render.Wrap(fragment))
}
