package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vincentbai/monotrack/internal/config"
	"github.com/vincentbai/monotrack/internal/ctn"
	"github.com/vincentbai/monotrack/internal/database"
	"github.com/vincentbai/monotrack/internal/dom/htmldoc"
	"github.com/vincentbai/monotrack/internal/models"
	"github.com/vincentbai/monotrack/internal/tracker"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Server struct {
	db     *database.Database
	config *config.Config
	server *http.Server
}

func NewServer(db *database.Database, cfg *config.Config) *Server {
	return &Server{
		db:     db,
		config: cfg,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleActions(w http.ResponseWriter, request *http.Request) {
	switch request.Method {
	case http.MethodPost:
		s.storeAction(w, request)
	case http.MethodGet:
		s.listActions(w, request)
	default:
		http.Error(w, "GET or POST only", http.StatusMethodNotAllowed)
	}
}

func (s *Server) storeAction(w http.ResponseWriter, request *http.Request) {
	var action models.Action
	if err := json.NewDecoder(request.Body).Decode(&action); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.TSUTC == 0 {
		now := time.Now().UTC()
		action.TSUTC = now.UnixMilli()
		action.TSISO = now.Format(time.RFC3339)
	}
	if err := s.db.ValidateAction(action); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.db.InsertAction(action); err != nil {
		log.Printf("Database error: %v", err)
		http.Error(w, "Failed to store action", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent) // success, no body
}

func (s *Server) listActions(w http.ResponseWriter, request *http.Request) {
	limit := defaultListLimit
	if raw := request.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}
	actions, err := s.db.RecentActions(limit)
	if err != nil {
		log.Printf("Database error: %v", err)
		http.Error(w, "Failed to read actions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(actions)
}

// handlePages serves files from the static directory. HTML pages get the
// call tracking number from the request applied before they leave.
func (s *Server) handlePages(w http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	if s.config.StaticDir == "" {
		http.NotFound(w, request)
		return
	}
	rel := path.Clean("/" + strings.TrimPrefix(request.URL.Path, "/pages/"))
	if strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	filePath := filepath.Join(s.config.StaticDir, filepath.FromSlash(rel))
	info, err := os.Stat(filePath)
	if err == nil && info.IsDir() {
		filePath = filepath.Join(filePath, "index.html")
	}

	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".html" && ext != ".htm" {
		http.ServeFile(w, request, filePath)
		return
	}

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, request)
			return
		}
		log.Printf("Failed to open page %s: %v", filePath, err)
		http.Error(w, "Failed to read page", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	doc, err := htmldoc.Parse(file, request.URL.RawQuery, request.Header.Get("Cookie"))
	if err != nil {
		log.Printf("Failed to parse page %s: %v", filePath, err)
		http.Error(w, "Failed to read page", http.StatusInternalServerError)
		return
	}

	t := tracker.New(doc,
		tracker.WithAttributes(s.config.Attributes),
		tracker.WithCookieOptions(s.config.Cookie),
	)
	defer t.Close()
	if value, _, ok := ctn.Detect(doc.QueryString(), doc.Cookie()); ok {
		if ctn.HeaderSafe(value) {
			t.DetectCallTracking(doc.QueryString(), doc.Cookie())
			t.ReplaceCalls()
		} else {
			log.Printf("Ignoring call tracking number %q for %s: not valid in a cookie header", value, request.URL.Path)
		}
	}

	var body bytes.Buffer
	if err := doc.Render(&body); err != nil {
		log.Printf("Failed to render page %s: %v", filePath, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	for _, cookie := range doc.WrittenCookies() {
		w.Header().Add("Set-Cookie", cookie)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body.Bytes())
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/actions", s.handleActions)
	mux.HandleFunc("/pages/", s.handlePages)
	return mux
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) Start() error {
	mux := s.setupRoutes()
	s.server = &http.Server{
		Addr:         s.config.Address,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	shutdownChannel := make(chan os.Signal, 1)
	signal.Notify(shutdownChannel, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Monotrack agent listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-shutdownChannel
	log.Println("Shutting down server...")

	shutdownContext, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownContext); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}
