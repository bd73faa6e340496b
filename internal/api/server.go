// Package api exposes the conversion pipeline over HTTP.
package api

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/formlift/formlift/internal/convert"
	"github.com/formlift/formlift/internal/httputil"
	"github.com/formlift/formlift/internal/preview"
	"github.com/formlift/formlift/internal/security"
	"github.com/formlift/formlift/internal/store"
	"github.com/formlift/formlift/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxUploadBytes caps uploaded request bodies at 16 MiB.
const maxUploadBytes = 16 << 20

type Server struct {
	converter *convert.Converter
	db        *store.DB
}

func NewServer(converter *convert.Converter, db *store.DB) *Server {
	return &Server{
		converter: converter,
		db:        db,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert/heightmap", s.convertHeightmap)
	mux.HandleFunc("/api/convert/braille", s.convertBraille)
	mux.HandleFunc("/api/convert/qr", s.convertQR)
	mux.HandleFunc("/api/convert/topo", s.convertTopo)
	mux.HandleFunc("/api/convert/depth", s.convertDepth)
	mux.HandleFunc("/api/convert/multi", s.convertMulti)
	mux.HandleFunc("/api/conversions", s.listConversions)
	mux.HandleFunc("/api/download/", s.downloadFile)
	mux.HandleFunc("/api/preview/terrain", preview.TerrainHandler)
	mux.HandleFunc("/api/health", s.showHealth)
	return mux
}

// downloadFile serves a previously generated STL by name. Multi-material
// jobs return one file per request; the names come from the conversion
// history. The requested name must resolve inside the output directory.
func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if name == "" {
		httputil.BadRequest(w, "missing file name")
		return
	}

	path := s.converter.OutputPath(name)
	if err := security.ValidatePathWithinDirectory(path, s.converter.OutputDir); err != nil {
		httputil.BadRequest(w, "invalid file name")
		return
	}

	body, err := os.ReadFile(path)
	if err != nil {
		httputil.NotFound(w, "no such file")
		return
	}
	httputil.WriteAttachment(w, filepath.Base(name), body)
}

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
		"features": []string{
			"heightmap", "braille", "qr", "topo", "depth", "multi",
		},
	})
}

func (s *Server) listConversions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.WriteJSONOK(w, []store.Conversion{})
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	conversions, err := s.db.ListConversions(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to retrieve conversions")
		return
	}
	httputil.WriteJSONOK(w, conversions)
}
