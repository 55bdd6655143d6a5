package server

import (
	"encoding/json"
	"net/http"

	"github.com/payinhq/payin-calculator/internal/constants"
)

// successEnvelope is the upstream success shape: {"status":"success","data":...}
type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// Every JSON body goes out pretty-printed with a two-space indent; the
// dashboard's status panel renders the bytes verbatim.

// sendJSONResponse marshals v with two-space indent and writes it.
func (s *Server) sendJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.sendRawJSON(w, statusCode, body)
}

// sendSuccessResponse wraps data in the success envelope.
func (s *Server) sendSuccessResponse(w http.ResponseWriter, data any) {
	s.sendJSONResponse(w, http.StatusOK, successEnvelope{Status: "success", Data: data})
}

// sendErrorResponse writes the upstream error shape: {"detail": message}.
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	body, _ := json.MarshalIndent(map[string]string{"detail": message}, "", "  ")
	s.sendRawJSON(w, statusCode, body)
}

func (s *Server) sendRawJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// Catalog responses are cached until the next table reload.

func (s *Server) getCachedResponse(key string) ([]byte, bool) {
	if cached, ok := s.cache.Load(key); ok {
		if body, ok := cached.([]byte); ok {
			return body, true
		}
	}
	return nil, false
}

func (s *Server) cacheResponse(key string, body []byte) {
	s.cache.Store(key, body)
}

// sendCachedSuccess serves the catalog envelope for key, rendering and
// caching it on first use.
func (s *Server) sendCachedSuccess(w http.ResponseWriter, key string, build func() any) {
	if body, ok := s.getCachedResponse(key); ok {
		s.sendRawJSON(w, http.StatusOK, body)
		return
	}

	body, err := json.MarshalIndent(successEnvelope{Status: "success", Data: build()}, "", "  ")
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.cacheResponse(key, body)
	s.sendRawJSON(w, http.StatusOK, body)
}

// ResponseWriter wraps http.ResponseWriter to capture status code for
// metrics and logging.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.written += int64(n)
	return n, err
}
