package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yabaapp/yaba-server/internal/http/response"
)

// The CSV routes move raw text/csv bodies, so they are mounted on the router
// directly instead of through huma's JSON pipeline.
func (s *Server) registerCSVRoutes() {
	s.router.Get("/api/transaction-items/csv", s.handleExportCSV)
	s.router.Post("/api/transaction-items/csv", s.handleImportCSV)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	// Buffer so a failure part way through can still be reported as JSON.
	var buf bytes.Buffer
	rows, err := s.services.Ledger.Export(r.Context(), userID, &buf)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", CacheNoStore)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("csv export write failed", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("csv exported", "user_id", userID, "rows", rows)
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	body := http.MaxBytesReader(w, r.Body, MaxImportSize)
	summary, err := s.services.Ledger.Import(r.Context(), userID, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.TooLarge(w, fmt.Sprintf("CSV upload exceeds %d bytes", MaxImportSize), s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, msgTransactionsImported, summary, s.logger)
}
