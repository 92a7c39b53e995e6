package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/brynleigh/reflow-cli/internal/bom"
	"github.com/brynleigh/reflow-cli/internal/export"
)

const maxUploadBytes = 20 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "reflow"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data, err := json.Marshal(s.state)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode state")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleUploadBOM(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}
	file, header, err := r.FormFile("bom")
	if err != nil {
		writeError(w, http.StatusBadRequest, `no file field named "bom"`)
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	b, err := bom.ReadBytes(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview := bom.Preview(b, s.cfg.BOM.PreviewRows)
	label := fmt.Sprintf("Loaded: %s (%d rows, %d cols)", header.Filename, len(b.Rows), len(b.Columns))

	// A fresh BOM invalidates everything downstream.
	s.mu.Lock()
	s.bom = b
	s.state.BOMLabel = label
	s.state.BOM = &preview
	s.state.RunStatus = runIdle
	s.state.UniqueMPNs = 0
	s.state.Results = nil
	s.state.Aggregation = Aggregation{Status: aggNotRun}
	s.mu.Unlock()

	zap.L().Info("server: bom loaded",
		zap.String("file", header.Filename),
		zap.Int("rows", len(b.Rows)),
		zap.Int("columns", len(b.Columns)))
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"label":   label,
		"columns": b.Columns,
		"rows":    len(b.Rows),
	})
}

func (s *Server) handleRun(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The body is optional; an empty or absent one means no force.
		var req struct {
			Force bool `json:"force"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		s.mu.Lock()
		if len(s.bom.Rows) == 0 {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, "no BOM loaded")
			return
		}
		if s.state.RunStatus == runRunning {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "run already in progress")
			return
		}
		mpns, err := bom.UniqueMPNs(s.bom, s.cfg.BOM.MPNColumn)
		if err != nil {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.state.RunStatus = runRunning
		s.state.UniqueMPNs = len(mpns)
		s.state.Results = nil
		s.state.Aggregation = Aggregation{Status: aggNotRun}
		s.mu.Unlock()

		go func() {
			results := s.pipeline.RunBatch(ctx, mpns, req.Force)
			s.mu.Lock()
			s.state.Results = results
			s.state.RunStatus = runComplete
			s.mu.Unlock()
			zap.L().Info("server: lookup run complete", zap.Int("parts", len(results)))
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{
			"ok":               true,
			"unique_mpn_count": len(mpns),
		})
	}
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.state.RunStatus
	results := s.state.Results
	s.mu.Unlock()

	switch status {
	case runComplete:
	case runRunning:
		writeError(w, http.StatusBadRequest, "lookup run still in progress")
		return
	default:
		writeError(w, http.StatusBadRequest, "run the component lookup before aggregating")
		return
	}

	records, err := s.pipeline.Aggregate(r.Context(), results, s.cfg.Export.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary := export.FormatBatchSummary(results)

	s.mu.Lock()
	s.state.Aggregation = Aggregation{Status: aggComplete, Summary: summary, Records: records}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"summary": summary,
		"records": records,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	done := s.state.Aggregation.Status == aggComplete
	results := s.state.Results
	s.mu.Unlock()

	if !done {
		writeError(w, http.StatusBadRequest, "nothing aggregated yet")
		return
	}

	data, err := export.XLSXBytes(results)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reflow_profiles.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
