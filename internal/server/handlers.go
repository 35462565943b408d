package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/packager"
	"git.home.luguber.info/inful/tailzen/internal/source"
	"git.home.luguber.info/inful/tailzen/internal/transform"
	"git.home.luguber.info/inful/tailzen/internal/version"
)

// ConvertRequest is the body of POST /api/v1/convert.
type ConvertRequest struct {
	// Repository accepts owner/name or a GitHub URL.
	Repository string `json:"repository"`
	// Format is "zip" (default) or "json".
	Format string `json:"format,omitempty"`
}

// ConvertResponse is returned for format=json.
type ConvertResponse struct {
	ConversionID string            `json:"conversion_id"`
	ThemeName    string            `json:"theme_name"`
	Description  string            `json:"description"`
	Files        []string          `json:"files"`
	Artifacts    map[string]string `json:"artifacts"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    float64      `json:"uptime"`
	Version   version.Info `json:"version"`
}

const (
	formatZip  = "zip"
	formatJSON = "json"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid request body").WithCause(err).Build())
		return
	}
	if req.Format == "" {
		req.Format = formatZip
	}
	if req.Format != formatZip && req.Format != formatJSON {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("unsupported format").
			WithContext("format", req.Format).
			Build())
		return
	}

	ref, err := source.ParseRef(req.Repository)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	res, err := s.converter.Convert(ctx, ref)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("X-Conversion-ID", res.ConversionID)

	if req.Format == formatJSON {
		writeJSON(w, http.StatusOK, ConvertResponse{
			ConversionID: res.ConversionID,
			ThemeName:    res.ThemeName,
			Description:  res.Description,
			Files:        res.Artifacts.Names(),
			Artifacts:    res.Artifacts.Map(),
		})
		return
	}

	dir := transform.TextDomain(res.ThemeName)
	var buf bytes.Buffer
	if err := packager.WriteZip(ctx, &buf, dir, res.Artifacts); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dir+".zip"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to write archive",
			logfields.ConversionID(res.ConversionID),
			logfields.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	now := s.opts.Now()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(s.started).Seconds(),
		Version:   version.Get(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
