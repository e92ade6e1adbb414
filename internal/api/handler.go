package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/circle-packer/internal/export"
	"github.com/eugenenazirov/circle-packer/internal/packing"
	"github.com/eugenenazirov/circle-packer/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the packing engine and the stores into HTTP handlers.
type Handler struct {
	engine  packing.Engine
	panels  storage.PanelStore
	layouts storage.LayoutStore
	logger  *zap.Logger

	clock func() time.Time

	mu             sync.RWMutex
	panelUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger sets the logger used for failures that are not the client's fault.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(engine packing.Engine, panels storage.PanelStore, layouts storage.LayoutStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:  engine,
		panels:  panels,
		layouts: layouts,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.panelUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	panel, err := h.panels.GetPanel()
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, panelResponse{
		Inputs:    panel,
		UpdatedAt: h.currentPanelUpdatedAt(),
	})
}

func (h *Handler) handlePutPanel(w http.ResponseWriter, r *http.Request) {
	var req packing.Inputs
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.panels.SetPanel(req); err != nil {
		if errors.Is(err, storage.ErrInvalidPanel) {
			writeError(w, http.StatusBadRequest, "Invalid panel", err.Error())
			return
		}
		h.writeInternalError(w, r, err)
		return
	}

	h.markPanelUpdated()

	panel, err := h.panels.GetPanel()
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, panelResponse{
		Inputs:    panel,
		UpdatedAt: h.currentPanelUpdatedAt(),
		Message:   "Panel updated successfully",
	})
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	var body packRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	panel, err := h.panels.GetPanel()
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	req, err := body.toRequest(panel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error(), suggestionFor(err))
		return
	}

	start := time.Now()
	result, packErr := h.engine.Pack(req)
	elapsed := time.Since(start)

	if packErr != nil {
		if isClientError(packErr) {
			writeError(w, http.StatusBadRequest, "Invalid request", packErr.Error(), suggestionFor(packErr))
			return
		}
		h.writeInternalError(w, r, packErr)
		return
	}

	resp := packResponse{
		Result:            result,
		CalculationTimeMs: elapsed.Milliseconds(),
	}

	if body.Save {
		saved, err := h.layouts.Save(r.Context(), storage.Layout{
			Name:    body.Name,
			Request: req,
			Result:  result,
		})
		if err != nil {
			h.writeInternalError(w, r, err)
			return
		}
		resp.LayoutID = saved.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := h.layouts.List(r.Context())
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	summaries := make([]layoutSummary, 0, len(layouts))
	for _, l := range layouts {
		summaries = append(summaries, layoutSummary{
			ID:        l.ID,
			Name:      l.Name,
			Pattern:   l.Result.Pattern,
			Mode:      l.Request.Mode,
			Count:     l.Result.Count,
			CreatedAt: l.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, layoutListResponse{Layouts: summaries})
}

func (h *Handler) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handler) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	err := h.layouts.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrLayoutNotFound) {
		writeError(w, http.StatusNotFound, "Layout not found", err.Error())
		return
	}
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportLayout(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(export.FormatSVG)
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "Use one of svg, pdf, dxf, xlsx or png")
		return
	}

	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	// Render fully before writing headers so a failed export still gets a JSON error.
	var buf bytes.Buffer
	sheet := export.Sheet{Name: layout.Name, Request: layout.Request, Result: layout.Result}
	if err := export.Write(&buf, format, sheet); err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName(layout.Name)+format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) lookupLayout(w http.ResponseWriter, r *http.Request) (storage.Layout, bool) {
	layout, err := h.layouts.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrLayoutNotFound) {
		writeError(w, http.StatusNotFound, "Layout not found", err.Error())
		return storage.Layout{}, false
	}
	if err != nil {
		h.writeInternalError(w, r, err)
		return storage.Layout{}, false
	}
	return layout, true
}

func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeInternalError(w, err)
}

func (h *Handler) currentPanelUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.panelUpdatedAt
}

func (h *Handler) markPanelUpdated() {
	h.mu.Lock()
	h.panelUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func isClientError(err error) bool {
	return errors.Is(err, packing.ErrInvalidInputs) ||
		errors.Is(err, packing.ErrUnknownPattern) ||
		errors.Is(err, packing.ErrUnknownMode) ||
		errors.Is(err, packing.ErrUnknownPreset) ||
		errors.Is(err, packing.ErrOptimizeRectangular) ||
		errors.Is(err, packing.ErrOptimizeTight)
}

func suggestionFor(err error) string {
	switch {
	case errors.Is(err, packing.ErrUnknownPattern):
		return "pattern must be rectangular or triangular"
	case errors.Is(err, packing.ErrUnknownMode):
		return "mode must be tight or spread"
	case errors.Is(err, packing.ErrUnknownPreset):
		presets := packing.Presets()
		names := make([]string, len(presets))
		for i, p := range presets {
			names[i] = string(p)
		}
		return "preset must be one of " + strings.Join(names, ", ")
	case errors.Is(err, packing.ErrOptimizeRectangular):
		return "use the triangular pattern or disable optimize"
	case errors.Is(err, packing.ErrOptimizeTight):
		return "use spread mode or disable optimize"
	}
	return ""
}

// fileName keeps letters, digits, dash and underscore from a layout name.
func fileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		}
		return -1
	}, name)
	if clean == "" {
		return "layout"
	}
	return clean
}

type packRequest struct {
	Diameter  *float64 `json:"diameter"`
	Clearance *float64 `json:"clearance"`
	Width     *float64 `json:"width"`
	Height    *float64 `json:"height"`
	Preset    string   `json:"preset"`
	Pattern   string   `json:"pattern"`
	Mode      string   `json:"mode"`
	Angle     *float64 `json:"angle"`
	Optimize  bool     `json:"optimize"`
	Save      bool     `json:"save"`
	Name      string   `json:"name"`
}

// toRequest fills missing numbers from the stored panel. A preset wins
// over pattern, mode and optimize; an explicit angle still applies.
func (p packRequest) toRequest(panel packing.Inputs) (packing.Request, error) {
	in := panel
	if p.Diameter != nil {
		in.Diameter = *p.Diameter
	}
	if p.Clearance != nil {
		in.Clearance = *p.Clearance
	}
	if p.Width != nil {
		in.Width = *p.Width
	}
	if p.Height != nil {
		in.Height = *p.Height
	}

	var req packing.Request
	if p.Preset != "" {
		preset, err := packing.ParsePreset(p.Preset)
		if err != nil {
			return packing.Request{}, err
		}
		req = preset.Request(in)
	} else {
		pattern, err := packing.ParsePattern(p.Pattern)
		if err != nil {
			return packing.Request{}, err
		}
		// The optimizer only produces spread layouts.
		mode := packing.ModeTight
		if p.Optimize {
			mode = packing.ModeSpread
		}
		if p.Mode != "" {
			if mode, err = packing.ParseMode(p.Mode); err != nil {
				return packing.Request{}, err
			}
		}
		req = packing.Request{Inputs: in, Pattern: pattern, Mode: mode, Optimize: p.Optimize}
	}

	if p.Angle != nil {
		req.Angle = p.Angle
	}
	return req, nil
}

type packResponse struct {
	packing.Result
	CalculationTimeMs int64  `json:"calculationTimeMs"`
	LayoutID          string `json:"layoutId,omitempty"`
}

type panelResponse struct {
	packing.Inputs
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type layoutSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Pattern   packing.Pattern `json:"pattern"`
	Mode      packing.Mode    `json:"mode"`
	Count     int             `json:"count"`
	CreatedAt time.Time       `json:"createdAt"`
}

type layoutListResponse struct {
	Layouts []layoutSummary `json:"layouts"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
