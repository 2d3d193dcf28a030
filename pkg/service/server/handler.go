package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pcscout-dev/pcscout/pkg/model"
	"github.com/pcscout-dev/pcscout/pkg/usecase/provider"
	"github.com/pcscout-dev/pcscout/pkg/usecase/query"
	"github.com/pcscout-dev/pcscout/pkg/usecase/search"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
)

// maxRequestBody bounds request bodies. Queries are short text.
const maxRequestBody = 64 * 1024

type handler struct {
	query        *query.Query
	search       *search.Search
	orchestrator *provider.Orchestrator
}

type queryResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// handleQuery runs a conversational turn. The body is the user
// message as plain text; user_id selects the session.
func (h *handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "failed to read request body")
		return
	}
	text := string(body)
	if text == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "request body is empty")
		return
	}

	sessionID := r.URL.Query().Get("user_id")
	result, err := h.query.Process(r.Context(), sessionID, text)
	if err != nil {
		logging.From(r.Context()).Error("query failed", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, queryResponse{
		SessionID: string(model.NormalizeSessionID(sessionID)),
		Answer:    result.Text,
	})
}

type queryDBRequest struct {
	Text       string `json:"text"`
	MaxResults int    `json:"max_results"`

	// UserID is accepted for request-shape compatibility; retrieval
	// is not session-scoped
	UserID string `json:"user_id"`
}

// handleQueryDB retrieves stored items nearest to the query text
func (h *handler) handleQueryDB(w http.ResponseWriter, r *http.Request) {
	var req queryDBRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "text is required")
		return
	}

	items, err := h.search.Search(r.Context(), req.Text, req.MaxResults)
	if err != nil {
		logging.From(r.Context()).Error("retrieval failed", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "retrieval failed")
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]any{"items": items})
}

type providerRequest struct {
	Provider string         `json:"provider"`
	Params   map[string]any `json:"params"`
}

// handleProvider runs one named provider, or all of them when no name
// is given
func (h *handler) handleProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Params == nil {
		respondError(r.Context(), w, http.StatusBadRequest, "params is required")
		return
	}

	if req.Provider != "" {
		p, err := h.orchestrator.Get(req.Provider)
		if err != nil {
			respondError(r.Context(), w, http.StatusNotFound, "unknown provider")
			return
		}
		data, err := p.GetData(r.Context(), req.Params)
		if err != nil {
			logging.From(r.Context()).Error("provider run failed", "provider", req.Provider, "error", err)
			respondError(r.Context(), w, http.StatusInternalServerError, "provider run failed")
			return
		}
		respondJSON(r.Context(), w, http.StatusOK, map[string]any{
			"results": []*provider.Result{{Provider: req.Provider, Data: data}},
		})
		return
	}

	results, err := h.orchestrator.RunAll(r.Context(), req.Params)
	if err != nil {
		logging.From(r.Context()).Error("provider fan-out failed", "error", err)
		respondError(r.Context(), w, http.StatusInternalServerError, "provider run failed")
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]any{"results": results})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.From(ctx).Warn("failed to encode response", "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}
