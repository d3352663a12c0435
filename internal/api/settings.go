package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"halomind/internal/adapters/ai"
)

type credentialRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

type modelRequest struct {
	Model string `json:"model" validate:"required"`
}

type settingsResult struct {
	Model                string `json:"model"`
	CredentialConfigured bool   `json:"credentialConfigured"`
}

type usageResult struct {
	Providers    []ai.ProviderUsage `json:"providers"`
	TotalCostUSD decimal.Decimal    `json:"totalCostUsd"`
}

func (h *Handler) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.orchestrator.Credentials().SetAndPersist(r.Context(), req.APIKey); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.Credentials().SetAndPersist(r.Context(), ""); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	respondResult(w, settingsResult{
		Model:                h.orchestrator.Model(r.Context()),
		CredentialConfigured: h.orchestrator.Credentials().HasCredential(),
	})
}

func (h *Handler) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if !h.decode(w, r, &req) {
		return
	}
	model, err := h.orchestrator.Resolver().Set(r.Context(), req.Model)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondResult(w, settingsResult{
		Model:                model,
		CredentialConfigured: h.orchestrator.Credentials().HasCredential(),
	})
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage := h.orchestrator.Usage()
	respondResult(w, usageResult{Providers: usage.Snapshot(), TotalCostUSD: usage.TotalCost()})
}
