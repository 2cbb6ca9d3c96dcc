package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

func (h *Handler) ReceivePackHandler(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.ReceiveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	pack, upcs, err := h.packService.Receive(r.Context(), in)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	// The UPC set goes back with the pack so the till can print or
	// verify the per-ticket identifiers on the spot.
	h.CreateResponse(w, Response{
		Message: "pack received",
		Code:    http.StatusCreated,
		Data: struct {
			Pack *models.Pack `json:"pack"`
			UPCs []string     `json:"upcs"`
		}{pack, upcs},
	})
}

func (h *Handler) ReceiveBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID  int64    `json:"store_id"`
		Barcodes []string `json:"barcodes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	// Items succeed or fail independently; the response always carries
	// the per-item outcomes.
	results := h.packService.ReceiveBatch(r.Context(), req.StoreID, req.Barcodes)

	h.CreateResponse(w, Response{
		Message: "batch processed",
		Code:    http.StatusOK,
		Data:    results,
	})
}

func (h *Handler) GetPackHandler(w http.ResponseWriter, r *http.Request) {
	packID, err := strconv.ParseInt(chi.URLParam(r, "packID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid pack id"})
		return
	}

	pack, err := h.packService.GetPack(r.Context(), packID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "pack",
		Code:    http.StatusOK,
		Data:    pack,
	})
}

func (h *Handler) ActivatePackHandler(w http.ResponseWriter, r *http.Request) {
	packID, err := strconv.ParseInt(chi.URLParam(r, "packID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid pack id"})
		return
	}

	var req struct {
		BinID int64 `json:"bin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	pack, err := h.packService.Activate(r.Context(), packID, req.BinID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "pack activated",
		Code:    http.StatusOK,
		Data:    pack,
	})
}

func (h *Handler) ReturnPackHandler(w http.ResponseWriter, r *http.Request) {
	packID, err := strconv.ParseInt(chi.URLParam(r, "packID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid pack id"})
		return
	}

	var req struct {
		Reason         string `json:"reason"`
		Notes          string `json:"notes"`
		LastSoldSerial *int   `json:"last_sold_serial"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	rec, err := h.packService.Return(r.Context(), packID, lifecycle.ReturnInput{
		Reason:         req.Reason,
		Notes:          req.Notes,
		LastSoldSerial: req.LastSoldSerial,
	})
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "pack returned",
		Code:    http.StatusOK,
		Data:    rec,
	})
}

func (h *Handler) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.ListGames(r.Context())
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "games",
		Code:    http.StatusOK,
		Data:    games,
	})
}
