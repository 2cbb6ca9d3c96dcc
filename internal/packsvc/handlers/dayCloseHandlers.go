package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/scratchpos/lottery-services/internal/packsvc/service"
)

func (h *Handler) ResolveScanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID     int64  `json:"store_id"`
		Barcode     string `json:"barcode"`
		ActualCount *int   `json:"actual_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	result, err := h.dayCloseService.ResolveScan(r.Context(), req.StoreID, req.Barcode, req.ActualCount)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "scan resolved",
		Code:    http.StatusOK,
		Data:    result,
	})
}

func (h *Handler) OpenShiftHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID int64 `json:"store_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	shift, err := h.dayCloseService.OpenShift(r.Context(), req.StoreID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "shift opened",
		Code:    http.StatusCreated,
		Data:    shift,
	})
}

func (h *Handler) CloseShiftHandler(w http.ResponseWriter, r *http.Request) {
	shiftID, err := strconv.ParseInt(chi.URLParam(r, "shiftID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid shift id"})
		return
	}

	var req struct {
		Scans []service.BinScanInput `json:"scans"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	result, err := h.dayCloseService.CloseShift(r.Context(), shiftID, req.Scans)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "shift close processed",
		Code:    http.StatusOK,
		Data:    result,
	})
}

func (h *Handler) ApproveVarianceHandler(w http.ResponseWriter, r *http.Request) {
	shiftID, err := strconv.ParseInt(chi.URLParam(r, "shiftID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid shift id"})
		return
	}

	var req struct {
		Reason     string `json:"reason"`
		ApprovedBy string `json:"approved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	approval, err := h.dayCloseService.ApproveVariance(r.Context(), shiftID, req.Reason, req.ApprovedBy)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "variance approved",
		Code:    http.StatusOK,
		Data:    approval,
	})
}
