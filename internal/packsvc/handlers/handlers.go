package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"

	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/reconcile"
	"github.com/scratchpos/lottery-services/internal/packsvc/service"
	"github.com/scratchpos/lottery-services/internal/packsvc/shiftclose"
	"github.com/scratchpos/lottery-services/internal/packsvc/ticket"
)

type Handler struct {
	tokenAuth       *jwtauth.JWTAuth
	packService     *service.PackService
	gameService     *service.GameService
	dayCloseService *service.DayCloseService
}

func NewHandler(packService *service.PackService, gameService *service.GameService,
	dayCloseService *service.DayCloseService) *Handler {
	return &Handler{
		packService:     packService,
		gameService:     gameService,
		dayCloseService: dayCloseService,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

// errorResponse maps domain errors onto HTTP codes: validation and state
// errors are the caller's to fix, everything else is a 500.
func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ticket.ErrInvalidGameCode),
		errors.Is(err, ticket.ErrInvalidPackNumber),
		errors.Is(err, ticket.ErrInvalidTicketCount),
		errors.Is(err, ticket.ErrInvalidBarcodeLength),
		errors.Is(err, ticket.ErrInvalidBarcodeFormat),
		errors.Is(err, reconcile.ErrMalformedScan),
		errors.Is(err, lifecycle.ErrInvalidSerialRange),
		errors.Is(err, lifecycle.ErrReturnReasonRequired),
		errors.Is(err, shiftclose.ErrVarianceReasonRequired):
		code = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrInvalidStateTransition),
		errors.Is(err, lifecycle.ErrBinOccupied),
		errors.Is(err, lifecycle.ErrDuplicatePack),
		errors.Is(err, shiftclose.ErrInvalidShiftState),
		errors.Is(err, shiftclose.ErrNoVarianceToApprove):
		code = http.StatusConflict
	case errors.Is(err, service.ErrPackNotFound),
		errors.Is(err, service.ErrBinNotFound),
		errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrShiftNotFound):
		code = http.StatusNotFound
	}

	h.CreateResponse(w, Response{
		Code:  code,
		Error: err.Error(),
	})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "pack service is running at port " + os.Getenv("PACK_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}
