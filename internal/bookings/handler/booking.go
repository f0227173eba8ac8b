package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"parkly/internal/bookings/repository"
	"parkly/internal/bookings/service"
	"parkly/pkg/config"
	httputil "parkly/pkg/http"
	"parkly/pkg/logger"
	"parkly/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) GetByReference(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reference := ps.ByName("reference")
	if reference == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Reference parameter is required",
		})
		return
	}

	booking, err := h.service.GetByReference(r.Context(), reference)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, bookings, totalCount, limit, offset)
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := repository.BookingFilter{
		FacilityID: strings.TrimSpace(query.Get("facility_id")),
		SlotID:     strings.TrimSpace(query.Get("slot_id")),
		UserRef:    strings.TrimSpace(query.Get("user_ref")),
		Status:     config.BookingStatus(strings.TrimSpace(query.Get("status"))),
	}

	start, err := httputil.ExtractTimeParam(r, "start_time")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !start.IsZero() {
		filter.StartTime = &start
	}

	end, err := httputil.ExtractTimeParam(r, "end_time")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !end.IsZero() {
		filter.EndTime = &end
	}

	bookings, totalCount, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, bookings, totalCount, limit, offset)
}

// Cancel accepts an optional body carrying the reason and actor.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	var req model.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Cancel(r.Context(), id, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	booking, err := h.service.CheckIn(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	booking, err := h.service.CheckOut(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	var update model.BookingStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), id, &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/search", h.Search)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/reference/:reference", h.GetByReference)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/checkin", h.CheckIn)
	router.POST("/api/v1/bookings/id/:id/checkout", h.CheckOut)
	router.PATCH("/api/v1/bookings/id/:id/status", h.UpdateStatus)
}
