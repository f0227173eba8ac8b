package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"parkly/internal/facilities/service"
	httputil "parkly/pkg/http"
	"parkly/pkg/logger"
	"parkly/pkg/model"
)

type FacilityHandler struct {
	service service.FacilityService
	log     *logger.Logger
}

func NewFacilityHandler(service service.FacilityService, log *logger.Logger) *FacilityHandler {
	return &FacilityHandler{
		service: service,
		log:     log,
	}
}

func (h *FacilityHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var facility model.Facility
	if err := json.NewDecoder(r.Body).Decode(&facility); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &facility); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, facility)
}

func (h *FacilityHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	facility, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, facility)
}

func (h *FacilityHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ownerRef := strings.TrimSpace(r.URL.Query().Get("owner_ref"))

	facilities, totalCount, err := h.service.GetAll(r.Context(), ownerRef, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, facilities, totalCount, limit, offset)
}

func (h *FacilityHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	var updates model.FacilityUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	facility, err := h.service.Update(r.Context(), id, &updates)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, facility)
}

func (h *FacilityHandler) AddSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	var slot model.Slot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.AddSlot(r.Context(), id, &slot); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, slot)
}

func (h *FacilityHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	slots, totalCount, err := h.service.ListSlots(r.Context(), id, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, slots, totalCount, limit, offset)
}

func (h *FacilityHandler) UpdateSlotStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	slotID := ps.ByName("slotId")
	if id == "" || slotID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID and slotId parameters are required",
		})
		return
	}

	var update model.SlotStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	available, err := h.service.UpdateSlotStatus(r.Context(), id, slotID, update.Status, update.Force)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]int{"available_slots": available})
}

func (h *FacilityHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	availability, err := h.service.Availability(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, availability)
}

func (h *FacilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/facilities", h.Create)
	router.GET("/api/v1/facilities", h.GetAll)
	router.GET("/api/v1/facilities/id/:id", h.GetByID)
	router.PATCH("/api/v1/facilities/id/:id", h.Update)
	router.POST("/api/v1/facilities/id/:id/slots", h.AddSlot)
	router.GET("/api/v1/facilities/id/:id/slots", h.ListSlots)
	router.PATCH("/api/v1/facilities/id/:id/slots/:slotId/status", h.UpdateSlotStatus)
	router.GET("/api/v1/facilities/id/:id/availability", h.Availability)
}
