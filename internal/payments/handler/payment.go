package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkly/internal/payments/service"
	httputil "parkly/pkg/http"
	"parkly/pkg/logger"
	"parkly/pkg/model"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, order)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Verify(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

// Webhook always acknowledges with 200 once the signature middleware has let
// the request through. Returning an error status would only make the gateway
// redeliver a payload we have already decided about.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var event model.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.log.Warn("Undecodable webhook payload", "error", err)
		httputil.WriteSuccess(w, map[string]bool{"received": true})
		return
	}

	if err := h.service.HandleWebhook(r.Context(), &event); err != nil {
		h.log.Error("Webhook processing failed", "event", event.Event, "error", err)
	}

	httputil.WriteSuccess(w, map[string]bool{"received": true})
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Refund(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/order", h.CreateOrder)
	router.POST("/api/v1/payments/verify", h.Verify)
	router.POST("/api/v1/payments/webhook", h.Webhook)
	router.POST("/api/v1/payments/refund", h.Refund)
}
