package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkly/internal/gateway/core"
	httputil "parkly/pkg/http"
	"parkly/pkg/logger"
)

type FlowHandler struct {
	engine *core.Engine
	log    *logger.Logger
}

func NewFlowHandler(engine *core.Engine, log *logger.Logger) *FlowHandler {
	return &FlowHandler{
		engine: engine,
		log:    log,
	}
}

type executeFlowRequest struct {
	Flow  string         `json:"flow"`
	Input map[string]any `json:"input"`
}

func (h *FlowHandler) Execute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req executeFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}
	if req.Flow == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Flow name is required",
		})
		return
	}
	if req.Input == nil {
		req.Input = make(map[string]any)
	}

	output, err := h.engine.Run(r.Context(), req.Flow, req.Input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, output)
}

func (h *FlowHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httputil.WriteSuccess(w, map[string][]string{"flows": h.engine.Flows()})
}

func (h *FlowHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/flows/execute", h.Execute)
	router.GET("/api/v1/flows", h.List)
}
