package rules

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fedreg/internal/authgate"
	"fedreg/pkg/httputil"
)

// Handler exposes the rule catalog over HTTP. Reads are public; catalog
// mutations pass the master gate.
type Handler struct {
	service *Service
	gate    *authgate.Gate
	logger  *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(svc *Service, gate *authgate.Gate, logger *slog.Logger) *Handler {
	return &Handler{service: svc, gate: gate, logger: logger}
}

// Register mounts the rule routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{ruleId}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(h.gate.RequireMaster)
			r.Post("/", h.create)
			r.Patch("/{ruleId}", h.update)
			r.Delete("/{ruleId}", h.remove)
		})
	})
}

type ruleRequest struct {
	ShortDesc string `json:"shortdesc"`
	LongDesc  string `json:"longdesc"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rules)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.Get(r.Context(), chi.URLParam(r, "ruleId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[ruleRequest](w, r)
	if !ok {
		return
	}
	rule, err := h.service.Create(r.Context(), req.ShortDesc, req.LongDesc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[ruleRequest](w, r)
	if !ok {
		return
	}
	rule, err := h.service.Update(r.Context(), chi.URLParam(r, "ruleId"), req.ShortDesc, req.LongDesc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.Delete(r.Context(), chi.URLParam(r, "ruleId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}
