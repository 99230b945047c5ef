// Package handler exposes the community lifecycle over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fedreg/internal/authgate"
	"fedreg/internal/community/service"
	"fedreg/pkg/apierrors"
	"fedreg/pkg/httputil"
)

// Handler routes community requests to the lifecycle service.
type Handler struct {
	service *service.Service
	gate    *authgate.Gate
	logger  *slog.Logger
}

// New constructs the handler.
func New(svc *service.Service, gate *authgate.Gate, logger *slog.Logger) *Handler {
	return &Handler{service: svc, gate: gate, logger: logger}
}

// Register mounts the community routes. Reads are public; configuration
// writes pass the member gate; lifecycle mutations pass the master gate.
func (h *Handler) Register(r chi.Router) {
	r.Route("/communities", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/guildconfig/{guildId}", h.getGuildConfig)

		r.Group(func(r chi.Router) {
			r.Use(h.gate.RequireMember)
			r.Get("/getown", h.getOwn)
			r.Post("/guildconfig/{guildId}", h.setGuildConfig)
			r.Post("/communityconfig", h.setCommunityConfig)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.gate.RequireMaster)
			r.Post("/", h.create)
			r.Delete("/{communityId}", h.remove)
			r.Post("/{idReceiving}/merge/{idDissolving}", h.merge)
			r.Post("/guildLeave/{guildId}", h.guildLeave)
			r.Post("/notifyGuildConfigChanged/{guildId}", h.notifyGuildConfigChanged)
		})

		// Parameterized read last so the static segments above win.
		r.Get("/{communityId}", h.get)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	communities, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCommunityListResponse(communities))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	community, err := h.service.Get(r.Context(), chi.URLParam(r, "communityId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCommunityResponse(*community))
}

func (h *Handler) getOwn(w http.ResponseWriter, r *http.Request) {
	acting := authgate.CommunityFrom(r.Context())
	if acting == nil {
		httputil.WriteError(w, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCommunityResponse(*acting))
}

func (h *Handler) getGuildConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.service.GetGuildConfig(r.Context(), chi.URLParam(r, "guildId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newGuildConfigResponse(*config))
}

func (h *Handler) setGuildConfig(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[setGuildConfigRequest](w, r)
	if !ok {
		return
	}
	config, err := h.service.SetGuildConfig(
		r.Context(),
		authgate.CommunityFrom(r.Context()),
		chi.URLParam(r, "guildId"),
		req.toPatch(),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newGuildConfigResponse(*config))
}

func (h *Handler) setCommunityConfig(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[setCommunityConfigRequest](w, r)
	if !ok {
		return
	}
	community, err := h.service.SetCommunityConfig(
		r.Context(),
		authgate.CommunityFrom(r.Context()),
		req.toPatch(),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCommunityResponse(*community))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[createCommunityRequest](w, r)
	if !ok {
		return
	}
	result, err := h.service.Create(r.Context(), service.CreateParams{
		Name:    req.Name,
		Contact: req.Contact,
		GuildID: req.GuildID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newCreateResponse(*result))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "communityId")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deletedResponse{Deleted: true})
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	community, err := h.service.Merge(
		r.Context(),
		chi.URLParam(r, "idReceiving"),
		chi.URLParam(r, "idDissolving"),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCommunityResponse(*community))
}

func (h *Handler) guildLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.service.GuildLeave(r.Context(), chi.URLParam(r, "guildId")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) notifyGuildConfigChanged(w http.ResponseWriter, r *http.Request) {
	if err := h.service.NotifyGuildConfigChanged(r.Context(), chi.URLParam(r, "guildId")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
