package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"activity_tracker/internal/model"
	"activity_tracker/pkg/errs"
)

// AccountService is the command surface exposed over HTTP: linking and
// unlinking accounts and configuring a guild's notification channel.
type AccountService interface {
	Link(ctx context.Context, githubUsername string, discordUserID string) (model.Account, error)
	Unlink(ctx context.Context, githubUsername string) error
	List(ctx context.Context, discordUserID string) ([]model.Account, error)
	SetChannel(ctx context.Context, guildID string, channelID string) error
}

type Handler struct {
	service AccountService
}

func NewHandler(service AccountService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/accounts", h.handleLink)
	r.Get("/accounts", h.handleList)
	r.Delete("/accounts/{username}", h.handleUnlink)
	r.Put("/guilds/{guildID}/channel", h.handleSetChannel)
	return r
}

type linkRequest struct {
	GithubUsername string `json:"github_username"`
	DiscordUserID  string `json:"discord_user_id"`
}

type setChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

type accountResponse struct {
	ID             int        `json:"id"`
	GithubUsername string     `json:"github_username"`
	DiscordUserID  string     `json:"discord_user_id,omitempty"`
	CursorSHA      string     `json:"cursor_sha,omitempty"`
	CursorTime     *time.Time `json:"cursor_time,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.ErrNotValidData)
		return
	}
	account, err := h.service.Link(r.Context(), req.GithubUsername, req.DiscordUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.service.Unlink(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context(), r.URL.Query().Get("discord_user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, toAccountResponse(account))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetChannel(w http.ResponseWriter, r *http.Request) {
	var req setChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.ErrNotValidData)
		return
	}
	guildID := chi.URLParam(r, "guildID")
	if err := h.service.SetChannel(r.Context(), guildID, req.ChannelID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAccountResponse(account model.Account) accountResponse {
	resp := accountResponse{
		ID:             account.ID,
		GithubUsername: account.GithubUsername,
		DiscordUserID:  account.DiscordUserID,
	}
	if account.Cursor != nil {
		resp.CursorSHA = account.Cursor.SHA
		cursorTime := account.Cursor.Time
		resp.CursorTime = &cursorTime
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Warnf("encode response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotValidData):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrAccountExists):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
