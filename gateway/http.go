// Package gateway is the transport boundary: HTTP for request/response
// operations, WebSocket for the duplex event stream. Schema validation of
// payloads happens here; the core behind it assumes well-typed input.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/services"
)

type Handler struct {
	log       *slog.Logger
	auth      services.IAuthService
	directory services.IDirectoryService
	ws        *WSHandler
}

func NewHandler(log *slog.Logger, auth services.IAuthService,
	directory services.IDirectoryService, ws *WSHandler) *Handler {
	return &Handler{log: log, auth: auth, directory: directory, ws: ws}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/api/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id}", h.updateUser).Methods(http.MethodPatch)
	r.HandleFunc("/api/chats", h.listChats).Methods(http.MethodGet)
	r.HandleFunc("/api/chats", h.createChat).Methods(http.MethodPost)
	r.HandleFunc("/api/chats/{id}/messages", h.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/chats/{id}/messages/search", h.searchMessages).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.ws.HandleWS).Methods(http.MethodGet)
	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type sessionResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

// userView is the only user shape that ever leaves the process; there is
// no field for credential material to leak through.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Status    string    `json:"status"`
	Bio       string    `json:"bio,omitempty"`
	AvatarRef string    `json:"avatar_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type chatView struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Name         string       `json:"name,omitempty"`
	Participants []string     `json:"participants"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	Settings     settingsView `json:"settings"`
}

type settingsView struct {
	CanAddMembers   bool   `json:"can_add_members"`
	CanPostMessages string `json:"can_post_messages"`
}

type chatSummaryView struct {
	Chat        chatView        `json:"chat"`
	LastMessage *MessagePayload `json:"last_message,omitempty"`
}

type createChatRequest struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
	CreatedBy    string   `json:"created_by"`
	Settings     struct {
		CanAddMembers   *bool   `json:"can_add_members"`
		CanPostMessages *string `json:"can_post_messages"`
	} `json:"settings"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.auth.Register(req.Email, req.Password, req.FullName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sessionResponse{User: toUserView(user), Token: string(token)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{User: toUserView(user), Token: string(token)})
}

func (h *Handler) listUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := h.directory.ListUsers()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		FullName  string `json:"full_name"`
		Status    string `json:"status"`
		Bio       string `json:"bio"`
		AvatarRef string `json:"avatar_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.directory.UpdateUser(mux.Vars(r)["id"], domain.UserPatch{
		FullName:  patch.FullName,
		Status:    patch.Status,
		Bio:       patch.Bio,
		AvatarRef: patch.AvatarRef,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserView(user))
}

func (h *Handler) listChats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	summaries, err := h.directory.ListChatsForUser(userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	views := make([]chatSummaryView, 0, len(summaries))
	for _, s := range summaries {
		view := chatSummaryView{Chat: toChatView(s.Chat)}
		if s.LastMessage != nil {
			view.LastMessage = toMessagePayload(*s.LastMessage)
		}
		views = append(views, view)
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	spec := services.CreateChatSpec{
		Type:         domain.ChatType(req.Type),
		Name:         req.Name,
		Participants: req.Participants,
		CreatedBy:    req.CreatedBy,
	}
	spec.Settings.CanAddMembers = req.Settings.CanAddMembers
	if req.Settings.CanPostMessages != nil {
		policy := domain.PostPolicy(*req.Settings.CanPostMessages)
		spec.Settings.CanPostMessages = &policy
	}
	chat, err := h.directory.CreateChat(spec)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toChatView(chat))
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.directory.ListMessagesForChat(mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	payloads := make([]*MessagePayload, 0, len(messages))
	for _, m := range messages {
		payloads = append(payloads, toMessagePayload(m))
	}
	h.writeJSON(w, http.StatusOK, payloads)
}

func (h *Handler) searchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	hits, err := h.directory.SearchMessages(r.Context(), mux.Vars(r)["id"], query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hits)
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Status:    u.Status,
		Bio:       u.Bio,
		AvatarRef: u.AvatarRef,
		CreatedAt: u.CreatedAt,
	}
}

func toChatView(c domain.Chat) chatView {
	return chatView{
		ID:           c.ID,
		Type:         string(c.Type),
		Name:         c.Name,
		Participants: c.Participants,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		Settings: settingsView{
			CanAddMembers:   c.Settings.CanAddMembers,
			CanPostMessages: string(c.Settings.CanPostMessages),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, reason string) {
	h.writeJSON(w, status, map[string]string{"error": reason})
}

// writeServiceError maps the core's sentinel errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperrors.ErrInvalidPassword), errors.Is(err, apperrors.ErrInvalidChatSpec):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrChatNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("Unhandled service error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
