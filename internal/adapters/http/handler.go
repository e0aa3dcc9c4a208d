package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-care/aurelia/internal/adapters/speechws"
	"github.com/aurelia-care/aurelia/internal/app/conversation"
	"github.com/aurelia-care/aurelia/internal/domain"
)

type Server struct {
	svc       *conversation.Service
	snapshots domain.SnapshotStore
	speech    *speechws.Handler
}

func NewServer(svc *conversation.Service, snapshots domain.SnapshotStore, speech *speechws.Handler) http.Handler {
	s := &Server{svc: svc, snapshots: snapshots, speech: speech}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(withCORS)

	r.Get("/healthz", s.handleHealth)
	r.Get("/profiles", s.handleListProfiles)

	r.Route("/profiles/{profileID}", func(r chi.Router) {
		r.Route("/chats", func(r chi.Router) {
			r.Get("/", s.handleListChats)
			r.Post("/", s.handleCreateChat)
			r.Route("/{chatID}", func(r chi.Router) {
				r.Get("/", s.handleGetChat)
				r.Delete("/", s.handleDeleteChat)
				r.Post("/activate", s.handleActivateChat)
				r.Post("/messages", s.handleSendMessage)
			})
		})

		r.Get("/memory", s.handleGetMemory)
		r.Put("/memory/values", s.handlePutValues)

		r.Get("/journal", s.handleListJournal)
		r.Post("/journal", s.handleCreateJournalEntry)

		if speech != nil {
			r.Get("/speech", speech.ServeHTTP)
		}
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type chatDetailResponse struct {
	Chat     chatResponse      `json:"chat"`
	Messages []messageResponse `json:"messages"`
}

type listChatsResponse struct {
	Chats        []chatResponse `json:"chats"`
	ActiveChatID string         `json:"active_chat_id"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	Text        string `json:"text"`
	UserName    string `json:"user_name,omitempty"`
	StylePrompt string `json:"style_prompt,omitempty"`
}

type escalationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type audioResponse struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type sendMessageResponse struct {
	UserMessage      *messageResponse    `json:"user_message,omitempty"`
	AssistantMessage messageResponse     `json:"assistant_message"`
	Emotion          string              `json:"emotion,omitempty"`
	Audio            *audioResponse      `json:"audio,omitempty"`
	NeedsHelp        bool                `json:"needs_help"`
	Escalation       *escalationResponse `json:"escalation,omitempty"`
	Degraded         bool                `json:"degraded,omitempty"`
}

type memoryResponse struct {
	LongTerm *domain.LongTermContext `json:"long_term_context"`
}

type putValuesRequest struct {
	Values string `json:"values"`
}

type createJournalEntryRequest struct {
	Mood           string `json:"mood"`
	Events         string `json:"events,omitempty"`
	Concerns       string `json:"concerns,omitempty"`
	CopingAttempts string `json:"coping_attempts,omitempty"`
}

type journalEntryResponse struct {
	ID         string                  `json:"id"`
	Date       time.Time               `json:"date"`
	ShortTerm  domain.ShortTermContext `json:"short_term_context"`
	Reflection *domain.Reflection      `json:"reflection,omitempty"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	ids, err := s.snapshots.Profiles(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": out})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))

	chats := store.Chats()
	resp := listChatsResponse{
		Chats:        make([]chatResponse, 0, len(chats)),
		ActiveChatID: string(store.ActiveChatID()),
	}
	for _, c := range chats {
		resp.Chats = append(resp.Chats, toChatResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))

	id := store.CreateChat(r.Context())
	chat, err := store.Chat(id)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chatDetailResponse{
		Chat:     toChatResponse(chat),
		Messages: toMessagesResponse(chat.Messages),
	})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))

	chat, err := store.Chat(chatID(r))
	if err != nil {
		notFoundOrInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatDetailResponse{
		Chat:     toChatResponse(chat),
		Messages: toMessagesResponse(chat.Messages),
	})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))

	if err := store.DeleteChat(r.Context(), chatID(r)); err != nil {
		notFoundOrInternal(w, err)
		return
	}
	// Deleting the last chat synthesizes a fresh one, so there is always an
	// active chat to report back.
	writeJSON(w, http.StatusOK, map[string]string{
		"active_chat_id": string(store.ActiveChatID()),
	})
}

func (s *Server) handleActivateChat(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))

	if err := store.SetActiveChat(r.Context(), chatID(r)); err != nil {
		notFoundOrInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"active_chat_id": string(store.ActiveChatID()),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), conversation.SendMessageInput{
		ProfileID:   profileID(r),
		ChatID:      chatID(r),
		Text:        req.Text,
		UserName:    req.UserName,
		StylePrompt: req.StylePrompt,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChatNotFound):
			notFound(w, "chat not found")
		case errors.Is(err, domain.ErrTurnInFlight):
			conflict(w, "a turn is already in progress for this chat")
		default:
			internalError(w, err)
		}
		return
	}

	resp := sendMessageResponse{
		AssistantMessage: toMessageResponse(out.AssistantMessage),
		Emotion:          string(out.Emotion),
		NeedsHelp:        out.NeedsHelp,
		Degraded:         out.Degraded,
	}
	if out.UserMessage != nil {
		m := toMessageResponse(out.UserMessage)
		resp.UserMessage = &m
	}
	if out.Audio != nil {
		resp.Audio = &audioResponse{
			MIMEType: out.Audio.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(out.Audio.Data),
		}
	}
	if out.Escalation != nil {
		resp.Escalation = &escalationResponse{
			Success: out.Escalation.Success,
			Message: out.Escalation.Message,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))
	writeJSON(w, http.StatusOK, memoryResponse{LongTerm: store.LongTerm()})
}

func (s *Server) handlePutValues(w http.ResponseWriter, r *http.Request) {
	var req putValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))
	store.SetValues(r.Context(), req.Values)
	writeJSON(w, http.StatusOK, memoryResponse{LongTerm: store.LongTerm()})
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Sessions().ForProfile(r.Context(), profileID(r))

	entries := store.JournalEntries()
	out := make([]journalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJournalEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string][]journalEntryResponse{"entries": out})
}

func (s *Server) handleCreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req createJournalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Mood) == "" {
		badRequest(w, "mood is required")
		return
	}

	entry, err := s.svc.CreateJournalEntry(r.Context(), profileID(r), domain.ShortTermContext{
		Mood:           req.Mood,
		Events:         req.Events,
		Concerns:       req.Concerns,
		CopingAttempts: req.CopingAttempts,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJournalEntryResponse(entry))
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func profileID(r *http.Request) domain.ProfileID {
	return domain.ProfileID(chi.URLParam(r, "profileID"))
}

func chatID(r *http.Request) domain.ChatID {
	return domain.ChatID(chi.URLParam(r, "chatID"))
}

func toChatResponse(c *domain.Chat) chatResponse {
	return chatResponse{
		ID:        string(c.ID),
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toJournalEntryResponse(e *domain.JournalEntry) journalEntryResponse {
	return journalEntryResponse{
		ID:         string(e.ID),
		Date:       e.Date,
		ShortTerm:  e.ShortTerm,
		Reflection: e.Reflection,
	}
}

func notFoundOrInternal(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrChatNotFound) {
		notFound(w, "chat not found")
		return
	}
	internalError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": msg,
	})
}

func conflict(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusConflict, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
