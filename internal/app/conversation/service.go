// Package conversation is the use-case layer around a turn: it serializes
// turns per chat, appends the resulting messages, runs the one-time title
// rename, triggers crisis escalation, and kicks memory synthesis on a
// cadence.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aurelia-care/aurelia/internal/app/escalation"
	"github.com/aurelia-care/aurelia/internal/app/memorysynth"
	"github.com/aurelia-care/aurelia/internal/app/session"
	"github.com/aurelia-care/aurelia/internal/app/turn"
	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// ApologyText is the one fixed, calm fallback reply shown when text
// generation fails. The user never sees a raw error.
const ApologyText = "I'm sorry, I'm having trouble responding right now. " +
	"Please give me a moment and try again."

const titleMaxLen = 40

// Service coordinates the session store, turn orchestrator, memory
// synthesizer and escalation workflow for every profile.
type Service struct {
	sessions     *session.Manager
	orchestrator *turn.Orchestrator
	synthesizer  *memorysynth.Synthesizer
	escalation   *escalation.Service
	gateway      domain.ModelGateway

	synthesisEvery int
	now            func() time.Time

	mu      sync.Mutex
	turning map[domain.ChatID]bool
}

func NewService(
	sessions *session.Manager,
	orchestrator *turn.Orchestrator,
	synthesizer *memorysynth.Synthesizer,
	escalationSvc *escalation.Service,
	gateway domain.ModelGateway,
	synthesisEvery int,
) *Service {
	if synthesisEvery <= 0 {
		synthesisEvery = 4
	}
	return &Service{
		sessions:       sessions,
		orchestrator:   orchestrator,
		synthesizer:    synthesizer,
		escalation:     escalationSvc,
		gateway:        gateway,
		synthesisEvery: synthesisEvery,
		now:            time.Now,
	}
}

// Sessions exposes the per-profile store manager to transport adapters.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

type SendMessageInput struct {
	ProfileID   domain.ProfileID
	ChatID      domain.ChatID
	Text        string
	UserName    string
	StylePrompt string
}

type SendMessageOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
	Emotion          domain.Emotion
	Audio            *domain.AudioPayload
	NeedsHelp        bool
	Escalation       *escalation.Result

	// Degraded marks the fixed apology fallback after a text-generation
	// failure. No messages were appended in that case.
	Degraded bool
}

// SendMessage runs one full turn. Concurrent turns on the same chat are
// disallowed; callers get ErrTurnInFlight and retry once the previous turn
// resolves.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	store := s.sessions.ForProfile(ctx, in.ProfileID)

	chat, err := store.Chat(in.ChatID)
	if err != nil {
		return nil, err
	}

	if !s.beginTurn(in.ChatID) {
		return nil, domain.ErrTurnInFlight
	}
	defer s.endTurn(in.ChatID)

	log := observability.LoggerFromContext(ctx).With(
		"profile_id", in.ProfileID,
		"chat_id", in.ChatID,
	)
	log.Info("turn started")

	req := domain.TurnRequest{
		StylePrompt: in.StylePrompt,
		UserName:    in.UserName,
		Utterance:   in.Text,
		History:     chat.Messages,
		LongTerm:    store.LongTerm(),
		Journal:     store.ChatJournal(in.ChatID),
	}

	result, err := s.orchestrator.Run(ctx, req)
	if err != nil {
		// Fatal to the turn: nothing is appended, the caller shows the fixed
		// apology and the session stays usable.
		log.Error("turn failed", "error", err)
		return &SendMessageOutput{
			AssistantMessage: &domain.Message{
				Role:      domain.RoleAssistant,
				Content:   ApologyText,
				CreatedAt: s.now(),
			},
			Degraded: true,
		}, nil
	}

	firstUserMessage := chat.UserMessageCount() == 0

	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleUser,
		Content:   in.Text,
		CreatedAt: s.now(),
	}
	if err := store.AppendMessage(ctx, in.ChatID, userMsg); err != nil {
		return nil, err
	}

	assistantMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		Role:      domain.RoleAssistant,
		Content:   result.Text,
		CreatedAt: s.now(),
	}
	if err := store.AppendMessage(ctx, in.ChatID, assistantMsg); err != nil {
		return nil, err
	}

	out := &SendMessageOutput{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Emotion:          result.Emotion,
		Audio:            result.Audio,
		NeedsHelp:        result.NeedsHelp,
	}

	if result.NeedsHelp && s.escalation != nil {
		res := s.escalation.Escalate(ctx, in.UserName)
		out.Escalation = &res
	}

	if firstUserMessage && chat.Untitled() {
		s.renameAsync(ctx, store, in.ChatID, in.Text)
	}

	if n := chat.UserMessageCount() + 1; n%s.synthesisEvery == 0 {
		s.synthesizeAsync(ctx, store, in.ChatID)
	}

	log.Info("turn completed", "needs_help", out.NeedsHelp, "has_audio", out.Audio != nil)
	return out, nil
}

func (s *Service) beginTurn(id domain.ChatID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turning == nil {
		s.turning = make(map[domain.ChatID]bool)
	}
	if s.turning[id] {
		return false
	}
	s.turning[id] = true
	return true
}

func (s *Service) endTurn(id domain.ChatID) {
	s.mu.Lock()
	delete(s.turning, id)
	s.mu.Unlock()
}

// renameAsync performs the one-time title summarization. On failure the name
// falls back to a truncation of the raw user text.
func (s *Service) renameAsync(ctx context.Context, store *session.Store, chatID domain.ChatID, firstMessage string) {
	log := observability.LoggerFromContext(ctx).With("chat_id", chatID)
	go func() {
		bg := context.Background()
		title, err := s.gateway.SummarizeTitle(bg, firstMessage)
		if err != nil || strings.TrimSpace(title) == "" {
			log.Warn("title summarization failed, using truncation", "error", err)
			title = TruncateTitle(firstMessage)
		}
		if err := store.RenameChat(bg, chatID, strings.TrimSpace(title)); err != nil {
			log.Warn("rename failed", "error", err)
		}
	}()
}

// synthesizeAsync kicks a memory synthesis pass. It reads a consistent
// history snapshot and may overlap the next turn; the synthesizer itself
// guarantees at most one pass in flight per chat.
func (s *Service) synthesizeAsync(ctx context.Context, store *session.Store, chatID domain.ChatID) {
	history, err := store.History(chatID)
	if err != nil {
		return
	}
	in := domain.SynthesisInput{
		History:  history,
		LongTerm: store.LongTerm(),
		Journal:  store.ChatJournal(chatID),
	}
	observability.LoggerFromContext(ctx).Info("kicking memory synthesis", "chat_id", chatID)
	go func() {
		bg := context.Background()
		longTerm, journal, changed := s.synthesizer.Synthesize(bg, chatID, in)
		if !changed {
			return
		}
		store.SetLongTerm(bg, longTerm)
		store.SetChatJournal(bg, chatID, journal)
	}()
}

// CreateJournalEntry stores a user-initiated entry and runs the one-shot
// reflection call, which also refreshes the long-term context.
func (s *Service) CreateJournalEntry(
	ctx context.Context,
	profileID domain.ProfileID,
	shortTerm domain.ShortTermContext,
) (*domain.JournalEntry, error) {

	store := s.sessions.ForProfile(ctx, profileID)

	entry := &domain.JournalEntry{
		ID:        domain.JournalEntryID(uuid.NewString()),
		Date:      s.now(),
		ShortTerm: shortTerm,
	}

	reflection, longTerm := s.synthesizer.ReflectEntry(ctx, entry, store.LongTerm())
	if reflection != nil {
		entry.Reflection = reflection
		store.SetLongTerm(ctx, longTerm)
	}

	store.AppendJournalEntry(ctx, entry)
	return entry, nil
}

// TruncateTitle derives a fallback chat title from raw user text.
func TruncateTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.UntitledChatName
	}
	runes := []rune(text)
	if len(runes) <= titleMaxLen {
		return text
	}
	return strings.TrimSpace(string(runes[:titleMaxLen])) + "…"
}
