// Package session owns the set of chats for one profile: their ordered
// message logs and their lifecycle. All operations are synchronous against
// in-memory state; persistence is a fire-and-forget side effect on every
// mutation and never part of an operation's success contract.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// GreetingText is the fixed assistant greeting every new chat opens with.
const GreetingText = "Hi, I'm Aurelia. I'm here to listen. What's on your mind today?"

// Store is the single writer for one profile's chats, chat journals,
// long-term context and journal entries.
type Store struct {
	mu sync.Mutex

	profileID domain.ProfileID
	chats     []*domain.Chat // most recent first
	activeID  domain.ChatID
	longTerm  *domain.LongTermContext
	journals  map[domain.ChatID]*domain.ChatJournal
	entries   []*domain.JournalEntry

	snapshots domain.SnapshotStore
	now       func() time.Time
}

// NewStore builds a store from a loaded snapshot. A nil or empty snapshot is
// "no data yet": the store starts with one fresh chat so that "no active
// chat" is never observable.
func NewStore(profileID domain.ProfileID, snap *domain.ProfileSnapshot, snapshots domain.SnapshotStore) *Store {
	s := &Store{
		profileID: profileID,
		journals:  make(map[domain.ChatID]*domain.ChatJournal),
		snapshots: snapshots,
		now:       time.Now,
	}
	if snap != nil {
		s.chats = snap.Chats
		s.activeID = snap.ActiveChatID
		s.longTerm = snap.LongTerm
		for id, j := range snap.ChatJournals {
			s.journals[id] = j
		}
		s.entries = snap.JournalEntries
	}
	if len(s.chats) == 0 {
		chat := s.newChatLocked()
		s.chats = []*domain.Chat{chat}
		s.activeID = chat.ID
	}
	if !s.hasChatLocked(s.activeID) {
		s.activeID = s.chats[0].ID
	}
	return s
}

func (s *Store) newChatLocked() *domain.Chat {
	now := s.now()
	return &domain.Chat{
		ID:        domain.ChatID(uuid.NewString()),
		Name:      domain.UntitledChatName,
		CreatedAt: now,
		Messages: []*domain.Message{{
			ID:        domain.MessageID(uuid.NewString()),
			Role:      domain.RoleAssistant,
			Content:   GreetingText,
			CreatedAt: now,
		}},
	}
}

func (s *Store) hasChatLocked(id domain.ChatID) bool {
	for _, c := range s.chats {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) chatLocked(id domain.ChatID) (*domain.Chat, bool) {
	for _, c := range s.chats {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// CreateChat prepends a new chat with the fixed greeting, makes it active and
// returns its id.
func (s *Store) CreateChat(ctx context.Context) domain.ChatID {
	s.mu.Lock()
	chat := s.newChatLocked()
	s.chats = append([]*domain.Chat{chat}, s.chats...)
	s.activeID = chat.ID
	s.mu.Unlock()

	s.persist(ctx)
	return chat.ID
}

// DeleteChat removes a chat and its journal. When the deleted chat was
// active, the most recent remaining chat becomes active; when none remain, a
// fresh chat is synthesized.
func (s *Store) DeleteChat(ctx context.Context, id domain.ChatID) error {
	s.mu.Lock()
	idx := -1
	for i, c := range s.chats {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrChatNotFound
	}
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	delete(s.journals, id)

	if s.activeID == id {
		if len(s.chats) == 0 {
			chat := s.newChatLocked()
			s.chats = []*domain.Chat{chat}
		}
		s.activeID = s.chats[0].ID
	}
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// AppendMessage appends to a chat's timeline. Append-only: prior messages are
// never reordered or mutated.
func (s *Store) AppendMessage(ctx context.Context, chatID domain.ChatID, msg *domain.Message) error {
	s.mu.Lock()
	chat, ok := s.chatLocked(chatID)
	if !ok {
		s.mu.Unlock()
		return domain.ErrChatNotFound
	}
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	chat.Messages = append(chat.Messages, msg)
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// RenameChat sets the chat name. Used exactly once, by title summarization.
func (s *Store) RenameChat(ctx context.Context, chatID domain.ChatID, name string) error {
	s.mu.Lock()
	chat, ok := s.chatLocked(chatID)
	if !ok {
		s.mu.Unlock()
		return domain.ErrChatNotFound
	}
	chat.Name = name
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// ActiveChatID returns the id of the single active chat.
func (s *Store) ActiveChatID() domain.ChatID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SetActiveChat selects an existing chat.
func (s *Store) SetActiveChat(ctx context.Context, id domain.ChatID) error {
	s.mu.Lock()
	if !s.hasChatLocked(id) {
		s.mu.Unlock()
		return domain.ErrChatNotFound
	}
	s.activeID = id
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// Chat returns a copy of one chat's current state.
func (s *Store) Chat(id domain.ChatID) (*domain.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chatLocked(id)
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	return cloneChat(chat), nil
}

// Chats lists all chats, most recent first.
func (s *Store) Chats() []*domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = cloneChat(c)
	}
	return out
}

// History returns a consistent copy of a chat's message log, safe to read
// while later turns keep appending.
func (s *Store) History(id domain.ChatID) ([]*domain.Message, error) {
	chat, err := s.Chat(id)
	if err != nil {
		return nil, err
	}
	return chat.Messages, nil
}

// LongTerm returns a copy of the profile's long-term context.
func (s *Store) LongTerm() *domain.LongTermContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.longTerm == nil {
		return &domain.LongTermContext{}
	}
	cp := *s.longTerm
	return &cp
}

// SetLongTerm replaces the long-term context with a synthesized evolution of
// it. Only memory synthesis and the journal reflection path call this.
func (s *Store) SetLongTerm(ctx context.Context, lt *domain.LongTermContext) {
	s.mu.Lock()
	s.longTerm = lt
	s.mu.Unlock()

	s.persist(ctx)
}

// SetValues applies the one field users may edit directly.
func (s *Store) SetValues(ctx context.Context, values string) {
	s.mu.Lock()
	if s.longTerm == nil {
		s.longTerm = &domain.LongTermContext{}
	}
	s.longTerm.ValuesAndGoals = values
	s.mu.Unlock()

	s.persist(ctx)
}

// ChatJournal returns a copy of the journal for one chat.
func (s *Store) ChatJournal(id domain.ChatID) *domain.ChatJournal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.journals[id]; ok {
		cp := *j
		return &cp
	}
	return &domain.ChatJournal{}
}

// SetChatJournal replaces a chat's journal with the freshly recomputed one.
func (s *Store) SetChatJournal(ctx context.Context, id domain.ChatID, j *domain.ChatJournal) {
	s.mu.Lock()
	s.journals[id] = j
	s.mu.Unlock()

	s.persist(ctx)
}

// AppendJournalEntry stores a user-initiated journal entry.
func (s *Store) AppendJournalEntry(ctx context.Context, entry *domain.JournalEntry) {
	s.mu.Lock()
	if entry.ID == "" {
		entry.ID = domain.JournalEntryID(uuid.NewString())
	}
	if entry.Date.IsZero() {
		entry.Date = s.now()
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.persist(ctx)
}

// JournalEntries lists journal entries, oldest first.
func (s *Store) JournalEntries() []*domain.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.JournalEntry(nil), s.entries...)
}

// Snapshot builds a deep copy of the whole profile state.
func (s *Store) Snapshot() *domain.ProfileSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *domain.ProfileSnapshot {
	snap := &domain.ProfileSnapshot{
		ProfileID:      s.profileID,
		Chats:          s.chats,
		ActiveChatID:   s.activeID,
		LongTerm:       s.longTerm,
		ChatJournals:   s.journals,
		JournalEntries: s.entries,
	}
	return snap.Clone()
}

// persist writes the current snapshot in the background. A write failure is
// logged and ignored: the in-memory state stays authoritative for the
// process lifetime.
func (s *Store) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("profile_id", s.profileID)
	go func() {
		if err := s.snapshots.Save(context.Background(), s.profileID, snap); err != nil {
			log.Warn("snapshot write failed", "error", err)
		}
	}()
}

func cloneChat(c *domain.Chat) *domain.Chat {
	out := &domain.Chat{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		Messages:  make([]*domain.Message, len(c.Messages)),
	}
	for i, m := range c.Messages {
		cp := *m
		out.Messages[i] = &cp
	}
	return out
}
