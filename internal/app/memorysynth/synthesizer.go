// Package memorysynth folds conversation history into the two-tier memory
// model: the slowly drifting long-term context and the per-chat journal. One
// model call applies both update disciplines; the merge here guarantees that
// a failed or incomplete pass leaves the previous memory pair untouched.
package memorysynth

import (
	"context"
	"sync"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// Synthesizer runs synthesis passes and the journal reflection path, which is
// the second independent writer into the same long-term memory.
type Synthesizer struct {
	gateway domain.ModelGateway

	mu       sync.Mutex
	inFlight map[domain.ChatID]bool
}

func NewSynthesizer(gateway domain.ModelGateway) *Synthesizer {
	return &Synthesizer{
		gateway:  gateway,
		inFlight: make(map[domain.ChatID]bool),
	}
}

// Synthesize runs one pass for a chat. It returns the updated memory pair and
// whether anything changed. On a gateway failure, an incomplete result, or a
// pass already in flight for the same chat, the inputs are returned unchanged
// with changed=false; synthesis failures are silent and non-blocking.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	chatID domain.ChatID,
	in domain.SynthesisInput,
) (*domain.LongTermContext, *domain.ChatJournal, bool) {

	log := observability.LoggerFromContext(ctx).With("chat_id", chatID)

	s.mu.Lock()
	if s.inFlight[chatID] {
		s.mu.Unlock()
		log.Info("synthesis already in flight, skipping")
		return in.LongTerm, in.Journal, false
	}
	s.inFlight[chatID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, chatID)
		s.mu.Unlock()
	}()

	if len(in.History) == 0 {
		return in.LongTerm, in.Journal, false
	}

	res, err := s.gateway.Synthesize(ctx, in)
	if err != nil {
		log.Warn("synthesis pass failed, keeping previous memory", "error", err)
		return in.LongTerm, in.Journal, false
	}
	if res == nil {
		log.Warn("synthesis returned no result, keeping previous memory")
		return in.LongTerm, in.Journal, false
	}

	// Long-term fields drift: empty fields in the result keep their previous
	// value. The chat journal is recomputed wholesale, but an absent journal
	// counts as an incomplete shape and keeps the previous one.
	longTerm := in.LongTerm.Merge(res.LongTerm)
	journal := in.Journal
	if res.Journal != nil {
		journal = res.Journal
	}

	log.Info("synthesis pass completed")
	return longTerm, journal, true
}

// ReflectEntry runs the one-shot reflection call for a journal entry. The
// same call returns an updated long-term context, reconciled under the same
// synthesize-don't-replace merge. On failure the entry stays without a
// reflection and the long-term context is returned unchanged.
func (s *Synthesizer) ReflectEntry(
	ctx context.Context,
	entry *domain.JournalEntry,
	longTerm *domain.LongTermContext,
) (*domain.Reflection, *domain.LongTermContext) {

	log := observability.LoggerFromContext(ctx).With("journal_entry_id", entry.ID)

	reflection, update, err := s.gateway.Reflect(ctx, entry, longTerm)
	if err != nil {
		log.Warn("journal reflection failed, keeping previous memory", "error", err)
		return nil, longTerm
	}

	return reflection, longTerm.Merge(update)
}
