package domain

import "time"

// LifeDomains holds per-domain narrative notes inside the long-term context.
type LifeDomains struct {
	Work          string `json:"work,omitempty"`
	Relationships string `json:"relationships,omitempty"`
	Health        string `json:"health,omitempty"`
	Family        string `json:"family,omitempty"`
}

// LongTermContext is the durable, slowly-updated picture of a user across all
// of their chats. Every field except ValuesAndGoals is written exclusively by
// memory synthesis; ValuesAndGoals additionally accepts one direct user edit.
// Fields are monotonically refined: a synthesis pass receives the previous
// value and evolves it, never rewrites it from scratch.
type LongTermContext struct {
	CoreThemes        string      `json:"core_themes,omitempty"`
	LifeDomains       LifeDomains `json:"life_domains,omitempty"`
	PersonalityTraits string      `json:"personality_traits,omitempty"`
	RecurringProblems string      `json:"recurring_problems,omitempty"`
	ValuesAndGoals    string      `json:"values_and_goals,omitempty"`
	MoodHistory       string      `json:"mood_history,omitempty"`
}

// Merge folds an updated context into the previous one. An empty field in the
// update means "no significant new pattern, keep what we had": the merge
// never nulls a field out.
func (c *LongTermContext) Merge(update *LongTermContext) *LongTermContext {
	prev := c
	if prev == nil {
		prev = &LongTermContext{}
	}
	if update == nil {
		cp := *prev
		return &cp
	}
	out := *prev
	if update.CoreThemes != "" {
		out.CoreThemes = update.CoreThemes
	}
	if update.LifeDomains.Work != "" {
		out.LifeDomains.Work = update.LifeDomains.Work
	}
	if update.LifeDomains.Relationships != "" {
		out.LifeDomains.Relationships = update.LifeDomains.Relationships
	}
	if update.LifeDomains.Health != "" {
		out.LifeDomains.Health = update.LifeDomains.Health
	}
	if update.LifeDomains.Family != "" {
		out.LifeDomains.Family = update.LifeDomains.Family
	}
	if update.PersonalityTraits != "" {
		out.PersonalityTraits = update.PersonalityTraits
	}
	if update.RecurringProblems != "" {
		out.RecurringProblems = update.RecurringProblems
	}
	if update.ValuesAndGoals != "" {
		out.ValuesAndGoals = update.ValuesAndGoals
	}
	if update.MoodHistory != "" {
		out.MoodHistory = update.MoodHistory
	}
	return &out
}

// ChatJournal summarizes one chat only. Both fields are recomputed fresh on
// every synthesis pass; they have no meaning outside their session.
type ChatJournal struct {
	CopingStrategies   string `json:"coping_strategies,omitempty"`
	ProgressAssessment string `json:"progress_assessment,omitempty"`
}

// ShortTermContext is the user-entered snapshot inside a journal entry.
type ShortTermContext struct {
	Mood           string `json:"mood"`
	Events         string `json:"events,omitempty"`
	Concerns       string `json:"concerns,omitempty"`
	CopingAttempts string `json:"coping_attempts,omitempty"`
}

// Reflection is the model-produced response to a journal entry.
type Reflection struct {
	Summary     string   `json:"summary"`
	Connection  string   `json:"connection,omitempty"`
	Insight     string   `json:"insight,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// JournalEntry is a user-initiated entry independent of any chat.
type JournalEntry struct {
	ID         JournalEntryID   `json:"id"`
	Date       time.Time        `json:"date"`
	ShortTerm  ShortTermContext `json:"short_term_context"`
	Reflection *Reflection      `json:"reflection,omitempty"`
}

// ProfileSnapshot is the persistence unit: everything the service knows about
// one profile, written as a whole on every mutation.
type ProfileSnapshot struct {
	ProfileID      ProfileID                `json:"profile_id"`
	Chats          []*Chat                  `json:"chats"`
	ActiveChatID   ChatID                   `json:"active_chat_id"`
	LongTerm       *LongTermContext         `json:"long_term_context,omitempty"`
	ChatJournals   map[ChatID]*ChatJournal  `json:"chat_journals,omitempty"`
	JournalEntries []*JournalEntry          `json:"journal_entries,omitempty"`
}

// Clone returns a deep copy safe to hand to a persistence goroutine while the
// in-memory state keeps mutating.
func (s *ProfileSnapshot) Clone() *ProfileSnapshot {
	if s == nil {
		return nil
	}
	out := &ProfileSnapshot{
		ProfileID:    s.ProfileID,
		ActiveChatID: s.ActiveChatID,
	}
	out.Chats = make([]*Chat, len(s.Chats))
	for i, c := range s.Chats {
		out.Chats[i] = c.clone()
	}
	if s.LongTerm != nil {
		cp := *s.LongTerm
		out.LongTerm = &cp
	}
	if s.ChatJournals != nil {
		out.ChatJournals = make(map[ChatID]*ChatJournal, len(s.ChatJournals))
		for id, j := range s.ChatJournals {
			cp := *j
			out.ChatJournals[id] = &cp
		}
	}
	if s.JournalEntries != nil {
		out.JournalEntries = make([]*JournalEntry, len(s.JournalEntries))
		for i, e := range s.JournalEntries {
			cp := *e
			if e.Reflection != nil {
				r := *e.Reflection
				r.Suggestions = append([]string(nil), e.Reflection.Suggestions...)
				cp.Reflection = &r
			}
			out.JournalEntries[i] = &cp
		}
	}
	return out
}
