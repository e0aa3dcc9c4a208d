package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-care/aurelia/internal/domain"
)

func TestLongTermMergeKeepsPreviousOnEmptyFields(t *testing.T) {
	prev := &domain.LongTermContext{
		CoreThemes:        "work stress",
		PersonalityTraits: "reflective",
		ValuesAndGoals:    "family first",
		LifeDomains: domain.LifeDomains{
			Work:   "new manager, tense",
			Health: "sleeping poorly",
		},
	}

	out := prev.Merge(&domain.LongTermContext{
		CoreThemes: "work stress, easing",
		LifeDomains: domain.LifeDomains{
			Health: "sleep improving",
		},
	})

	assert.Equal(t, "work stress, easing", out.CoreThemes)
	assert.Equal(t, "sleep improving", out.LifeDomains.Health)

	// Fields the update left empty keep their previous values.
	assert.Equal(t, "reflective", out.PersonalityTraits)
	assert.Equal(t, "family first", out.ValuesAndGoals)
	assert.Equal(t, "new manager, tense", out.LifeDomains.Work)
}

func TestLongTermMergeNeverNullsAField(t *testing.T) {
	prev := &domain.LongTermContext{
		CoreThemes:        "grief",
		RecurringProblems: "isolation",
		MoodHistory:       "low, slowly improving",
	}

	out := prev.Merge(&domain.LongTermContext{})

	assert.Equal(t, *prev, *out)
}

func TestLongTermMergeNilReceiverAndUpdate(t *testing.T) {
	var prev *domain.LongTermContext

	out := prev.Merge(&domain.LongTermContext{CoreThemes: "new themes"})
	require.NotNil(t, out)
	assert.Equal(t, "new themes", out.CoreThemes)

	prev = &domain.LongTermContext{CoreThemes: "kept"}
	out = prev.Merge(nil)
	require.NotNil(t, out)
	assert.Equal(t, "kept", out.CoreThemes)
}

func TestLongTermMergeDoesNotMutateReceiver(t *testing.T) {
	prev := &domain.LongTermContext{CoreThemes: "original"}

	_ = prev.Merge(&domain.LongTermContext{CoreThemes: "changed"})

	assert.Equal(t, "original", prev.CoreThemes)
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := &domain.ProfileSnapshot{
		ProfileID:    "p1",
		ActiveChatID: "c1",
		Chats: []*domain.Chat{{
			ID:   "c1",
			Name: "First chat",
			Messages: []*domain.Message{
				{ID: "m1", Role: domain.RoleAssistant, Content: "hello"},
			},
		}},
		LongTerm: &domain.LongTermContext{CoreThemes: "themes"},
		ChatJournals: map[domain.ChatID]*domain.ChatJournal{
			"c1": {CopingStrategies: "walking"},
		},
		JournalEntries: []*domain.JournalEntry{{
			ID:         "j1",
			ShortTerm:  domain.ShortTermContext{Mood: "calm"},
			Reflection: &domain.Reflection{Summary: "s", Suggestions: []string{"a"}},
		}},
	}

	clone := snap.Clone()
	require.NotNil(t, clone)

	clone.Chats[0].Messages[0].Content = "mutated"
	clone.LongTerm.CoreThemes = "mutated"
	clone.ChatJournals["c1"].CopingStrategies = "mutated"
	clone.JournalEntries[0].Reflection.Suggestions[0] = "mutated"

	assert.Equal(t, "hello", snap.Chats[0].Messages[0].Content)
	assert.Equal(t, "themes", snap.LongTerm.CoreThemes)
	assert.Equal(t, "walking", snap.ChatJournals["c1"].CopingStrategies)
	assert.Equal(t, "a", snap.JournalEntries[0].Reflection.Suggestions[0])
}

func TestParseEmotionUnknownDegradesToNeutral(t *testing.T) {
	assert.Equal(t, domain.EmotionWarm, domain.ParseEmotion("warm"))
	assert.Equal(t, domain.EmotionNeutral, domain.ParseEmotion("furious"))
	assert.Equal(t, domain.EmotionNeutral, domain.ParseEmotion(""))
}
