package domain

import "time"

type ProfileID string
type ChatID string
type MessageID string
type JournalEntryID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Emotion tags a generated reply so speech synthesis can match its delivery.
// The text model's choice is advisory; unknown values degrade to neutral.
type Emotion string

const (
	EmotionNeutral     Emotion = "neutral"
	EmotionWarm        Emotion = "warm"
	EmotionEmpathetic  Emotion = "empathetic"
	EmotionConcerned   Emotion = "concerned"
	EmotionEncouraging Emotion = "encouraging"
	EmotionCalm        Emotion = "calm"
)

// ParseEmotion maps a model-provided tag onto the closed vocabulary.
func ParseEmotion(s string) Emotion {
	switch Emotion(s) {
	case EmotionWarm, EmotionEmpathetic, EmotionConcerned, EmotionEncouraging, EmotionCalm:
		return Emotion(s)
	default:
		return EmotionNeutral
	}
}

type Timestamp = time.Time
