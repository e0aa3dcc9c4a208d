package domain

import "context"

// TurnRequest is everything the model needs to answer one user utterance.
type TurnRequest struct {
	StylePrompt string
	UserName    string
	Utterance   string
	History     []*Message
	LongTerm    *LongTermContext
	Journal     *ChatJournal
}

// TurnReply is the text-generation result. Emotion detection and crisis
// detection ride along on the same call.
type TurnReply struct {
	Reply     string
	Emotion   Emotion
	NeedsHelp bool
}

// SynthesisInput carries the conversation history plus the previous memory
// pair into one synthesis pass.
type SynthesisInput struct {
	History  []*Message
	LongTerm *LongTermContext
	Journal  *ChatJournal
}

// SynthesisResult is the model's proposed memory pair. Empty long-term fields
// mean "keep the previous value".
type SynthesisResult struct {
	LongTerm *LongTermContext
	Journal  *ChatJournal
}

// ModelGateway defines how the application talks to the hosted language
// model. Each call is asynchronous, may fail, and carries no retry guarantee
// from the provider.
type ModelGateway interface {
	// GenerateTurn produces the assistant reply for one utterance, including
	// detected emotion and the crisis flag.
	GenerateTurn(ctx context.Context, req TurnRequest) (*TurnReply, error)

	// SummarizeTitle names a chat from its first user message.
	SummarizeTitle(ctx context.Context, firstMessage string) (string, error)

	// Synthesize folds history plus the previous memory pair into an updated
	// pair, applying the two update disciplines in a single call.
	Synthesize(ctx context.Context, in SynthesisInput) (*SynthesisResult, error)

	// Reflect produces a reflection for a journal entry and, on the same call,
	// an updated long-term context.
	Reflect(ctx context.Context, entry *JournalEntry, longTerm *LongTermContext) (*Reflection, *LongTermContext, error)

	// ComposeAlert writes the short emergency message for a crisis escalation.
	ComposeAlert(ctx context.Context, userName string) (string, error)
}

// AudioPayload is a self-describing encoded audio result.
type AudioPayload struct {
	MIMEType string
	Data     []byte
}

// SpeechSynthesizer turns reply text into audio, conditioned on emotion.
type SpeechSynthesizer interface {
	Generate(ctx context.Context, text string, emotion Emotion) (*AudioPayload, error)
}

// MessageDeliverer sends a short message to a recipient. Implementations
// return ErrDeliveryFailure (wrapped) when the provider rejects the send.
type MessageDeliverer interface {
	Deliver(ctx context.Context, recipient, body string) error
}

// SnapshotStore persists profile snapshots keyed by profile id. Load must
// tolerate missing or malformed data and report it as an empty snapshot, never
// a fatal error.
type SnapshotStore interface {
	Load(ctx context.Context, id ProfileID) (*ProfileSnapshot, error)
	Save(ctx context.Context, id ProfileID, snap *ProfileSnapshot) error
	Profiles(ctx context.Context) ([]ProfileID, error)
}
