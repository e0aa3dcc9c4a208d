package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurelia-care/aurelia/internal/domain"
)

// crisisMarkers is a deliberately blunt keyword list: the mock only needs to
// exercise the escalation path in local mode, not detect crises well.
var crisisMarkers = []string{
	"hopeless",
	"give up",
	"hurt myself",
	"kill myself",
	"suicide",
	"end it all",
}

// MockGateway is an offline stand-in for the Gemini gateway, used in local
// mode and in tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) GenerateTurn(ctx context.Context, req domain.TurnRequest) (*domain.TurnReply, error) {
	lower := strings.ToLower(req.Utterance)
	for _, marker := range crisisMarkers {
		if strings.Contains(lower, marker) {
			return &domain.TurnReply{
				Reply: "I'm really glad you told me. What you're feeling matters, and you don't have to face it alone. " +
					"Please consider reaching out right now to someone you trust or to your local emergency services.",
				Emotion:   domain.EmotionConcerned,
				NeedsHelp: true,
			}, nil
		}
	}

	return &domain.TurnReply{
		Reply:   fmt.Sprintf("I hear you. You said %q. Tell me a bit more about how that feels.", req.Utterance),
		Emotion: domain.EmotionWarm,
	}, nil
}

func (m *MockGateway) SummarizeTitle(ctx context.Context, firstMessage string) (string, error) {
	words := strings.Fields(firstMessage)
	if len(words) > 5 {
		words = words[:5]
	}
	if len(words) == 0 {
		return "New conversation", nil
	}
	return strings.Join(words, " "), nil
}

func (m *MockGateway) Synthesize(ctx context.Context, in domain.SynthesisInput) (*domain.SynthesisResult, error) {
	var topics []string
	for _, msg := range in.History {
		if msg.Role == domain.RoleUser {
			topics = append(topics, msg.Content)
		}
	}
	return &domain.SynthesisResult{
		LongTerm: &domain.LongTermContext{},
		Journal: &domain.ChatJournal{
			CopingStrategies:   "Talking things through.",
			ProgressAssessment: fmt.Sprintf("The user raised %d topic(s) this session.", len(topics)),
		},
	}, nil
}

func (m *MockGateway) Reflect(
	ctx context.Context,
	entry *domain.JournalEntry,
	longTerm *domain.LongTermContext,
) (*domain.Reflection, *domain.LongTermContext, error) {
	return &domain.Reflection{
		Summary:     fmt.Sprintf("You noted feeling %s.", entry.ShortTerm.Mood),
		Insight:     "Writing things down is already a step toward understanding them.",
		Suggestions: []string{"Take a short walk today.", "Check in with yourself again tomorrow."},
	}, &domain.LongTermContext{}, nil
}

func (m *MockGateway) ComposeAlert(ctx context.Context, userName string) (string, error) {
	if userName == "" {
		userName = "someone you know"
	}
	return fmt.Sprintf(
		"This is an automated message from the Aurelia support companion.\n"+
			"%s may be going through a serious emotional crisis.\n"+
			"Please reach out to them as soon as you can.\n"+
			"Your support right now could make a real difference.", userName), nil
}
