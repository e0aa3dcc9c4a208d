package escalation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-care/aurelia/internal/app/escalation"
	"github.com/aurelia-care/aurelia/internal/domain"
)

type stubGateway struct {
	alert string
	err   error
}

func (s *stubGateway) GenerateTurn(ctx context.Context, req domain.TurnRequest) (*domain.TurnReply, error) {
	return nil, nil
}

func (s *stubGateway) SummarizeTitle(ctx context.Context, firstMessage string) (string, error) {
	return "", nil
}

func (s *stubGateway) Synthesize(ctx context.Context, in domain.SynthesisInput) (*domain.SynthesisResult, error) {
	return nil, nil
}

func (s *stubGateway) Reflect(ctx context.Context, entry *domain.JournalEntry, lt *domain.LongTermContext) (*domain.Reflection, *domain.LongTermContext, error) {
	return nil, nil, nil
}

func (s *stubGateway) ComposeAlert(ctx context.Context, userName string) (string, error) {
	return s.alert, s.err
}

type stubDeliverer struct {
	err       error
	recipient string
	body      string
	calls     int
}

func (s *stubDeliverer) Deliver(ctx context.Context, recipient, body string) error {
	s.calls++
	s.recipient = recipient
	s.body = body
	return s.err
}

func TestEscalateWithoutDelivererSimulatesSend(t *testing.T) {
	svc := escalation.NewService(&stubGateway{alert: "Please check on Ana."}, nil, "")

	res := svc.Escalate(context.Background(), "Ana")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not configured")
	assert.Equal(t, "Please check on Ana.", res.Body)
}

func TestEscalateDeliversToContact(t *testing.T) {
	deliverer := &stubDeliverer{}
	svc := escalation.NewService(&stubGateway{alert: "Please check on Ana."}, deliverer, "+15550001111")

	res := svc.Escalate(context.Background(), "Ana")

	assert.True(t, res.Success)
	require.Equal(t, 1, deliverer.calls)
	assert.Equal(t, "+15550001111", deliverer.recipient)
	assert.Equal(t, "Please check on Ana.", deliverer.body)
}

func TestEscalateDeliveryFailureIsReportedNotReturned(t *testing.T) {
	deliverer := &stubDeliverer{err: errors.New("provider rejected")}
	svc := escalation.NewService(&stubGateway{alert: "alert"}, deliverer, "+15550001111")

	res := svc.Escalate(context.Background(), "Ana")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "could not be delivered")
}

func TestEscalateCompositionFailureFallsBackToFixedBody(t *testing.T) {
	deliverer := &stubDeliverer{}
	svc := escalation.NewService(&stubGateway{err: errors.New("model down")}, deliverer, "+15550001111")

	res := svc.Escalate(context.Background(), "Ana")

	assert.True(t, res.Success)
	assert.NotEmpty(t, deliverer.body)
	assert.Contains(t, deliverer.body, "automated message")
}

func TestEscalateSanitizesComposedBody(t *testing.T) {
	gateway := &stubGateway{
		alert: "Please call 911 or +1 (555) 000-1111 now, or visit https://example.com/help for resources.",
	}
	deliverer := &stubDeliverer{}
	svc := escalation.NewService(gateway, deliverer, "+15550001111")

	svc.Escalate(context.Background(), "Ana")

	assert.NotContains(t, deliverer.body, "https://")
	assert.NotContains(t, deliverer.body, "555")
}

func TestSanitizeStripsLinksAndNumbers(t *testing.T) {
	in := "Reach them at +34 612 345 678.\nMore at www.example.com/crisis and http://help.org.\nStay close."
	out := escalation.Sanitize(in)

	assert.NotContains(t, out, "612")
	assert.NotContains(t, out, "www.")
	assert.NotContains(t, out, "http://")
	assert.Contains(t, out, "Stay close.")
}

func TestSanitizeKeepsSmallNumbersInProse(t *testing.T) {
	out := escalation.Sanitize("They mentioned it 3 times in 2 days.")
	assert.Equal(t, "They mentioned it 3 times in 2 days.", out)
}
