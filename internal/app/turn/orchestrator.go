// Package turn drives the model calls needed to answer one user utterance:
// text generation with crisis inspection, then emotion-conditioned audio.
// The orchestrator has no storage side effects; message-log mutation stays
// with the caller so the pipeline is independently testable.
package turn

import (
	"context"
	"fmt"
	"time"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// Orchestrator sequences the gateway calls for a single turn.
type Orchestrator struct {
	gateway domain.ModelGateway
	speech  domain.SpeechSynthesizer // nil disables audio entirely
}

func NewOrchestrator(gateway domain.ModelGateway, speech domain.SpeechSynthesizer) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		speech:  speech,
	}
}

// Result is a displayable, speakable response to one utterance.
type Result struct {
	Text      string
	Emotion   domain.Emotion
	Audio     *domain.AudioPayload // nil when degraded to text-only
	NeedsHelp bool
}

// Run executes one turn. A text-generation failure is fatal to the turn and
// returned wrapped in ErrGenerationFailure. When the reply carries the crisis
// flag the result is returned immediately with no audio: a crisis reply must
// never wait on synthesis, and audio must never exist for one. An audio
// failure degrades the turn to text-only.
func (o *Orchestrator) Run(ctx context.Context, req domain.TurnRequest) (*Result, error) {
	log := observability.LoggerFromContext(ctx)

	start := time.Now()
	reply, err := o.gateway.GenerateTurn(ctx, req)
	if err != nil {
		log.Error("text generation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}
	log.Info("text generation completed",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"emotion", reply.Emotion,
		"needs_help", reply.NeedsHelp)

	if reply.NeedsHelp {
		return &Result{
			Text:      reply.Reply,
			Emotion:   reply.Emotion,
			NeedsHelp: true,
		}, nil
	}

	result := &Result{
		Text:    reply.Reply,
		Emotion: reply.Emotion,
	}

	if o.speech == nil {
		return result, nil
	}

	// Audio is the only pending work for the rest of the turn; await it here
	// rather than returning a half-finished result.
	type audioOutcome struct {
		payload *domain.AudioPayload
		err     error
	}
	done := make(chan audioOutcome, 1)
	go func() {
		payload, err := o.speech.Generate(ctx, reply.Reply, reply.Emotion)
		done <- audioOutcome{payload, err}
	}()

	out := <-done
	switch {
	case out.err != nil:
		log.Warn("audio generation failed, degrading to text-only", "error", out.err)
	case out.payload == nil || len(out.payload.Data) == 0:
		log.Warn("audio generation returned empty payload, degrading to text-only")
	default:
		result.Audio = out.payload
	}

	return result, nil
}
