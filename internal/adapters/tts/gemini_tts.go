// Package tts implements speech synthesis on the Gemini TTS models.
package tts

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/aurelia-care/aurelia/internal/domain"
)

// Synthesizer implements domain.SpeechSynthesizer.
type Synthesizer struct {
	client *genai.Client
	model  string
	voice  string
}

func NewSynthesizer(client *genai.Client, model, voice string) *Synthesizer {
	return &Synthesizer{
		client: client,
		model:  model,
		voice:  voice,
	}
}

// deliveryStyle maps a detected emotion to a spoken-style instruction. The
// TTS models take delivery direction as natural language ahead of the text.
func deliveryStyle(emotion domain.Emotion) string {
	switch emotion {
	case domain.EmotionWarm:
		return "Say warmly and gently"
	case domain.EmotionEmpathetic:
		return "Say softly, with empathy"
	case domain.EmotionConcerned:
		return "Say slowly and seriously, with care"
	case domain.EmotionEncouraging:
		return "Say brightly and encouragingly"
	case domain.EmotionCalm:
		return "Say in a calm, even voice"
	default:
		return "Say naturally"
	}
}

// Generate produces an audio payload for the reply text. The payload is
// self-describing: the mime type travels with the bytes.
func (s *Synthesizer) Generate(ctx context.Context, text string, emotion domain.Emotion) (*domain.AudioPayload, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf("%s: %s", deliveryStyle(emotion), text), genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.voice,
				},
			},
		},
	}

	res, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini tts: %w", err)
	}

	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.AudioPayload{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("gemini tts returned no audio")
}
