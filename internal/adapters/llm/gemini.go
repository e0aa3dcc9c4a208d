package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/aurelia-care/aurelia/internal/domain"
)

// GeminiGateway implements domain.ModelGateway on Vertex AI (Gemini).
type GeminiGateway struct {
	client     *genai.Client
	textModel  string
	titleModel string
}

// NewVertexClient creates the genai client the gateway and the speech
// synthesizer share.
func NewVertexClient(ctx context.Context, projectID, location string) (*genai.Client, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("vertex client requires project and location")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}
	return client, nil
}

// NewGeminiGateway creates the gateway on a shared genai client.
func NewGeminiGateway(client *genai.Client, textModel, titleModel string) *GeminiGateway {
	return &GeminiGateway{
		client:     client,
		textModel:  textModel,
		titleModel: titleModel,
	}
}

// turnContents maps a chat timeline onto genai contents, the new utterance
// last.
func turnContents(history []*domain.Message, utterance string) []*genai.Content {
	var contents []*genai.Content
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(utterance, genai.RoleUser))
}

// turnResponse is the structured shape the turn call asks the model for.
type turnResponse struct {
	Response        string `json:"response"`
	DetectedEmotion string `json:"detected_emotion,omitempty"`
	NeedsHelp       bool   `json:"needs_help,omitempty"`
}

var turnSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"response": {Type: genai.TypeString},
		"detected_emotion": {
			Type: genai.TypeString,
			Enum: []string{"neutral", "warm", "empathetic", "concerned", "encouraging", "calm"},
		},
		"needs_help": {Type: genai.TypeBoolean},
	},
	Required: []string{"response"},
}

// GenerateTurn implements the text-generation call: reply plus emotion and
// crisis detection in one structured response.
func (g *GeminiGateway) GenerateTurn(ctx context.Context, req domain.TurnRequest) (*domain.TurnReply, error) {
	contents := turnContents(req.History, req.Utterance)

	temp := float32(0.7)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildTurnSystemPrompt(req), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   int32(4096),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    turnSchema,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate turn: %w", err)
	}

	var parsed turnResponse
	if err := decodeJSON(res.Text(), &parsed); err != nil {
		return nil, fmt.Errorf("gemini turn response: %w", err)
	}
	if parsed.Response == "" {
		return nil, fmt.Errorf("gemini returned empty reply")
	}

	return &domain.TurnReply{
		Reply:     parsed.Response,
		Emotion:   domain.ParseEmotion(parsed.DetectedEmotion),
		NeedsHelp: parsed.NeedsHelp,
	}, nil
}

// SummarizeTitle names a chat from its first user message.
func (g *GeminiGateway) SummarizeTitle(ctx context.Context, firstMessage string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(titlePrompt, firstMessage), genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.titleModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini summarize title: %w", err)
	}

	title := strings.TrimSpace(res.Text())
	if title == "" {
		return "", fmt.Errorf("gemini returned empty title")
	}
	return title, nil
}

type synthesisResponse struct {
	LongTermContext *domain.LongTermContext `json:"long_term_context"`
	ChatJournal     *domain.ChatJournal     `json:"chat_journal"`
}

var longTermSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"core_themes": {Type: genai.TypeString},
		"life_domains": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"work":          {Type: genai.TypeString},
				"relationships": {Type: genai.TypeString},
				"health":        {Type: genai.TypeString},
				"family":        {Type: genai.TypeString},
			},
		},
		"personality_traits": {Type: genai.TypeString},
		"recurring_problems": {Type: genai.TypeString},
		"values_and_goals":   {Type: genai.TypeString},
		"mood_history":       {Type: genai.TypeString},
	},
}

var synthesisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"long_term_context": longTermSchema,
		"chat_journal": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"coping_strategies":   {Type: genai.TypeString},
				"progress_assessment": {Type: genai.TypeString},
			},
		},
	},
	Required: []string{"long_term_context", "chat_journal"},
}

// Synthesize runs one memory synthesis pass.
func (g *GeminiGateway) Synthesize(ctx context.Context, in domain.SynthesisInput) (*domain.SynthesisResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildSynthesisPrompt(in), genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(4096),
		ResponseMIMEType: "application/json",
		ResponseSchema:   synthesisSchema,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini synthesize: %w", err)
	}

	var parsed synthesisResponse
	if err := decodeJSON(res.Text(), &parsed); err != nil {
		return nil, fmt.Errorf("gemini synthesis response: %w", err)
	}

	return &domain.SynthesisResult{
		LongTerm: parsed.LongTermContext,
		Journal:  parsed.ChatJournal,
	}, nil
}

type reflectionResponse struct {
	Reflection      *domain.Reflection      `json:"reflection"`
	LongTermContext *domain.LongTermContext `json:"long_term_context"`
}

var reflectionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"reflection": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary":     {Type: genai.TypeString},
				"connection":  {Type: genai.TypeString},
				"insight":     {Type: genai.TypeString},
				"suggestions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"summary"},
		},
		"long_term_context": longTermSchema,
	},
	Required: []string{"reflection"},
}

// Reflect runs the journal reflection call.
func (g *GeminiGateway) Reflect(
	ctx context.Context,
	entry *domain.JournalEntry,
	longTerm *domain.LongTermContext,
) (*domain.Reflection, *domain.LongTermContext, error) {

	contents := []*genai.Content{
		genai.NewContentFromText(BuildReflectionPrompt(entry, longTerm), genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(4096),
		ResponseMIMEType: "application/json",
		ResponseSchema:   reflectionSchema,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini reflect: %w", err)
	}

	var parsed reflectionResponse
	if err := decodeJSON(res.Text(), &parsed); err != nil {
		return nil, nil, fmt.Errorf("gemini reflection response: %w", err)
	}
	if parsed.Reflection == nil {
		return nil, nil, fmt.Errorf("gemini returned no reflection")
	}

	return parsed.Reflection, parsed.LongTermContext, nil
}

// ComposeAlert writes the short emergency message for an escalation.
func (g *GeminiGateway) ComposeAlert(ctx context.Context, userName string) (string, error) {
	if userName == "" {
		userName = "the user"
	}
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(alertPrompt, userName, userName), genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.titleModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini compose alert: %w", err)
	}

	body := strings.TrimSpace(res.Text())
	if body == "" {
		return "", fmt.Errorf("gemini returned empty alert")
	}
	return body, nil
}

// decodeJSON parses a model response, tolerating markdown code fences around
// the JSON body.
func decodeJSON(raw string, v any) error {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal([]byte(cleaned), v)
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
