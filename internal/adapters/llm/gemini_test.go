package llm

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/aurelia-care/aurelia/internal/domain"
)

func TestTurnContentsMapsRolesAndAppendsUtterance(t *testing.T) {
	history := []*domain.Message{
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "hi"},
	}

	contents := turnContents(history, "how are you")

	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	if contents[0].Role != genai.RoleModel {
		t.Fatalf("assistant messages must map to the model role, got %q", contents[0].Role)
	}
	if contents[1].Role != genai.RoleUser {
		t.Fatalf("user messages must map to the user role, got %q", contents[1].Role)
	}
	if contents[2].Role != genai.RoleUser {
		t.Fatalf("the new utterance must be sent as the user, got %q", contents[2].Role)
	}
	if got := contents[2].Parts[0].Text; got != "how are you" {
		t.Fatalf("unexpected utterance text %q", got)
	}
}

func TestDecodeJSONStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"response\":\"hi\",\"detected_emotion\":\"warm\",\"needs_help\":false}\n```"

	var out struct {
		Response string `json:"response"`
		Emotion  string `json:"detected_emotion"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		t.Fatalf("decodeJSON failed: %v", err)
	}
	if out.Response != "hi" || out.Emotion != "warm" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestDecodeJSONPlainBody(t *testing.T) {
	var out map[string]string
	if err := decodeJSON(`{"a":"b"}`, &out); err != nil {
		t.Fatalf("decodeJSON failed: %v", err)
	}
	if out["a"] != "b" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestDecodeJSONEmpty(t *testing.T) {
	var out map[string]string
	if err := decodeJSON("   ", &out); err == nil {
		t.Fatalf("expected an error for an empty body")
	}
}

func TestMockGatewayFlagsCrisisUtterances(t *testing.T) {
	gw := NewMockGateway()
	ctx := context.Background()

	reply, err := gw.GenerateTurn(ctx, domain.TurnRequest{Utterance: "I want to give up on everything"})
	if err != nil {
		t.Fatalf("GenerateTurn failed: %v", err)
	}
	if !reply.NeedsHelp {
		t.Fatalf("expected the crisis flag")
	}
	if reply.Emotion != domain.EmotionConcerned {
		t.Fatalf("expected a concerned reply, got %s", reply.Emotion)
	}

	reply, err = gw.GenerateTurn(ctx, domain.TurnRequest{Utterance: "I had a nice walk"})
	if err != nil {
		t.Fatalf("GenerateTurn failed: %v", err)
	}
	if reply.NeedsHelp {
		t.Fatalf("ordinary utterance must not raise the crisis flag")
	}
}

func TestMockGatewayTitleKeepsFiveWords(t *testing.T) {
	gw := NewMockGateway()

	title, err := gw.SummarizeTitle(context.Background(), "one two three four five six seven")
	if err != nil {
		t.Fatalf("SummarizeTitle failed: %v", err)
	}
	if title != "one two three four five" {
		t.Fatalf("unexpected title %q", title)
	}
}
