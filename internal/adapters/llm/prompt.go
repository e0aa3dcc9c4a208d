package llm

import (
	"fmt"
	"strings"

	"github.com/aurelia-care/aurelia/internal/domain"
)

const baseSystemPrompt = `
You are "Aurelia", an AI counseling companion focused on emotional well-being.

Your role:
- You listen with empathy and without judgment.
- You help the user name what they feel and find small, realistic next steps.
- You are NOT a therapist, doctor, or emergency service and you do NOT give medical or psychiatric diagnoses.

General style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Be concise: a few short paragraphs at most.
- Use simple, everyday language, not clinical jargon.
- Reflect back what you understood before giving suggestions.

Boundaries and safety:
- If the user expresses intent to harm themselves or others, or describes being in immediate danger, set "needs_help" to true and respond with calm, direct support that encourages reaching out to emergency services or a trusted person.
- Never give instructions on how to self-harm or harm others.
`

// defaultStylePrompt is used when the caller supplies no persona text.
const defaultStylePrompt = `Keep a warm, grounded, validating tone.`

const emotionInstruction = `
For every reply, also classify the emotional tone your reply should be spoken
with as "detected_emotion", one of: neutral, warm, empathetic, concerned,
encouraging, calm.`

const synthesisPrompt = `
You maintain two kinds of memory about a counseling user and must update both
from the conversation below, with different disciplines:

LONG-TERM CONTEXT (slowly drifting, spans all conversations):
- Fields: core_themes, life_domains (work, relationships, health, family),
  personality_traits, recurring_problems, values_and_goals, mood_history.
- Update a field ONLY when this conversation reveals a significant, recurring
  pattern. Evolve the previous value; never discard information it holds.
- When a field has nothing significant to add, return it as an empty string.

CHAT JOURNAL (this conversation only):
- Fields: coping_strategies (suggestions discussed in this chat),
  progress_assessment (how the user seems to be doing in this chat).
- Always rewrite both fields fresh from the visible conversation.

Return ONLY a valid JSON object with "long_term_context" and "chat_journal".`

const reflectionPrompt = `
The user wrote a journal entry. Produce a reflection with these fields:
- "summary": a short, validating restatement of what they recorded.
- "connection": how this entry relates to what you know about them long-term.
- "insight": one gentle observation that might help.
- "suggestions": 1-3 small, concrete things they could try.

Also return "long_term_context" updated under the usual discipline: evolve a
field only when the entry reveals a significant, recurring pattern, otherwise
return it as an empty string.

Return ONLY a valid JSON object with "reflection" and "long_term_context".`

const titlePrompt = `Summarize this message as a chat title of at most five words.
Return only the title, no quotes, no punctuation at the end.

Message: %s`

const alertPrompt = `Compose a short emergency notification (4 to 5 lines) to be sent
by SMS to a trusted contact of a person named %s.

Requirements:
- Say that %s may be going through a serious emotional crisis.
- Urge the contact to reach out to them as soon as possible.
- State clearly that this is an automated message from the Aurelia support companion.
- Do NOT include any phone numbers, links, or URLs.
- Calm, serious tone. No greetings or signatures.`

// BuildTurnSystemPrompt assembles the system instruction for one turn:
// persona text, safety base, and the user's accumulated memory.
func BuildTurnSystemPrompt(req domain.TurnRequest) string {
	style := strings.TrimSpace(req.StylePrompt)
	if style == "" {
		style = defaultStylePrompt
	}

	var sb strings.Builder
	sb.WriteString(baseSystemPrompt)
	sb.WriteString("\nPersona for this conversation:\n")
	sb.WriteString(style)
	sb.WriteString("\n")
	sb.WriteString(emotionInstruction)

	if req.UserName != "" {
		fmt.Fprintf(&sb, "\nThe user's name is %s.\n", req.UserName)
	}

	if memory := formatLongTerm(req.LongTerm); memory != "" {
		sb.WriteString("\nWhat you know about the user from previous conversations:\n")
		sb.WriteString(memory)
	}
	if journal := formatJournal(req.Journal); journal != "" {
		sb.WriteString("\nNotes from this conversation so far:\n")
		sb.WriteString(journal)
	}

	return sb.String()
}

// BuildSynthesisPrompt renders the synthesis instruction plus the previous
// memory pair and the conversation to fold in.
func BuildSynthesisPrompt(in domain.SynthesisInput) string {
	var sb strings.Builder
	sb.WriteString(synthesisPrompt)
	sb.WriteString("\n\nPrevious long-term context:\n")
	sb.WriteString(formatLongTerm(in.LongTerm))
	sb.WriteString("\nPrevious chat journal:\n")
	sb.WriteString(formatJournal(in.Journal))
	sb.WriteString("\nConversation:\n")
	sb.WriteString(formatHistory(in.History))
	return sb.String()
}

// BuildReflectionPrompt renders the journal reflection instruction plus the
// entry and the previous long-term context.
func BuildReflectionPrompt(entry *domain.JournalEntry, longTerm *domain.LongTermContext) string {
	var sb strings.Builder
	sb.WriteString(reflectionPrompt)
	sb.WriteString("\n\nJournal entry:\n")
	fmt.Fprintf(&sb, "- mood: %s\n", entry.ShortTerm.Mood)
	if entry.ShortTerm.Events != "" {
		fmt.Fprintf(&sb, "- events: %s\n", entry.ShortTerm.Events)
	}
	if entry.ShortTerm.Concerns != "" {
		fmt.Fprintf(&sb, "- concerns: %s\n", entry.ShortTerm.Concerns)
	}
	if entry.ShortTerm.CopingAttempts != "" {
		fmt.Fprintf(&sb, "- coping attempts: %s\n", entry.ShortTerm.CopingAttempts)
	}
	sb.WriteString("\nPrevious long-term context:\n")
	sb.WriteString(formatLongTerm(longTerm))
	return sb.String()
}

func formatLongTerm(lt *domain.LongTermContext) string {
	if lt == nil {
		return "(nothing yet)\n"
	}
	var sb strings.Builder
	writeField(&sb, "core themes", lt.CoreThemes)
	writeField(&sb, "work", lt.LifeDomains.Work)
	writeField(&sb, "relationships", lt.LifeDomains.Relationships)
	writeField(&sb, "health", lt.LifeDomains.Health)
	writeField(&sb, "family", lt.LifeDomains.Family)
	writeField(&sb, "personality traits", lt.PersonalityTraits)
	writeField(&sb, "recurring problems", lt.RecurringProblems)
	writeField(&sb, "values and goals", lt.ValuesAndGoals)
	writeField(&sb, "mood history", lt.MoodHistory)
	if sb.Len() == 0 {
		return "(nothing yet)\n"
	}
	return sb.String()
}

func formatJournal(j *domain.ChatJournal) string {
	if j == nil {
		return ""
	}
	var sb strings.Builder
	writeField(&sb, "coping strategies discussed", j.CopingStrategies)
	writeField(&sb, "progress assessment", j.ProgressAssessment)
	return sb.String()
}

func formatHistory(history []*domain.Message) string {
	var sb strings.Builder
	for _, m := range history {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "assistant"
		}
		sb.WriteString(role + ": " + m.Content + "\n")
	}
	return sb.String()
}

func writeField(sb *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	sb.WriteString("- " + name + ": " + value + "\n")
}
