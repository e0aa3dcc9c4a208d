// Package escalation composes and attempts delivery of an emergency
// notification to a designated contact when a turn raises the crisis flag.
// The workflow never propagates an error past its boundary: the chat has to
// stay responsive even when escalation cannot be delivered.
package escalation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// fallbackBody is used when the composition call itself fails. It satisfies
// the same constraints as a composed message: short, names nobody's numbers,
// discloses automation.
const fallbackBody = "This is an automated message from the Aurelia support companion. " +
	"Someone you know may be going through a difficult moment and could use your support. " +
	"Please reach out to them as soon as you can."

var (
	linkPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	// Seven or more digits with optional separators. Long enough to spare
	// ordinary small numbers in prose.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{5,}\d`)
)

// Service runs the escalation workflow.
type Service struct {
	gateway   domain.ModelGateway
	deliverer domain.MessageDeliverer // nil when credentials are absent
	contact   string
}

func NewService(gateway domain.ModelGateway, deliverer domain.MessageDeliverer, contact string) *Service {
	return &Service{
		gateway:   gateway,
		deliverer: deliverer,
		contact:   contact,
	}
}

// Result is the structured outcome of one escalation attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Body    string `json:"-"`
}

// Escalate composes the emergency message and attempts delivery. Composition
// always succeeds (falling back to a fixed body); delivery problems are
// reported in the result, never returned.
func (s *Service) Escalate(ctx context.Context, userName string) Result {
	log := observability.LoggerFromContext(ctx).With("user_name", userName)

	body, err := s.gateway.ComposeAlert(ctx, userName)
	if err != nil || strings.TrimSpace(body) == "" {
		log.Warn("alert composition failed, using fixed body", "error", err)
		body = fallbackBody
	}
	body = Sanitize(body)

	if s.deliverer == nil || s.contact == "" {
		log.Info("escalation delivery not configured, simulating send", "body", body)
		return Result{
			Success: false,
			Message: "Emergency contact delivery is not configured. The alert was composed but not sent.",
			Body:    body,
		}
	}

	if err := s.deliverer.Deliver(ctx, s.contact, body); err != nil {
		log.Error("escalation delivery failed", "error", err)
		return Result{
			Success: false,
			Message: "The alert could not be delivered to the emergency contact.",
			Body:    body,
		}
	}

	log.Info("escalation delivered")
	return Result{
		Success: true,
		Message: fmt.Sprintf("An alert was sent to %s.", s.contact),
		Body:    body,
	}
}

// Sanitize strips links and phone-number-like sequences from a composed
// alert. The generation prompt already forbids them; this enforces the
// property instead of merely requesting it.
func Sanitize(body string) string {
	body = linkPattern.ReplaceAllString(body, "")
	body = phonePattern.ReplaceAllString(body, "")
	// Collapse whitespace the removals left behind, preserving line breaks.
	lines := strings.Split(body, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
