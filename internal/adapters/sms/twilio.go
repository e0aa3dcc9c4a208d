// Package sms delivers escalation messages through Twilio.
package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/aurelia-care/aurelia/internal/domain"
)

// Deliverer implements domain.MessageDeliverer on the Twilio REST API.
type Deliverer struct {
	client *twilio.RestClient
	from   string
}

// NewDeliverer requires all three secrets. A missing secret is a
// configuration error, not a delivery error; the escalation workflow treats
// the resulting nil deliverer as simulated mode.
func NewDeliverer(accountSID, authToken, fromNumber string) (*Deliverer, error) {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil, domain.ErrDeliveryConfig
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &Deliverer{
		client: client,
		from:   fromNumber,
	}, nil
}

// Deliver sends one SMS.
func (d *Deliverer) Deliver(ctx context.Context, recipient, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(d.from)
	params.SetBody(body)

	if _, err := d.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)
	}
	return nil
}
