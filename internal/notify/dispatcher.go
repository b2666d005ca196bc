package notify

import "context"

// SMSSender is the outbound SMS capability. Implemented by the Twilio client
// in infra; tests use mocks.
type SMSSender interface {
	Send(ctx context.Context, phone, text string) error
}

// Dispatcher delegates rendered messages to the SMS channel. It holds no
// retry logic: a failed send surfaces to the caller, which leaves the
// interaction in its pre-call status so a transport-level retry is safe.
type Dispatcher struct {
	SMS SMSSender
}

func NewDispatcher(sms SMSSender) *Dispatcher {
	return &Dispatcher{SMS: sms}
}

func (d *Dispatcher) Send(ctx context.Context, phone, text string) error {
	return d.SMS.Send(ctx, phone, text)
}
