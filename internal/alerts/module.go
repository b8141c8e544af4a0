package alerts

import (
	"context"
	"fmt"

	"sms_chatbot_backend/internal/events"
	"sms_chatbot_backend/platform/logger"
)

// Module subscribes to submission failure events and emails ops.
type Module struct {
	sender Sender
	log    *logger.Logger
}

// NewModule creates the alerts module. Call Subscribe to attach it to a bus.
func NewModule(sender Sender, log *logger.Logger) *Module {
	return &Module{sender: sender, log: log}
}

// Subscribe registers the module's event handlers on the bus.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.ReportbackSubmissionFailed{}.EventName(), events.HandlerFunc(m.onSubmissionFailed))
}

func (m *Module) onSubmissionFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(events.ReportbackSubmissionFailed)
	if !ok {
		return nil
	}

	// Transient transport failures retry on their own; only terminal and
	// resolution failures need a human.
	if failed.Reason == "transport" {
		return nil
	}

	subject := fmt.Sprintf("reportback submission failed: %s (%s)", failed.Campaign, failed.Reason)
	body := fmt.Sprintf(
		"Campaign:  %s\nPhone:     %s\nReason:    %s\nRetryable: %t\nDetail:    %s\n",
		failed.Campaign, failed.Phone, failed.Reason, failed.Retryable, failed.Detail,
	)

	if err := m.sender.Send(ctx, subject, body); err != nil {
		m.log.Error("alert email failed", "error", err, "campaign", failed.Campaign)
	}
	return nil
}
