package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"hrflow/internal/audit"
	"hrflow/internal/mailer"
	"hrflow/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeNotifications drains the notification topic and delivers each
// event as an email. A failed send is committed anyway after recording a
// notification_failed audit entry; the originating state change already
// happened and must not be disturbed.
func ConsumeNotifications(
	ctx context.Context,
	reader *kafkago.Reader,
	m mailer.Mailer,
	recorder audit.Recorder,
	logger *zap.Logger,
) {
	log := logger.Named("notification.consumer")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		var event notification.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode notification event failed", zap.Error(err))
			if commitErr := reader.CommitMessages(ctx, msg); commitErr != nil {
				log.Error("commit invalid notification event failed", zap.Error(commitErr))
			}
			continue
		}

		if err := m.Send(event.Recipient, event.Subject, renderBody(event)); err != nil {
			log.Warn("notification delivery failed",
				zap.String("event_type", event.EventType),
				zap.String("recipient", event.Recipient),
				zap.Error(err),
			)
			recorder.Record(ctx, nil, audit.ActionNotificationFailed, event.ResourceType, nil, map[string]any{
				"event_type": event.EventType,
				"recipient":  event.Recipient,
				"error":      err.Error(),
			})
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit notification message failed", zap.Error(err))
		}
	}
}

func renderBody(event notification.Event) string {
	body := "<p>" + event.Body + "</p>"
	if event.ApproveURL != "" && event.RejectURL != "" {
		body += fmt.Sprintf(
			`<p><a href="%s">Approve</a> &nbsp; <a href="%s">Reject</a></p>`,
			event.ApproveURL, event.RejectURL,
		)
	}
	return body
}
