package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"

	"icetime-service/internal/logging"
)

// resend accepts at most this many messages per batch call.
const batchSize = 100

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

func (s *ResendSender) params(req SendRequest) *resend.SendEmailRequest {
	from := req.From
	if from == "" {
		from = s.from
	}
	p := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	}
	if req.ReplyTo != "" {
		p.ReplyTo = req.ReplyTo
	}
	return p
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, s.params(req))
	if err != nil {
		logging.Error(s.logger, "resend send failed", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}
	logging.Info(s.logger, "resend sent", "message_id", sent.Id, "to", req.To)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// SendBatch sends reqs in chunks; results keep the request order.
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	var results []SendResult
	for i := 0; i < len(reqs); i += batchSize {
		end := min(i+batchSize, len(reqs))

		params := make([]*resend.SendEmailRequest, 0, end-i)
		for _, req := range reqs[i:end] {
			params = append(params, s.params(req))
		}
		resp, err := s.client.Batch.SendWithContext(ctx, params)
		if err != nil {
			logging.Error(s.logger, "resend batch failed", err, logging.FieldCount, len(params))
			return results, fmt.Errorf("resend batch send failed: %w", err)
		}
		for _, item := range resp.Data {
			results = append(results, SendResult{MessageID: item.Id, SentAt: time.Now()})
		}
	}
	logging.Info(s.logger, "resend batch sent", logging.FieldCount, len(results))
	return results, nil
}
