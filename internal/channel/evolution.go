package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/resty.v1"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

const maxLoggedBody = 512

type sendTextRequest struct {
	Number string `json:"number"`
	Delay  int64  `json:"delay"`
	Text   string `json:"text"`
}

// EvolutionSender sends WhatsApp text messages through an Evolution API server.
// Credentials are per unit and travel with each Message.
type EvolutionSender struct {
	client *resty.Client
}

var _ Sender = (*EvolutionSender)(nil)

// NewEvolutionSender creates a sender for the Evolution API at baseURL.
// An empty baseURL is a configuration error.
func NewEvolutionSender(baseURL string, timeout time.Duration) (*EvolutionSender, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: evolution API URL is not configured", apperrors.ErrConfiguration)
	}

	client := resty.New().
		SetHostURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &EvolutionSender{client: client}, nil
}

// Name implements Sender
func (s *EvolutionSender) Name() string {
	return "evolution"
}

// Send posts msg to /message/sendText/{instance}
func (s *EvolutionSender) Send(ctx context.Context, msg Message) (*Result, error) {
	log := logger.FromContext(ctx).With(
		zap.String("instance", msg.Credentials.Instance),
		zap.String("destination", msg.Destination),
	)

	if msg.Credentials.Instance == "" || msg.Credentials.APIKey == "" {
		return nil, fmt.Errorf("%w: missing channel credentials", apperrors.ErrChannel)
	}

	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("apikey", msg.Credentials.APIKey).
		SetBody(sendTextRequest{
			Number: msg.Destination,
			Delay:  msg.PresenceDelay.Milliseconds(),
			Text:   msg.Body,
		}).
		Post("/message/sendText/" + url.PathEscape(msg.Credentials.Instance))

	if err != nil {
		err = transportError(ctx, err)
		observer.ObserveChannelSend(time.Since(start), err)
		log.Warn("Provider call failed", zap.Error(err), zap.Bool("retryable", apperrors.IsRetryable(err)))
		return nil, err
	}

	result := &Result{StatusCode: resp.StatusCode(), Body: resp.Body()}
	if !resp.IsSuccess() {
		err = statusError(resp.StatusCode())
		observer.ObserveChannelSend(time.Since(start), err)
		log.Warn("Provider rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.ByteString("response", []byte(truncate(resp.Body()))),
			zap.Bool("retryable", apperrors.IsRetryable(err)),
		)
		return result, err
	}

	observer.ObserveChannelSend(time.Since(start), nil)
	log.Debug("Provider accepted message", zap.Int("status_code", resp.StatusCode()))
	return result, nil
}

// transportError classifies a failed provider call. Timeouts and connection
// failures may succeed on a later attempt.
func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewRetryable(fmt.Errorf("%w: %w", apperrors.ErrChannel, apperrors.ErrTimeout), "%v", err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", apperrors.ErrChannel, err)
	}
	return apperrors.NewRetryable(apperrors.ErrChannel, "%v", err)
}

// statusError maps a non-2xx status. 429 and 5xx are retryable, other 4xx are not.
func statusError(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return apperrors.NewRetryable(fmt.Errorf("%w: %w", apperrors.ErrChannel, apperrors.ErrRateLimited), "http %d", code)
	case code >= http.StatusInternalServerError:
		return apperrors.NewRetryable(apperrors.ErrChannel, "http %d", code)
	}
	return fmt.Errorf("%w: http %d", apperrors.ErrChannel, code)
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
