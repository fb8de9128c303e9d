package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/config"

	"github.com/nats-io/nats.go"
)

// Publisher announces screening verdicts to downstream consumers.
type Publisher interface {
	PublishVerdict(ctx context.Context, screening *models.Screening) error
	Close() error
}

// VerdictEvent is the payload published for every screening.
type VerdictEvent struct {
	RunID      string          `json:"run_id,omitempty"`
	Handle     string          `json:"handle"`
	VideoID    string          `json:"video_id"`
	URL        string          `json:"url,omitempty"`
	Status     models.Status   `json:"status"`
	ReasonCode string          `json:"reason_code,omitempty"`
	Language   models.Language `json:"language"`
	Category   models.Category `json:"category"`
	Message    string          `json:"message"`
	ScreenedAt time.Time       `json:"screened_at"`
}

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

type NATSPublisher struct {
	nc     natsConn
	prefix string
	logger *slog.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

// Connect dials NATS and returns a publisher for cfg.SubjectPrefix.
func Connect(cfg config.NATSConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("hook-screener"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return newNATSPublisher(nc, cfg.SubjectPrefix), nil
}

func newNATSPublisher(nc natsConn, prefix string) *NATSPublisher {
	return &NATSPublisher{
		nc:     nc,
		prefix: prefix,
		logger: slog.Default().With("component", "nats_publisher"),
	}
}

// Subject is <prefix>.<handle> with the handle reduced to one subject token.
func (p *NATSPublisher) Subject(handle string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, handle)
	if token == "" {
		token = "unknown"
	}
	return p.prefix + "." + token
}

func (p *NATSPublisher) PublishVerdict(ctx context.Context, screening *models.Screening) error {
	if screening == nil || screening.Video == nil {
		return fmt.Errorf("screening with video is required")
	}
	v := screening.Verdict
	event := VerdictEvent{
		RunID:      screening.RunID,
		Handle:     screening.Video.Handle,
		VideoID:    screening.Video.ID,
		URL:        screening.Video.URL,
		Status:     v.Status,
		ReasonCode: v.ReasonCode,
		Language:   v.Language,
		Category:   v.Category,
		Message:    v.FormattedMessage,
		ScreenedAt: screening.ScreenedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict event: %w", err)
	}

	subject := p.Subject(event.Handle)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish verdict: %w", err)
	}

	p.logger.DebugContext(ctx, "Verdict published", "subject", subject, "video_id", event.VideoID, "status", event.Status)
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Noop is used when no NATS URL is configured.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) PublishVerdict(context.Context, *models.Screening) error { return nil }
func (Noop) Close() error { return nil }
