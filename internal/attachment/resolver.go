package attachment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"

	"go.uber.org/zap"
)

// ErrExhausted is returned when every attempt to resolve a voice attachment failed.
var ErrExhausted = errors.New("voice attachment not resolved")

// VoiceSource is the media collaborator.
type VoiceSource interface {
	ResolveVoiceAttachment(ctx context.Context, messageID string) (models.Attachment, error)
}

// Resolver polls the media service for a voice message's URL and duration with a fixed delay.
type Resolver struct {
	source VoiceSource
	log    *zap.SugaredLogger

	MaxAttempts int
	Delay       time.Duration
	// Sleep waits between attempts. It returns early with ctx's error when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewResolver(source VoiceSource, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		source:      source,
		log:         log,
		MaxAttempts: config.AttachmentMaxAttempts,
		Delay:       config.AttachmentRetryDelay,
		Sleep:       sleepContext,
	}
}

// Resolve makes up to MaxAttempts calls to the media service, waiting Delay between them.
func (r *Resolver) Resolve(ctx context.Context, messageID string) (models.Attachment, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		att, err := r.source.ResolveVoiceAttachment(ctx, messageID)
		if err == nil {
			return att, nil
		}
		lastErr = err
		r.log.Debugw("Voice attachment not resolved yet", "messageId", messageID, "attempt", attempt, "error", err)

		if attempt == attempts {
			break
		}
		if err := r.Sleep(ctx, r.Delay); err != nil {
			return models.Attachment{}, fmt.Errorf("%w: %v", ErrExhausted, err)
		}
	}

	return models.Attachment{}, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, attempts, lastErr)
}

// TryOnce makes a single attempt.
func (r *Resolver) TryOnce(ctx context.Context, messageID string) (models.Attachment, error) {
	att, err := r.source.ResolveVoiceAttachment(ctx, messageID)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	return att, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
