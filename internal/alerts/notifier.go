package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Config holds notifier settings.
type Config struct {
	// Filter is a CEL expression selecting which alerts are delivered.
	Filter string
	// DedupTTL is how long a delivered alert suppresses repeats.
	DedupTTL time.Duration
}

// Notifier filters, de-duplicates, renders and delivers alerts.
type Notifier struct {
	filter   *Filter
	dedup    Deduper
	renderer *Renderer
	senders  []Sender
	ttl      time.Duration
}

// NewNotifier creates a notifier delivering to senders.
func NewNotifier(cfg Config, dedup Deduper, senders ...Sender) (*Notifier, error) {
	if len(senders) == 0 {
		return nil, ErrNoSenders
	}

	filter, err := NewFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	if dedup == nil {
		dedup = NewMemoryDeduper()
	}

	return &Notifier{
		filter:   filter,
		dedup:    dedup,
		renderer: renderer,
		senders:  senders,
		ttl:      cfg.DedupTTL,
	}, nil
}

// Notify delivers an alert to every sender unless it is filtered out or was
// already delivered. A claim is released when a retryable delivery fails so the
// next watcher run tries again.
func (n *Notifier) Notify(ctx context.Context, a Alert) error {
	matched, err := n.filter.Match(a)
	if err != nil {
		return err
	}
	if !matched {
		recordProcessed(statusFiltered)
		return nil
	}

	key := a.Key()
	claimed, err := n.dedup.Claim(ctx, key, n.ttl)
	if err != nil {
		return err
	}
	if !claimed {
		recordProcessed(statusDuplicate)
		return nil
	}

	msg, err := n.renderer.Render(a)
	if err != nil {
		_ = n.dedup.Release(ctx, key)
		return err
	}

	var errs []error
	retry := false
	for _, sender := range n.senders {
		start := time.Now()
		err := sender.Send(ctx, msg)
		if err != nil {
			recordSent(sender.Name(), statusFailed, time.Since(start))
			slog.Warn("alert delivery failed",
				"sender", sender.Name(),
				"incident_id", a.IncidentID,
				"stage", a.Stage,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
			retry = retry || IsRetryable(err)
			continue
		}
		recordSent(sender.Name(), statusSent, time.Since(start))
	}

	if len(errs) > 0 {
		recordProcessed(statusFailed)
		if retry {
			if err := n.dedup.Release(ctx, key); err != nil {
				slog.Error("failed to release alert claim", "key", key, "error", err)
			}
		}
		return errors.Join(errs...)
	}

	recordProcessed(statusSent)
	slog.Info("deadline alert sent",
		"incident_id", a.IncidentID,
		"stage", a.Stage,
		"urgency", a.Countdown.Urgency,
	)
	return nil
}
