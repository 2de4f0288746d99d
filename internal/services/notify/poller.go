package notify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"oldphonedeals/internal/domain/order"
)

const (
	DefaultPollEvery = 30 * time.Second
	maxBackoff       = 5 * time.Minute
)

// OrderSource lists orders placed after a point in time.
type OrderSource interface {
	OrdersSince(ctx context.Context, token string, since time.Time) ([]order.Order, error)
}

// Poller periodically asks the marketplace for new orders and publishes
// them to an Inbox.
type Poller struct {
	source    OrderSource
	inbox     *Inbox
	token     string
	pollEvery time.Duration
	backoff   *backoff.ExponentialBackOff
	now       func() time.Time

	since time.Time
}

func NewPoller(source OrderSource, inbox *Inbox, token string, pollEvery time.Duration) *Poller {
	if pollEvery <= 0 {
		pollEvery = DefaultPollEvery
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pollEvery
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	return &Poller{
		source:    source,
		inbox:     inbox,
		token:     token,
		pollEvery: pollEvery,
		backoff:   b,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled. Orders placed before Run starts are not
// announced.
func (p *Poller) Run(ctx context.Context) {
	if p.since.IsZero() {
		p.since = p.now()
	}
	log.Info().
		Dur("poll_every", p.pollEvery).
		Time("since", p.since).
		Msg("order notification poller started")

	timer := time.NewTimer(p.pollEvery)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("order notification poller stopping")
			return
		case <-timer.C:
			wait := p.pollEvery
			if err := p.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				wait = p.backoff.NextBackOff()
				log.Warn().
					Err(err).
					Dur("retry_in", wait).
					Msg("order poll failed")
			} else {
				p.backoff.Reset()
			}
			timer.Reset(wait)
		}
	}
}

// Poll fetches one batch and publishes anything new. It is not safe to call
// concurrently with Run.
func (p *Poller) Poll(ctx context.Context) error {
	orders, err := p.source.OrdersSince(ctx, p.token, p.since)
	if err != nil {
		return err
	}

	added := 0
	// Orders arrive newest first; publish oldest first so the inbox keeps
	// chronological order.
	for k := len(orders) - 1; k >= 0; k-- {
		o := orders[k]
		if p.inbox.Publish(FromOrder(o)) {
			added++
		}
		if o.CreatedAt.After(p.since) {
			p.since = o.CreatedAt
		}
	}
	if added > 0 {
		log.Info().
			Int("count", added).
			Time("since", p.since).
			Msg("new orders published")
	}
	return nil
}
