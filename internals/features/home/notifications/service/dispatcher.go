package service

import (
	"context"
	"sync"
	"time"

	"pesantrenku_backend/internals/features/home/notifications/model"
	"pesantrenku_backend/internals/logger"

	"github.com/sourcegraph/conc"
)

// Channel is one outbound route to a guardian.
type Channel interface {
	Name() string
	// Enabled reports whether the notice has an address for this channel.
	Enabled(n model.GuardianNotice) bool
	Send(ctx context.Context, n model.GuardianNotice) error
}

// Dispatcher fans a notice out to every channel in the background. Failures are
// logged and never reach the caller.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	log      *logger.Logger
	inflight sync.WaitGroup
}

func NewDispatcher(log *logger.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		timeout:  30 * time.Second,
		log:      log.Named("notify"),
	}
}

// Notify returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, n model.GuardianNotice) {
	if len(d.channels) == 0 {
		return
	}
	// lepas dari siklus request; tetap bawa value ctx (request id)
	bg := context.WithoutCancel(ctx)

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()
		d.deliver(ctx, n)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, n model.GuardianNotice) {
	var wg conc.WaitGroup
	for _, ch := range d.channels {
		ch := ch
		if !ch.Enabled(n) {
			continue
		}
		wg.Go(func() {
			if err := ch.Send(ctx, n); err != nil {
				d.log.Warnw("notification failed",
					"channel", ch.Name(),
					"kind", n.Kind,
					"payment_status_id", n.PaymentStatusID,
					"err", err,
				)
				return
			}
			d.log.Debugw("notification sent", "channel", ch.Name(), "kind", n.Kind, "payment_status_id", n.PaymentStatusID)
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		d.log.Errorw("notification channel panicked", "panic", r.String(), "payment_status_id", n.PaymentStatusID)
	}
}

// Wait blocks until every pending delivery has finished. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}
