package pubsub

import (
	"context"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/bytedance/sonic"
)

// Publisher is what domain services depend on.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// PubSub is an in-process watermill bus.
type PubSub struct {
	ch  *gochannel.GoChannel
	log *logger.Logger
}

func New(log *logger.Logger) *PubSub {
	return &PubSub{
		ch: gochannel.NewGoChannel(
			gochannel.Config{
				Persistent:          true,
				OutputChannelBuffer: 100,
			},
			log.Watermill(),
		),
		log: log.Named("pubsub"),
	}
}

// Publish encodes payload as JSON and sends it on topic.
func (p *PubSub) Publish(ctx context.Context, topic string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).WithHint("gagal encode event").Mark(ierr.ErrSystem)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	msg.Metadata.Set("topic", topic)

	if err := p.ch.Publish(topic, msg); err != nil {
		return ierr.WithError(err).WithHint("gagal publish event").Mark(ierr.ErrSystem)
	}
	p.log.Debugw("event published", "topic", topic, "message_id", msg.UUID)
	return nil
}

func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.ch.Subscribe(ctx, topic)
}

func (p *PubSub) Close() error {
	return p.ch.Close()
}
