package counters

import (
	"context"

	"pesantrenku_backend/internals/features/school/students/model"
	"pesantrenku_backend/internals/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Consumer feeds lifecycle events from the bus into Service.Apply.
type Consumer struct {
	svc *Service
	sub Subscriber
	log *logger.Logger
}

func NewConsumer(svc *Service, sub Subscriber, log *logger.Logger) *Consumer {
	return &Consumer{svc: svc, sub: sub, log: log.Named("counters.consumer")}
}

// Start subscribes and processes messages until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.sub.Subscribe(ctx, model.TopicStudentLifecycle)
	if err != nil {
		return err
	}
	go func() {
		for msg := range msgs {
			c.handle(ctx, msg)
		}
		c.log.Info("lifecycle consumer stopped")
	}()
	return nil
}

// handle always acks: a poisoned or failed event is logged and left for Reconcile.
func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var evt model.LifecycleEvent
	if err := sonic.Unmarshal(msg.Payload, &evt); err != nil {
		c.log.Errorw("decode lifecycle event", "message_id", msg.UUID, "error", err)
		return
	}
	if err := c.svc.Apply(ctx, evt); err != nil {
		c.log.Errorw("apply lifecycle event",
			"message_id", msg.UUID,
			"student_id", evt.StudentID,
			"kind", evt.Kind,
			"error", err,
		)
	}
}
