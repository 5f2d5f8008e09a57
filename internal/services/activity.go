package services

import (
	"context"
	"time"

	"github.com/clubroom/apiserver/internal/mq"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// ActivityPublisher announces club activity to other systems.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, a mq.Activity) (string, error)
}

// notifier publishes activity on a best-effort basis: a failed publish is
// logged and never fails the request that caused it.
type notifier struct {
	publisher ActivityPublisher
	logger    *zap.Logger
}

func newNotifier(publisher ActivityPublisher, logger *zap.Logger) notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return notifier{publisher: publisher, logger: logger}
}

func (n notifier) notify(ctx context.Context, a mq.Activity) {
	if n.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	id, err := n.publisher.PublishActivity(ctx, a)
	if err != nil {
		n.logger.Warn("failed to publish activity",
			zap.String("kind", string(a.Kind)),
			zap.Int("club_id", a.ClubID),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("published activity", zap.String("kind", string(a.Kind)), zap.String("message_id", id))
}
