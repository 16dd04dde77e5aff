package notification

import (
	"context"

	"activity_tracker/pkg/dto"
)

type Deliverer interface {
	Deliver(ctx context.Context, channelID string, notification *dto.CommitNotification) error
}
