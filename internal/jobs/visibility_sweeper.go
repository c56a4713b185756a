package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Purger removes messages that no user can see any more.
// *services.MessageService implements it.
type Purger interface {
	PurgeInvisible(ctx context.Context) (int, error)
}

type VisibilitySweeper struct {
	Messages Purger
}

// NewVisibilitySweeper creates a new instance of VisibilitySweeper
func NewVisibilitySweeper(messages Purger) *VisibilitySweeper {
	return &VisibilitySweeper{Messages: messages}
}

// Run purges private and group messages left with an empty visibleTo.
func (v *VisibilitySweeper) Run(ctx context.Context) error {
	n, err := v.Messages.PurgeInvisible(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge invisible messages: %w", err)
	}
	logrus.WithField("purged", n).Info("Visibility sweep completed")
	return nil
}
