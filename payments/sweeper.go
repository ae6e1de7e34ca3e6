package payments

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RegisterSweeper adds a job to c that settles donations left pending.
func RegisterSweeper(c *cron.Cron, spec string, s *Settler, log logrus.FieldLogger) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		n, err := s.SettlePending(ctx)
		if err != nil {
			log.WithError(err).Error("sweep pending donations")
			return
		}
		if n > 0 {
			log.WithField("settled", n).Info("swept pending donations")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", spec, err)
	}
	return nil
}
