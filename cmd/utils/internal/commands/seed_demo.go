package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/internal/dashboard"
)

// SeedDemo applies the demo kitchenboard seeds to the Mongo store.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	repo, err := openMongoStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer repo.Stop(ctx)

	if err := dashboard.ApplyDemoSeeds(ctx, repo, repo.GetDatabase(), logger); err != nil {
		return fmt.Errorf("seed kitchenboard demo: %w", err)
	}
	return nil
}
