package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
)

// ResetDB drops the kitchenboard Mongo database, seed tracking included - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the kitchenboard database!")
	logger.Infof("⚠️  This action cannot be undone!")

	repo, err := openMongoStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer repo.Stop(ctx)

	db := repo.GetDatabase()
	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database %s: %w", db.Name(), err)
	}

	logger.Info("Database dropped", "database", db.Name())
	return nil
}
