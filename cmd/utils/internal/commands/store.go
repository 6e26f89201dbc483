package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/internal/app"
	"github.com/appetiteclub/kitchenboard/internal/mongo"
)

// openStore starts the store selected by db.driver. The caller stops it.
func openStore(ctx context.Context, config *apt.Config, logger apt.Logger) (app.Store, error) {
	store, err := app.NewStore(config, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Start(ctx); err != nil {
		return nil, fmt.Errorf("start store: %w", err)
	}
	return store, nil
}

func openMongoStore(ctx context.Context, config *apt.Config, logger apt.Logger) (*mongo.OrderItemRepo, error) {
	store, err := openStore(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	repo, ok := store.(*mongo.OrderItemRepo)
	if !ok {
		_ = store.Stop(ctx)
		return nil, fmt.Errorf("command requires db.driver=mongo")
	}
	return repo, nil
}
