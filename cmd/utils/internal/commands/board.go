package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/internal/dashboard"
)

// Board prints the current dashboard snapshot as JSON.
func Board(ctx context.Context, config *apt.Config, logger apt.Logger, out io.Writer) error {
	scoring, err := dashboard.LoadScoringConfig(config)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer store.Stop(ctx)

	svc := dashboard.NewService(dashboard.ServiceDeps{Source: store, Mutator: store}, scoring, logger)
	return writeBoard(ctx, svc, out)
}

func writeBoard(ctx context.Context, svc *dashboard.Service, out io.Writer) error {
	d, err := svc.GetDashboard(ctx)
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
