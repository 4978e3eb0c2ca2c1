package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/ingest"
	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/pipeline"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/validation"
)

const initialRefreshTimeout = 2 * time.Minute

// ProvideRoster loads and validates the member roster.
func ProvideRoster(i do.Injector) (*domain.Roster, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	v := do.MustInvoke[*validation.Validator](i)

	reader := ingest.NewReader(log.Logger)
	roster, err := reader.Roster(cfg.Sources.RosterPath, v)
	if err != nil {
		return nil, err
	}

	log.Info("Roster loaded", "members", len(roster.Members), "path", cfg.Sources.RosterPath)
	return roster, nil
}

// ProvidePipeline provides the reconciliation pipeline.
func ProvidePipeline(i do.Injector) (*pipeline.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)
	roster := do.MustInvoke[*domain.Roster](i)
	log := do.MustInvoke[*logger.Logger](i)

	return pipeline.New(cfg, roster, log.Logger)
}

// ProvideClubService provides the club service.
func ProvideClubService(i do.Injector) (*service.ClubService, error) {
	p := do.MustInvoke[*pipeline.Pipeline](i)
	roster := do.MustInvoke[*domain.Roster](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewClubService(p, roster, log.Logger), nil
}

// RunInitialRefresh performs the first pipeline run so the API starts with
// data. A failed first run is logged but not fatal: the watcher or a manual
// refresh can recover once the source files are fixed.
func RunInitialRefresh(i do.Injector) {
	club := do.MustInvoke[*service.ClubService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), initialRefreshTimeout)
	defer cancel()

	result, err := club.Refresh(ctx)
	if err != nil {
		log.Warn("Initial pipeline run failed, serving no data until refresh", "error", err)
		return
	}
	log.Info("Initial pipeline run complete", "run_id", result.RunID, "books", len(result.Table.Entries))
}
