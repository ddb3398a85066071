// Package robotrial parses engine CLI flags and runs scenario replays.
package robotrial

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robotrial/engine/internal/mission"
	"github.com/robotrial/engine/internal/missionpack"
	"github.com/robotrial/engine/internal/platform/config"
	apperrors "github.com/robotrial/engine/internal/platform/errors"
	"github.com/robotrial/engine/internal/platform/i18n/catalog"
	"github.com/robotrial/engine/internal/platform/id"
	"github.com/robotrial/engine/internal/platform/otel"
	"github.com/robotrial/engine/internal/scripting"
	"github.com/robotrial/engine/internal/session"
	"github.com/robotrial/engine/internal/sim"
	"github.com/robotrial/engine/internal/storage"
	"github.com/robotrial/engine/internal/storage/sqlite"
	"github.com/robotrial/engine/internal/telemetry"
)

// Config holds robotrial command configuration.
type Config struct {
	Season       string `env:"ROBOTRIAL_SEASON" envDefault:"submerged"`
	ScenarioPath string `env:"ROBOTRIAL_SCENARIO"`
	StoragePath  string `env:"ROBOTRIAL_DB"`
	Locale       string `env:"ROBOTRIAL_LOCALE" envDefault:"en-US"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Season, "season", cfg.Season, "Bundled season to load")
	fs.StringVar(&cfg.ScenarioPath, "scenario", cfg.ScenarioPath, "Scenario YAML file to replay (default: bundled demo)")
	fs.StringVar(&cfg.StoragePath, "db", cfg.StoragePath, "SQLite attempt log path (default: in-memory)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for error messages")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// demoScenario replays the first two missions of the bundled season.
const demoScenario = `
name: submerged demo
tick_interval: 1s
steps:
  - start_mission: coral-nursery
  - tick:
      robot:
        x: 1800
        y: 900
      repeat: 3
  - start_mission: reef-survey
  - report_steps: 3
  - tick:
      robot:
        x: 600
        y: 400
        distance_traveled: 2400
`

// Run replays one scenario against the configured season and prints the
// session summary.
func Run(ctx context.Context, cfg Config) error {
	if err := catalog.Default().Register(); err != nil {
		return fmt.Errorf("register locale catalogs: %w", err)
	}
	locale := catalog.Default().MatchLocale(cfg.Locale)

	shutdown, err := otel.Setup(ctx, "robotrial")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := openStore(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	data, err := missionpack.Season(cfg.Season)
	if err != nil {
		return err
	}
	pack, err := missionpack.Decode(data)
	if err != nil {
		return localize(err, locale)
	}

	start := time.Now().UTC()
	clock := sim.NewClock(start)
	observer := telemetry.Multi(
		telemetry.NewLogObserver(log.Default()),
		telemetry.NewRecorder(store, pack.Season, log.Default()),
	)

	missions, err := pack.Build(scripting.NewRegistry(),
		mission.WithClock(clock.Now),
		mission.WithObserver(observer),
	)
	if err != nil {
		return localize(err, locale)
	}

	manager := session.NewManager(session.WithClock(clock.Now))
	if err := manager.RegisterPack(missions); err != nil {
		return localize(err, locale)
	}

	scenario, err := loadScenario(cfg.ScenarioPath)
	if err != nil {
		return err
	}

	summary, err := sim.NewRunner(manager, clock).Run(ctx, scenario)
	if err != nil {
		return localize(err, locale)
	}

	if err := persistSummary(ctx, store, pack.Season, start, clock.Now(), summary); err != nil {
		log.Printf("persist summary: %v", err)
	}

	printSummary(pack, scenario, summary)
	return nil
}

func persistSummary(ctx context.Context, store *sqlite.Store, season string, startedAt, endedAt time.Time, summary session.Summary) error {
	summaryID, err := id.NewID()
	if err != nil {
		return err
	}
	return store.AppendSummary(ctx, storage.SummaryRecord{
		ID:             summaryID,
		Season:         season,
		TotalScore:     summary.TotalScore,
		CompletedCount: summary.CompletedCount,
		TotalCount:     summary.TotalCount,
		CompletionRate: summary.CompletionRate,
		StartedAt:      startedAt,
		EndedAt:        endedAt,
	})
}

func openStore(path string) (*sqlite.Store, error) {
	if path == "" {
		return sqlite.OpenInMemory()
	}
	return sqlite.Open(path)
}

func loadScenario(path string) (*sim.Scenario, error) {
	if path == "" {
		return sim.DecodeScenario([]byte(demoScenario))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return sim.DecodeScenario(data)
}

// localize swaps engine errors for their user-facing form in the
// requested locale. Non-engine errors pass through unchanged.
func localize(err error, locale string) error {
	if apperrors.GetCode(err) == apperrors.CodeUnknown {
		return err
	}
	return apperrors.HandleError(err, locale)
}

func printSummary(pack *missionpack.Pack, scenario *sim.Scenario, summary session.Summary) {
	log.Printf("season %s scenario %q finished", pack.Season, scenario.Name)
	log.Printf("total score %d, completed %d/%d (%.0f%%), elapsed %s",
		summary.TotalScore,
		summary.CompletedCount,
		summary.TotalCount,
		summary.CompletionRate*100,
		summary.SessionElapsed,
	)
	for _, view := range summary.Missions {
		switch view.Status {
		case mission.StatusCompleted:
			log.Printf("  %s: %s score=%d attempts=%d precision=%.2f efficiency=%.2f style=%.2f",
				view.ID, view.Status, view.Score, view.AttemptCount,
				view.PrecisionScore, view.EfficiencyScore, view.StyleScore)
		case mission.StatusNotStarted:
			log.Printf("  %s: %s", view.ID, view.Status)
		default:
			log.Printf("  %s: %s attempts=%d progress=%.0f%%",
				view.ID, view.Status, view.AttemptCount, view.Progress*100)
		}
	}
}
