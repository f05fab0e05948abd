package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/config"
	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/stage"
	"github.com/roach88/scanline/internal/store"
)

// stationEnv is an opened station: settings, stage registry, ledger store
// and the Station restored from it. Close releases the store.
type stationEnv struct {
	cfg      *config.Config
	registry *stage.Registry
	store    *store.Store
	station  *engine.Station
}

func (e *stationEnv) Close() {
	if err := e.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// loadConfig reads settings with the command's flags bound on top.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.File != "" {
		slog.Debug("config loaded", "file", cfg.File)
	}
	return cfg, nil
}

// openStation loads config and stages, opens the ledger and restores the
// open session from it. A fresh session is started if none is open.
func openStation(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*stationEnv, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}

	reg, err := stage.Load(cfg.Stages)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load stages", err)
	}
	slog.Debug("stages loaded", "path", cfg.Stages, "count", reg.Len())

	st, err := store.Open(cfg.DB, store.WithStation(cfg.Station))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	ids := engine.UUIDv7Generator{}
	state, err := st.LoadState(ctx, ids.Generate, cfg.Now())
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load ledger", err)
	}
	if state.Started {
		slog.Info("session started", "session_id", state.Session.ID, "station", st.Station())
	}

	station, err := engine.Restore(engine.PersistedState{
		SessionID:   state.Session.ID,
		Records:     state.Records,
		Assignments: state.Assignments,
	}, reg, cfg.Session(),
		engine.WithJournal(st),
		engine.WithTimeSource(cfg.Now),
		engine.WithSessionIDs(ids),
	)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to restore session", err)
	}
	slog.Debug("session restored",
		"session_id", station.SessionID(),
		"records", len(state.Records),
	)

	return &stationEnv{cfg: cfg, registry: reg, store: st, station: station}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
