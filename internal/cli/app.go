package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/config"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/logging"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/notify"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/storage"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Store
	engine *matching.Engine
	fluent io.Closer
}

func newApp(ctx context.Context) (a *app, err error) {
	cfg := config.Load(getEnvFile())
	if getVerbose() {
		cfg.Log.Level = "debug"
	}
	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "invalid configuration")
		return a, err
	}

	a = &app{cfg: cfg, engine: matching.NewEngine()}

	logOpts := logging.Options{
		Writer:  os.Stderr,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		NoColor: !cfg.IsDevelopment(),
	}
	if cfg.FluentBit.Enabled {
		client, ferr := logging.NewFluentClient(logging.FluentConfig{
			Host:      cfg.FluentBit.Host,
			Port:      cfg.FluentBit.Port,
			TagPrefix: cfg.FluentBit.TagPrefix,
		})
		if ferr != nil {
			err = errors.Wrap(ferr, "failed to connect to fluent bit")
			return nil, err
		}
		a.fluent = client
		logOpts.Fluent = client
		logOpts.FluentLevel = cfg.FluentBit.Level
	}
	a.logger = logging.New(logOpts)
	slog.SetDefault(a.logger)

	w := a.engine.Weights()
	err = w.Validate()
	if err != nil {
		a.Close()
		err = errors.Wrap(err, "invalid scoring weights")
		return nil, err
	}
	a.logger.Debug("scoring weights",
		"budget", w.Budget,
		"region", w.Region,
		"property_type", w.PropertyType,
		"room_count", w.RoomCount,
		"features", w.Features,
	)

	a.store, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		err = errors.Wrapf(err, "failed to open %s storage", cfg.Storage.Driver)
		return nil, err
	}
	a.logger.Debug("storage ready", "driver", cfg.Storage.Driver)

	if cfg.Storage.SeedPath != "" {
		var inserted int
		inserted, err = a.importFile(ctx, cfg.Storage.SeedPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.logger.Info("seed applied", "path", cfg.Storage.SeedPath, "inserted", inserted)
	}

	return a, nil
}

func (a *app) importFile(ctx context.Context, path string) (inserted int, err error) {
	var seed storage.Seed
	seed, err = storage.LoadSeedFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to load seed %s", path)
		return inserted, err
	}
	inserted, err = a.store.UpsertMany(ctx, seed)
	if err != nil {
		err = errors.Wrapf(err, "failed to import seed %s", path)
		return inserted, err
	}
	return inserted, nil
}

// publisher connects to AMQP when configured. A broker that cannot be reached
// only disables notifications.
func (a *app) publisher() notify.Publisher {
	if a.cfg.Notify.AMQPURL == "" {
		a.logger.Info("AMQP_URL not set, match notifications disabled")
		return notify.NoopPublisher{}
	}
	pub, err := notify.NewAMQPPublisher(a.cfg.Notify.AMQPURL, a.cfg.Notify.Exchange)
	if err != nil {
		a.logger.Warn("match notifications disabled", "err", err)
		return notify.NoopPublisher{}
	}
	a.logger.Info("publishing match events", "exchange", a.cfg.Notify.Exchange)
	return pub
}

func (a *app) thresholds() notify.Thresholds {
	return notify.Thresholds{MinScore: a.cfg.Notify.MinScore, MaxMatches: a.cfg.Notify.MaxMatches}
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close storage", "err", err)
		}
	}
	if a.fluent != nil {
		_ = a.fluent.Close()
	}
}
