package cmd

import (
	"log/slog"

	"github.com/Aman-CERP/fsearch/internal/config"
	"github.com/Aman-CERP/fsearch/internal/engine"
	"github.com/Aman-CERP/fsearch/pkg/fsearch"
)

// newClient builds a client whose engine, grep command and query defaults
// come from cfg.
func newClient(cfg *config.Config, logger *slog.Logger) (*fsearch.Client, error) {
	engineOpts := []engine.LocalOption{
		engine.WithWorkers(cfg.Engine.Workers),
		engine.WithCacheSize(cfg.Engine.CacheSize),
		engine.WithLogger(logger),
	}
	if cfg.Engine.MaxLineBytes > 0 {
		engineOpts = append(engineOpts, engine.WithMaxLineBytes(cfg.Engine.MaxLineBytes))
	}
	local, err := engine.NewLocal(engineOpts...)
	if err != nil {
		return nil, err
	}

	return fsearch.New(
		fsearch.WithEngine(local),
		fsearch.WithGrepCommand(cfg.Grep.Command),
		fsearch.WithLogger(logger),
		fsearch.WithDefaults(configDefaults(cfg)...),
	)
}

// configDefaults turns the search section into query options. A zero limit
// means unbounded.
func configDefaults(cfg *config.Config) []fsearch.Option {
	return []fsearch.Option{
		fsearch.WithIgnoreCase(cfg.Search.IgnoreCase),
		fsearch.WithMatchWholeWord(cfg.Search.MatchWholeWord),
		fsearch.WithLimit(cliLimit(cfg.Search.Limit)),
		fsearch.WithExclude(cfg.Search.Exclude...),
	}
}

func cliLimit(n int) int {
	if n <= 0 {
		return fsearch.NoLimit
	}
	return n
}
