package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"stockflow/internal/backend"
	"stockflow/internal/config"
	"stockflow/internal/log"
	"stockflow/internal/services"
	"stockflow/internal/views"
)

// Commands lists the stockflowctl subcommands.
var Commands = []subcommands.Command{
	&listCmd{},
	&summaryCmd{},
	&cashflowCmd{},
	&categoriesCmd{},
	&importCmd{},
	&exportCmd{},
	&addItemCmd{},
	&addExpenseCmd{},
	&sellCmd{},
	&deleteCmd{},
}

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// session is an opened store plus the presentation settings.
type session struct {
	svc   *services.InventoryService
	money views.Money
	close func()
}

// openSession is swapped in tests.
var openSession = func(ctx context.Context) (*session, error) {
	LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lvl, _ := log.ParseLevel(cfg.LogLevel)
	if lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentCLI, Output: stderr})
	log.SetDefault(logger)

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bc, true)
	if err != nil {
		return nil, err
	}
	m, _ := views.NewMoney(cfg.Currency)
	return &session{
		svc:   res.Service,
		money: m,
		close: func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Cleanup failed", "error", err)
			}
		},
	}, nil
}

// withSession opens the store, runs fn and maps its error to an exit status.
func withSession(ctx context.Context, fn func(*session) error) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.close()

	if err := fn(s); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it as is when plain
// is set or styling fails.
func printMarkdown(md string, plain bool) {
	if !plain {
		if err := views.Render(stdout, md, 0); err == nil {
			return
		}
	}
	fmt.Fprint(stdout, md)
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
