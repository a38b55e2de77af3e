// Command orcamentos-cli manages the catalog and budget stored by the
// orcamentos server from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"orcamentos/internal/backend"
	appcli "orcamentos/internal/cli"
	"orcamentos/internal/config"
	"orcamentos/internal/log"
	"orcamentos/internal/services"
)

// opener builds the backend for a command run.
type opener func(ctx context.Context, cfg *config.Config, stderr io.Writer, level string) (*backend.BackendResult, error)

func openBackend(ctx context.Context, cfg *config.Config, stderr io.Writer, level string) (*backend.BackendResult, error) {
	logger := appcli.SetupLogger(stderr, level).WithComponent(log.ComponentCLI)
	return appcli.OpenBackend(ctx, logger, cfg)
}

// session opens the backend lazily so commands that never touch the
// quote state do not pay for it.
type session struct {
	open opener
	res  *backend.BackendResult
}

func (s *session) service(c *cli.Context) (*services.QuoteService, error) {
	if s.res != nil {
		return s.res.Service, nil
	}
	cfg, err := appcli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	res, err := s.open(c.Context, cfg, c.App.ErrWriter, c.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	s.res = res
	return res.Service, nil
}

func (s *session) close() error {
	if s.res == nil || s.res.Cleanup == nil {
		return nil
	}
	err := s.res.Cleanup()
	s.res = nil
	return err
}

func newApp(open opener) *cli.App {
	s := &session{open: open}
	return &cli.App{
		Name:  "orcamentos-cli",
		Usage: "gerencia o catálogo de serviços e o orçamento atual",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "nível de log (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			catalogCommand(s),
			budgetCommand(s),
			eventsCommand(),
		},
		After: func(*cli.Context) error {
			return s.close()
		},
	}
}

func main() {
	appcli.LoadEnvFile()

	ctx, stop := appcli.SignalContext()
	defer stop()

	if err := newApp(openBackend).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}
