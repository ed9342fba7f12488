// Package cli implements ledgerctl, the operator command line for the
// ledger core.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/app"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/config"
	appctx "github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/context"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

// ErrUnhealthy is returned by check when the ledger fails a check.
var ErrUnhealthy = errors.New("ledger is unhealthy")

// Env supplies the commands with configuration and services.
type Env struct {
	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
	// Open defaults to app.New.
	Open func(ctx context.Context, cfg *config.Config, log *logger.Logger, opts app.Options) (*app.Container, error)
}

type globalFlags struct {
	memory bool
	output string
	actor  string
}

// NewRootCommand creates the root command with all subcommands registered.
func NewRootCommand(env Env) *cobra.Command {
	if env.LoadConfig == nil {
		env.LoadConfig = config.Load
	}
	if env.Open == nil {
		env.Open = app.New
	}
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the ledger core: integrity checks, numbering and audit",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flags.output {
			case outputText, outputJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format %q", flags.output)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flags.memory, "memory", false, "use a throwaway in-memory store")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", outputText, "output format: text or json")
	rootCmd.PersistentFlags().StringVar(&flags.actor, "actor", "", "user recorded in the audit trail")

	s := &session{env: env, flags: flags}
	rootCmd.AddCommand(
		newCheckCommand(s),
		newNextNumberCommand(s),
		newAuditCommand(s),
		newEnqueueCommand(s),
	)

	return rootCmd
}

// session opens the container for one command invocation.
type session struct {
	env   Env
	flags *globalFlags
}

func (s *session) config() (*config.Config, error) {
	cfg, err := s.env.LoadConfig()
	if err != nil {
		return nil, err
	}
	if s.flags.memory {
		cfg.Storage = config.StorageMemory
	}
	return cfg, nil
}

func (s *session) open(cmd *cobra.Command, opts app.Options) (context.Context, *app.Container, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	ctx := logger.WithLogger(cmd.Context(), log)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(""))
	if s.flags.actor != "" {
		ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: s.flags.actor})
	}

	c, err := s.env.Open(ctx, cfg, log, opts)
	if err != nil {
		return nil, nil, err
	}
	return ctx, c, nil
}

func (s *session) printer(cmd *cobra.Command) printer {
	return printer{w: cmd.OutOrStdout(), format: s.flags.output}
}

// Execute runs ledgerctl and returns the process exit code. Cobra has
// already printed the error.
func Execute() int {
	err := NewRootCommand(Env{}).ExecuteContext(context.Background())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUnhealthy):
		return 2
	default:
		return 1
	}
}
