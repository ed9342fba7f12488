package cli

import (
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/jobs"
)

func newEnqueueCommand(s *session) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "enqueue-check",
		Short: "Ask the worker to run the full integrity check now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.config()
			if err != nil {
				return err
			}

			client := jobs.NewClient(asynq.RedisClientOpt{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer client.Close()

			info, err := client.EnqueueFullCheck(cmd.Context(), reason)
			if err != nil {
				return err
			}

			p := s.printer(cmd)
			if p.format == outputJSON {
				return p.json(map[string]any{"taskId": info.ID, "queue": info.Queue})
			}
			return p.line("enqueued %s on queue %s", info.ID, info.Queue)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "manual", "reason recorded with the task")

	return cmd
}
