package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/app"
)

const (
	checkFull           = "full"
	checkTrialBalance   = "trial-balance"
	checkJournalBalance = "journal-balance"
	checkInventory      = "inventory"
)

var errSaveNeedsFull = errors.New("--save is only supported for the full check")

func newCheckCommand(s *session) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:       "check [full|trial-balance|journal-balance|inventory]",
		Short:     "Run integrity checks against the ledger",
		Long:      "Runs one integrity check, or all of them, and prints the report.\nExits with status 2 when the ledger is unhealthy.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{checkFull, checkTrialBalance, checkJournalBalance, checkInventory},
		RunE: func(cmd *cobra.Command, args []string) error {
			which := checkFull
			if len(args) > 0 {
				which = args[0]
			}
			if save && which != checkFull {
				return errSaveNeedsFull
			}

			ctx, c, err := s.open(cmd, app.Options{WithReportCache: save})
			if err != nil {
				return err
			}
			defer c.Close()

			p := s.printer(cmd)
			healthy := false
			switch which {
			case checkTrialBalance:
				r, err := c.Integrity.CheckTrialBalance(ctx)
				if err != nil {
					return err
				}
				healthy = r.Healthy
				if err := p.trialBalance(r); err != nil {
					return err
				}
			case checkJournalBalance:
				r, err := c.Integrity.CheckJournalBalance(ctx)
				if err != nil {
					return err
				}
				healthy = r.Healthy
				if err := p.journalBalance(r); err != nil {
					return err
				}
			case checkInventory:
				r, err := c.Integrity.CheckInventory(ctx)
				if err != nil {
					return err
				}
				healthy = r.Healthy
				if err := p.inventory(r); err != nil {
					return err
				}
			default:
				r, err := c.Integrity.RunFullCheck(ctx)
				if err != nil {
					return err
				}
				if save {
					if err := c.Reports.Save(ctx, r); err != nil {
						return err
					}
				}
				healthy = r.Healthy
				if err := p.full(r); err != nil {
					return err
				}
			}

			if !healthy {
				return ErrUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the full report in the report cache")

	return cmd
}
