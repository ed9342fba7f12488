package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/app"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
)

const dateLayout = "2006-01-02"

func newNextNumberCommand(s *session) *cobra.Command {
	var (
		documentType string
		fiscalYearID int64
		date         string
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "next-number",
		Short: "Allocate the next document number",
		Long: "Allocates and prints the next number for a document type in a fiscal year.\n" +
			"With --set, seeds the counter instead so the next allocation returns that value.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
				}
				at = parsed
			}

			ctx, c, err := s.open(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			p := s.printer(cmd)
			if seed > 0 {
				err := c.TxManager.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
					return c.Numbers.SetNextNumber(ctx, documentType, fiscalYearID, at, seed)
				})
				if err != nil {
					return err
				}
				if p.format == outputJSON {
					return p.json(map[string]any{"documentType": documentType, "fiscalYearId": fiscalYearID, "next": seed})
				}
				return p.line("next %s number in fiscal year %d will be %d", documentType, fiscalYearID, seed)
			}

			var number string
			err = c.TxManager.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
				var err error
				number, err = c.Numbers.NextNumberAt(ctx, documentType, fiscalYearID, at)
				return err
			})
			if err != nil {
				return err
			}
			if p.format == outputJSON {
				return p.json(map[string]any{"documentType": documentType, "fiscalYearId": fiscalYearID, "number": number})
			}
			return p.line("%s", number)
		},
	}

	cmd.Flags().StringVar(&documentType, "type", "", "document type, e.g. JV (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().Int64Var(&fiscalYearID, "fiscal-year", 0, "fiscal year id (required)")
	_ = cmd.MarkFlagRequired("fiscal-year")
	cmd.Flags().StringVar(&date, "date", "", "document date for month and day scoped types (YYYY-MM-DD, default today)")
	cmd.Flags().Int64Var(&seed, "set", 0, "seed the counter so the next number is this value")

	return cmd
}
