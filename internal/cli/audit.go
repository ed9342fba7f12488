package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/app"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
)

func newAuditCommand(s *session) *cobra.Command {
	var (
		filter   audit.Filter
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.EntityID != "" && filter.EntityType == "" {
				return errors.New("--entity-id requires --entity")
			}
			var err error
			if filter.From, err = parseTimeFlag("from", from); err != nil {
				return err
			}
			if filter.To, err = parseTimeFlag("to", to); err != nil {
				return err
			}
			if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
				return errors.New("--from must be before --to")
			}

			ctx, c, err := s.open(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			records, err := c.AuditLog.Query(ctx, filter)
			if err != nil {
				return err
			}
			return s.printer(cmd).audit(records)
		},
	}

	cmd.Flags().StringVar(&filter.EntityType, "entity", "", "entity type, e.g. LedgerEntry")
	cmd.Flags().StringVar(&filter.EntityID, "entity-id", "", "entity id")
	cmd.Flags().StringVar(&filter.PerformedBy, "by", "", "user who performed the action")
	cmd.Flags().StringVar(&from, "from", "", "inclusive lower bound (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "exclusive upper bound (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of records")

	return cmd
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: expected RFC3339 or YYYY-MM-DD", name, value)
}
