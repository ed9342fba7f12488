package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/integrity"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type printer struct {
	w      io.Writer
	format string
}

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) trialBalance(r *integrity.TrialBalanceReport) error {
	if p.format == outputJSON {
		return p.json(r)
	}
	fmt.Fprintf(p.w, "trial balance: %s (accounts=%d debit=%s credit=%s difference=%s)\n",
		status(r.Healthy), r.AccountsChecked, r.TotalDebit, r.TotalCredit, r.Difference)
	if len(r.Unbalanced) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ACCOUNT\tDEBIT\tCREDIT\tDIFFERENCE")
	for _, a := range r.Unbalanced {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", a.AccountID, a.Debit, a.Credit, a.Difference)
	}
	return tw.Flush()
}

func (p printer) journalBalance(r *integrity.JournalBalanceReport) error {
	if p.format == outputJSON {
		return p.json(r)
	}
	fmt.Fprintf(p.w, "journal balance: %s (entries=%d unbalanced=%d)\n",
		status(r.Healthy), r.TotalChecked, r.UnbalancedCount)
	if len(r.Unbalanced) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NUMBER\tENTRY\tDEBIT\tCREDIT\tDIFFERENCE")
	for _, e := range r.Unbalanced {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", e.Number, e.EntryID, e.Debit, e.Credit, e.Difference)
	}
	return tw.Flush()
}

func (p printer) inventory(r *integrity.InventoryReport) error {
	if p.format == outputJSON {
		return p.json(r)
	}
	fmt.Fprintf(p.w, "inventory: %s (keys=%d inconsistent=%d)\n",
		status(r.Healthy), r.TotalChecked, r.InconsistentCount)
	if len(r.Discrepancies) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PRODUCT\tWAREHOUSE\tEXPECTED\tACTUAL\tDIFFERENCE")
	for _, d := range r.Discrepancies {
		fmt.Fprintf(tw, "  %d\t%d\t%s\t%s\t%s\n", d.ProductID, d.WarehouseID, d.Expected, d.Actual, d.Difference)
	}
	return tw.Flush()
}

func (p printer) full(r *integrity.FullReport) error {
	if p.format == outputJSON {
		return p.json(r)
	}
	fmt.Fprintf(p.w, "ledger: %s (checked at %s)\n", status(r.Healthy), r.CheckedAt.Format(time.RFC3339))
	if err := p.trialBalance(r.TrialBalance); err != nil {
		return err
	}
	if err := p.journalBalance(r.JournalBalance); err != nil {
		return err
	}
	return p.inventory(r.Inventory)
}

func (p printer) audit(records []entity.AuditRecord) error {
	if p.format == outputJSON {
		if records == nil {
			records = []entity.AuditRecord{}
		}
		return p.json(records)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tENTITY\tID\tACTION\tBY\tDETAILS")
	for _, rec := range records {
		details := ""
		if rec.Details != nil {
			details = *rec.Details
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Timestamp.Format(time.RFC3339), rec.EntityType, rec.EntityID, rec.Action, rec.PerformedBy, details)
	}
	return tw.Flush()
}

func (p printer) line(format string, args ...any) error {
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func status(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "UNHEALTHY"
}
