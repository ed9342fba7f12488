package integrity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

var tracer = otel.Tracer("ledger/integrity")

// Verifier runs the integrity checks. An inconsistent ledger is a normal
// report with Healthy=false; only infrastructure failures are errors.
type Verifier struct {
	repo Repository
	txm  tx.Manager
	now  func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock fixes the time stamped on reports.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a Verifier.
func NewVerifier(repo Repository, txm tx.Manager, opts ...Option) *Verifier {
	v := &Verifier{
		repo: repo,
		txm:  txm,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CheckTrialBalance compares global debit and credit totals.
func (v *Verifier) CheckTrialBalance(ctx context.Context) (*TrialBalanceReport, error) {
	var rows []AccountTotal
	err := v.read(ctx, "trial_balance", func(ctx context.Context) (err error) {
		rows, err = v.repo.AccountTotals(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v.trialBalance(rows), nil
}

func (v *Verifier) trialBalance(rows []AccountTotal) *TrialBalanceReport {
	report := &TrialBalanceReport{
		TotalDebit:      types.Zero(),
		TotalCredit:     types.Zero(),
		AccountsChecked: len(rows),
		Unbalanced:      []AccountImbalance{},
		CheckedAt:       v.now(),
	}
	for _, r := range rows {
		report.TotalDebit = report.TotalDebit.Add(r.Debit)
		report.TotalCredit = report.TotalCredit.Add(r.Credit)
	}
	report.Difference = types.AbsDiff(report.TotalDebit, report.TotalCredit)
	report.Healthy = report.Difference.IsZero()

	if !report.Healthy {
		for _, r := range rows {
			if !r.Debit.Equal(r.Credit) {
				report.Unbalanced = append(report.Unbalanced, AccountImbalance{
					AccountID:  r.AccountID,
					Debit:      r.Debit,
					Credit:     r.Credit,
					Difference: types.AbsDiff(r.Debit, r.Credit),
				})
			}
		}
		sort.Slice(report.Unbalanced, func(i, j int) bool {
			return report.Unbalanced[i].AccountID < report.Unbalanced[j].AccountID
		})
	}
	return report
}

// CheckJournalBalance recomputes every posted entry's own balance. It catches
// entries out of balance in opposite directions that the trial balance masks.
func (v *Verifier) CheckJournalBalance(ctx context.Context) (*JournalBalanceReport, error) {
	var rows []EntryTotal
	err := v.read(ctx, "journal_balance", func(ctx context.Context) (err error) {
		rows, err = v.repo.EntryTotals(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v.journalBalance(rows), nil
}

func (v *Verifier) journalBalance(rows []EntryTotal) *JournalBalanceReport {
	report := &JournalBalanceReport{
		TotalChecked: len(rows),
		Unbalanced:   []EntryImbalance{},
		CheckedAt:    v.now(),
	}
	for _, r := range rows {
		if r.Debit.Equal(r.Credit) {
			continue
		}
		report.Unbalanced = append(report.Unbalanced, EntryImbalance{
			EntryID:    r.EntryID,
			Number:     r.Number,
			Debit:      r.Debit,
			Credit:     r.Credit,
			Difference: types.AbsDiff(r.Debit, r.Credit),
		})
	}
	sort.Slice(report.Unbalanced, func(i, j int) bool {
		a, b := report.Unbalanced[i], report.Unbalanced[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.EntryID.String() < b.EntryID.String()
	})
	report.UnbalancedCount = len(report.Unbalanced)
	report.Healthy = report.UnbalancedCount == 0
	return report
}

// CheckInventory reconciles stored stock against movements for every key
// that has a movement or a snapshot. A missing side counts as zero.
func (v *Verifier) CheckInventory(ctx context.Context) (*InventoryReport, error) {
	var (
		movements []MovementTotal
		snapshots []entity.StockSnapshot
	)
	err := v.read(ctx, "inventory", func(ctx context.Context) (err error) {
		if movements, err = v.repo.MovementTotals(ctx); err != nil {
			return err
		}
		snapshots, err = v.repo.StockSnapshots(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v.inventory(movements, snapshots), nil
}

func (v *Verifier) inventory(movements []MovementTotal, snapshots []entity.StockSnapshot) *InventoryReport {
	expected := make(map[entity.StockKey]types.Quantity)
	actual := make(map[entity.StockKey]types.Quantity)
	keys := make(map[entity.StockKey]struct{})

	for _, m := range movements {
		q := m.Quantity
		if !m.MovementType.IsIncoming() {
			q = q.Neg()
		}
		expected[m.StockKey] = expected[m.StockKey].Add(q)
		keys[m.StockKey] = struct{}{}
	}
	for _, s := range snapshots {
		actual[s.StockKey] = actual[s.StockKey].Add(s.Quantity)
		keys[s.StockKey] = struct{}{}
	}

	report := &InventoryReport{
		TotalChecked:  len(keys),
		Discrepancies: []StockDiscrepancy{},
		CheckedAt:     v.now(),
	}
	for k := range keys {
		exp, act := expected[k], actual[k]
		if exp.Equal(act) {
			continue
		}
		report.Discrepancies = append(report.Discrepancies, StockDiscrepancy{
			ProductID:   k.ProductID,
			WarehouseID: k.WarehouseID,
			Expected:    exp,
			Actual:      act,
			Difference:  exp.Sub(act),
		})
	}
	sort.Slice(report.Discrepancies, func(i, j int) bool {
		a, b := report.Discrepancies[i], report.Discrepancies[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.WarehouseID < b.WarehouseID
	})
	report.InconsistentCount = len(report.Discrepancies)
	report.Healthy = report.InconsistentCount == 0
	return report
}

// RunFullCheck runs the three checks concurrently, each in its own read-only
// transaction. A logically unhealthy check never stops the others; the first
// infrastructure failure cancels the rest and is returned. When ctx already
// carries a transaction the checks join it one after another, since a
// transaction cannot serve concurrent readers.
func (v *Verifier) RunFullCheck(ctx context.Context) (*FullReport, error) {
	ctx, span := tracer.Start(ctx, "integrity.full_check")
	defer span.End()

	report := &FullReport{CheckedAt: v.now()}
	checks := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			report.TrialBalance, err = v.CheckTrialBalance(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			report.JournalBalance, err = v.CheckJournalBalance(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			report.Inventory, err = v.CheckInventory(ctx)
			return err
		},
	}

	if err := runChecks(ctx, checks); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "integrity check failed")
		logger.Error(ctx, "integrity check aborted", "error", err)
		return nil, err
	}

	report.Healthy = report.TrialBalance.Healthy &&
		report.JournalBalance.Healthy &&
		report.Inventory.Healthy
	span.SetAttributes(attribute.Bool("integrity.healthy", report.Healthy))

	if report.Healthy {
		logger.Info(ctx, "integrity check passed")
	} else {
		logger.Warn(ctx, "integrity violation detected",
			"trial_balance_difference", report.TrialBalance.Difference.String(),
			"unbalanced_entries", report.JournalBalance.UnbalancedCount,
			"stock_discrepancies", report.Inventory.InconsistentCount,
		)
	}
	return report, nil
}

func runChecks(ctx context.Context, checks []func(ctx context.Context) error) error {
	if _, inTx := tx.InfoFromContext(ctx); inTx {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		check := check
		g.Go(func() error { return check(gctx) })
	}
	return g.Wait()
}

// read runs fn in a read-only transaction under a span and maps any failure
// to InfrastructureFailure so it cannot be mistaken for a report outcome.
func (v *Verifier) read(ctx context.Context, check string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "integrity."+check,
		trace.WithAttributes(attribute.String("integrity.check", check)))
	defer span.End()

	err := v.txm.ReadOnly(ctx, fn)
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, check+" failed")
	if apperror.IsInfrastructure(err) {
		return err
	}
	return apperror.NewInfrastructure(fmt.Sprintf("integrity %s check", check), err)
}
