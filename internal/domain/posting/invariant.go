// Package posting enforces the double-entry invariant and posts ledger
// entries atomically with their number and audit record.
package posting

import (
	"fmt"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

// Totals are the sums computed by Validate. Difference is |Debit - Credit|.
type Totals struct {
	Debit      types.Money `json:"debit"`
	Credit     types.Money `json:"credit"`
	Difference types.Money `json:"difference"`
}

// Balanced reports whether debits equal credits exactly.
func (t Totals) Balanced() bool {
	return t.Difference.IsZero()
}

// Validate checks that lines can be posted: at least one line, no negative
// amounts, and debit total exactly equal to credit total. It has no side
// effects and must run before anything is written.
func Validate(lines []entity.LedgerLine) (Totals, error) {
	totals := sum(lines)
	if len(lines) == 0 {
		return totals, apperror.NewNoLines()
	}
	if err := checkAmounts(lines); err != nil {
		return totals, err
	}
	if !totals.Balanced() {
		return totals, apperror.NewBalanceViolation(
			totals.Debit.String(),
			totals.Credit.String(),
			totals.Difference.String(),
		)
	}
	return totals, nil
}

func sum(lines []entity.LedgerLine) Totals {
	debit, credit := types.Zero(), types.Zero()
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return Totals{Debit: debit, Credit: credit, Difference: types.AbsDiff(debit, credit)}
}

// checkAmounts rejects negative amounts and amounts finer than the stored
// scale, which storage would round after the balance was checked. Drafts are
// allowed to be unbalanced but never negative.
func checkAmounts(lines []entity.LedgerLine) error {
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("line %d has a negative amount", i+1)).
				WithDetail("line", i+1)
		}
		if !types.FitsScale(l.Debit) || !types.FitsScale(l.Credit) {
			return apperror.NewValidation(
				fmt.Sprintf("line %d has more than %d decimal places", i+1, types.MoneyScale)).
				WithDetail("line", i+1).
				WithDetail("max_scale", types.MoneyScale)
		}
	}
	return nil
}
