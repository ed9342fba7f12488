package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/types"
)

func TestDBColumnsSkipsUntaggedFields(t *testing.T) {
	cols := DBColumns[entity.LedgerEntry]()

	assert.Contains(t, cols, "entry_date")
	assert.Contains(t, cols, "version")
	assert.NotContains(t, cols, "lines")
	assert.Equal(t, "id", cols[0])
}

func TestDBColumnsInlinesEmbeddedStructs(t *testing.T) {
	cols := DBColumns[entity.InventoryMovement]()

	assert.Equal(t, []string{"product_id", "warehouse_id", "id", "movement_type", "quantity_base"}, cols)
}

func TestDBValuesFollowColumnOrder(t *testing.T) {
	line := entity.LedgerLine{
		ID:        id.New(),
		EntryID:   id.New(),
		LineNo:    2,
		AccountID: 4010,
		Debit:     types.MustMoney("12.50"),
		Credit:    types.Zero(),
		Memo:      "freight",
	}

	values := DBValues(&line)
	m := StructToMap(line)

	for i, col := range DBColumns[entity.LedgerLine]() {
		assert.Equal(t, m[col], values[i], col)
	}
	assert.Equal(t, int64(4010), m["account_id"])
	assert.Equal(t, "freight", m["memo"])
}
