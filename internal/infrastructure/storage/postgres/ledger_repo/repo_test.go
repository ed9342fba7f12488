package ledger_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/id"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	codec, err := newDetailsCodec(DefaultCompressThreshold)
	require.NoError(t, err)
	return &Repo{builder: newBuilder(), details: codec}
}

func TestIncrementIsSingleUpsert(t *testing.T) {
	r := testRepo(t)
	key := entity.SequenceKey{DocumentType: "PI", FiscalYearID: 3, Period: "202602"}

	sql, args, err := r.incrementQuery(key, "PI-202602-").ToSql()

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "INSERT INTO sys_sequences"))
	assert.Contains(t, sql, "ON CONFLICT (document_type, fiscal_year_id, period) DO UPDATE SET")
	assert.Contains(t, sql, "last_value = sys_sequences.last_value + 1")
	assert.True(t, strings.HasSuffix(sql, "RETURNING last_value"))
	assert.Equal(t, []any{"PI", int64(3), "202602", "PI-202602-", 1, 1}, args)
}

func TestSetLastValueOverwrites(t *testing.T) {
	r := testRepo(t)

	sql, args, err := r.setLastValueQuery(entity.SequenceKey{DocumentType: "JV", FiscalYearID: 1}, "JV-2026-", 499).ToSql()

	require.NoError(t, err)
	assert.Contains(t, sql, "last_value = EXCLUDED.last_value")
	assert.Contains(t, args, int64(499))
}

func TestUpdateEntryIsVersioned(t *testing.T) {
	r := testRepo(t)
	e := &entity.LedgerEntry{ID: id.New(), Number: "JV-2026-00001", Status: entity.EntryPosted, Version: 4}

	sql, args, err := r.updateEntryQuery(e).ToSql()

	require.NoError(t, err)
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $")
	assert.Contains(t, sql, "AND version = $")
	assert.Equal(t, int64(4), args[len(args)-1])
}

func TestAuditQueryFilters(t *testing.T) {
	r := testRepo(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sql, args, err := r.auditQuery(audit.Filter{
		EntityType: entity.EntityLedgerEntry,
		From:       &from,
		To:         &to,
		Limit:      50,
	}).ToSql()

	require.NoError(t, err)
	assert.Contains(t, sql, "entity_type = $1")
	assert.Contains(t, sql, "performed_at >= $2")
	assert.Contains(t, sql, "performed_at < $3")
	assert.NotContains(t, sql, "performed_by =")
	assert.Contains(t, sql, "ORDER BY performed_at DESC, id DESC LIMIT 50")
	assert.Len(t, args, 3)
}

func TestAuditQueryDefaultLimit(t *testing.T) {
	sql, _, err := testRepo(t).auditQuery(audit.Filter{}).ToSql()

	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "LIMIT 200")
}

func TestIntegrityQueriesCountPostedAndReversed(t *testing.T) {
	r := testRepo(t)

	for _, q := range []interface {
		ToSql() (string, []interface{}, error)
	}{r.accountTotalsQuery(), r.entryTotalsQuery()} {
		sql, args, err := q.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "e.status IN ($1,$2)")
		assert.Equal(t, []any{"posted", "reversed"}, args)
	}

	sql, _, err := r.movementTotalsQuery().ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "GROUP BY product_id, warehouse_id, movement_type")
}

func TestDetailsCompressedAboveThreshold(t *testing.T) {
	codec, err := newDetailsCodec(16)
	require.NoError(t, err)

	small := `{"lines":2}`
	text, compressed, algo := codec.encode(&small)
	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.Equal(t, &small, text)

	large := `{"memo":"` + strings.Repeat("x", 200) + `"}`
	text, compressed, algo = codec.encode(&large)
	assert.Equal(t, CompressionZstd, algo)
	assert.Nil(t, text)
	assert.Less(t, len(compressed), len(large))

	row := auditRow{DetailsCompressed: compressed, CompressionAlgo: algo}
	require.NoError(t, codec.decode(&row))
	require.NotNil(t, row.Details)
	assert.Equal(t, large, *row.Details)
	assert.Nil(t, row.DetailsCompressed)
}

func TestNilDetailsStayNil(t *testing.T) {
	codec, err := newDetailsCodec(16)
	require.NoError(t, err)

	text, compressed, algo := codec.encode(nil)

	assert.Nil(t, text)
	assert.Nil(t, compressed)
	assert.Equal(t, CompressionNone, algo)
}
