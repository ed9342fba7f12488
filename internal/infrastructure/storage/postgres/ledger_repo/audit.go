package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/entity"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/domain/audit"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/infrastructure/storage/postgres"
)

// DefaultCompressThreshold is the details size above which audit details
// are stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// Compression algorithms recorded in sys_audit.compression_algo.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

type detailsCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

func newDetailsCodec(threshold int) (*detailsCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &detailsCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// encode returns the plain text column, the compressed column and the algorithm.
func (c *detailsCodec) encode(details *string) (*string, []byte, string) {
	if details == nil || len(*details) <= c.threshold {
		return details, nil, CompressionNone
	}
	return nil, c.encoder.EncodeAll([]byte(*details), nil), CompressionZstd
}

func (c *detailsCodec) decode(row *auditRow) error {
	if row.CompressionAlgo != CompressionZstd || len(row.DetailsCompressed) == 0 {
		return nil
	}
	plain, err := c.decoder.DecodeAll(row.DetailsCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit details %s: %w", row.ID, err)
	}
	text := string(plain)
	row.Details = &text
	row.DetailsCompressed = nil
	return nil
}

type auditRow struct {
	entity.AuditRecord
	DetailsCompressed []byte `db:"details_compressed"`
	CompressionAlgo   string `db:"compression_algo"`
}

// Append inserts one record through the transaction in ctx.
func (r *Repo) Append(ctx context.Context, rec *entity.AuditRecord) error {
	details, compressed, algo := r.details.encode(rec.Details)

	sql, args, err := r.builder.Insert(auditTable).
		Columns("id", "entity_type", "entity_id", "action", "performed_by", "performed_at",
			"details", "details_compressed", "compression_algo").
		Values(rec.ID, rec.EntityType, rec.EntityID, rec.Action, rec.PerformedBy, rec.Timestamp,
			details, compressed, algo).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.Translate("append audit record", err)
	}
	return nil
}

func (r *Repo) auditQuery(filter audit.Filter) squirrel.SelectBuilder {
	q := r.builder.Select(postgres.DBColumns[auditRow]()...).From(auditTable)
	if filter.EntityType != "" {
		q = q.Where(squirrel.Eq{"entity_type": filter.EntityType})
	}
	if filter.EntityID != "" {
		q = q.Where(squirrel.Eq{"entity_id": filter.EntityID})
	}
	if filter.PerformedBy != "" {
		q = q.Where(squirrel.Eq{"performed_by": filter.PerformedBy})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"performed_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"performed_at": *filter.To})
	}
	return q.OrderBy("performed_at DESC", "id DESC").Limit(uint64(filter.EffectiveLimit()))
}

// Query returns matching records, newest first.
func (r *Repo) Query(ctx context.Context, filter audit.Filter) ([]entity.AuditRecord, error) {
	sql, args, err := r.auditQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.Translate("query audit", err)
	}

	out := make([]entity.AuditRecord, len(rows))
	for i := range rows {
		if err := r.details.decode(&rows[i]); err != nil {
			return nil, err
		}
		out[i] = rows[i].AuditRecord
	}
	return out, nil
}
