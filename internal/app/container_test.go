package app

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/config"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/apperror"
	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/core/tx"
	"github.com/peterpeto56u-code/MarcoERP-sub005/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage:   config.StorageMemory,
		ReportTTL: time.Hour,
	}
}

func TestNewMemoryContainer(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, memoryConfig(), logger.NewNop(), Options{})
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Memory)
	assert.Nil(t, c.Pool)
	assert.Nil(t, c.Reports)

	year := time.Now().UTC().Year()
	var number string
	err = c.TxManager.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		var err error
		number, err = c.Numbers.NextNumber(ctx, "JV", int64(year))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "JV-"+strconv.Itoa(year)+"-00001", number)

	report, err := c.Integrity.RunFullCheck(ctx)
	require.NoError(t, err)
	assert.True(t, report.Healthy)
}

func TestNewWithReportCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	ctx := context.Background()
	c, err := New(ctx, cfg, logger.NewNop(), Options{WithReportCache: true})
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Reports)
	report, err := c.Integrity.RunFullCheck(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Reports.Save(ctx, report))

	last, err := c.Reports.Last(ctx)
	require.NoError(t, err)
	assert.True(t, last.Healthy)
}

func TestNewUnknownFiscalYear(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, memoryConfig(), logger.NewNop(), Options{})
	require.NoError(t, err)
	defer c.Close()

	err = c.TxManager.RunInTransactionWithOptions(ctx, tx.SerializableOptions(), func(ctx context.Context) error {
		_, err := c.Numbers.NextNumber(ctx, "JV", 1999)
		return err
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestNewRejectsBadNumberingFile(t *testing.T) {
	cfg := memoryConfig()
	cfg.NumberingFile = "/nonexistent/numbering.yaml"
	_, err := New(context.Background(), cfg, logger.NewNop(), Options{})
	require.Error(t, err)
}
