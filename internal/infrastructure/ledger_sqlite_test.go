package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	ledger, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func newTestSession(t *testing.T, ledger *SQLiteLedger) *domain.Session {
	t.Helper()
	plan, ok := domain.PlanByType(domain.PlanQuick)
	require.True(t, ok)
	session, err := ledger.CreateSession(context.Background(), plan, "payment-ref")
	require.NoError(t, err)
	return session
}

func TestSQLiteLedger_CreateAndGetSession(t *testing.T) {
	ledger := newTestLedger(t)
	session := newTestSession(t, ledger)

	loaded, err := ledger.GetSession(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Token, loaded.Token)
	assert.Equal(t, domain.PlanQuick, loaded.PlanType)
	assert.Equal(t, 500, loaded.MaxSongs)
	assert.Zero(t, loaded.SongsUsed)
}

func TestSQLiteLedger_GetSessionUnknownToken(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.GetSession(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSQLiteLedger_SettleDebitsSession(t *testing.T) {
	ledger := newTestLedger(t)
	session := newTestSession(t, ledger)

	require.NoError(t, ledger.Settle(context.Background(), session.Token, "job-1", 7))

	loaded, err := ledger.GetSession(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.SongsUsed)

	settlement, err := ledger.Settled(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, settlement)
	assert.Equal(t, session.Token, settlement.SessionToken)
	assert.Equal(t, 7, settlement.Quantity)
}

func TestSQLiteLedger_SettleIsIdempotentPerJob(t *testing.T) {
	ledger := newTestLedger(t)
	session := newTestSession(t, ledger)

	require.NoError(t, ledger.Settle(context.Background(), session.Token, "job-1", 5))
	// Retrying the same job must not debit again.
	require.NoError(t, ledger.Settle(context.Background(), session.Token, "job-1", 5))

	loaded, err := ledger.GetSession(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.SongsUsed)

	// A different job debits on top.
	require.NoError(t, ledger.Settle(context.Background(), session.Token, "job-2", 3))
	loaded, err = ledger.GetSession(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.SongsUsed)
}

func TestSQLiteLedger_SettleUnknownSession(t *testing.T) {
	ledger := newTestLedger(t)

	err := ledger.Settle(context.Background(), "no-such-token", "job-1", 2)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSQLiteLedger_SettleNegativeQuantity(t *testing.T) {
	ledger := newTestLedger(t)
	session := newTestSession(t, ledger)

	require.Error(t, ledger.Settle(context.Background(), session.Token, "job-1", -1))
}

func TestSQLiteLedger_SettledNoneRecorded(t *testing.T) {
	ledger := newTestLedger(t)

	settlement, err := ledger.Settled(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Nil(t, settlement)
}
