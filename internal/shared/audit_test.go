package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingExecer struct {
	sql  string
	args []any
}

func (c *capturingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.CommandTag{}, nil
}

func TestAuditRecordUnsetTimeBecomesNull(t *testing.T) {
	db := &capturingExecer{}
	l := &AuditLogger{db: db}

	err := l.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "purchase.create",
		Entity:   "purchase",
		EntityID: "42",
	})
	require.NoError(t, err)

	// a zero time.Time would reach the server as 0001-01-01 and shadow the
	// COALESCE fallback to NOW()
	assert.Nil(t, db.args[5])
}

func TestAuditRecordKeepsExplicitTime(t *testing.T) {
	db := &capturingExecer{}
	l := &AuditLogger{db: db}
	at := time.Date(2026, time.February, 3, 12, 0, 0, 0, time.UTC)

	err := l.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "payment.confirm",
		Entity:   "payment",
		EntityID: "9",
		At:       at,
	})
	require.NoError(t, err)
	assert.Equal(t, at, db.args[5])
}

func TestAuditRecordValidatesRequiredFields(t *testing.T) {
	l := &AuditLogger{db: &capturingExecer{}}
	err := l.Record(context.Background(), AuditLog{ActorID: 7, Action: "purchase.create"})
	assert.Error(t, err)
}
