package runlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	puts []*dynamodb.PutItemInput
	err  error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func fixedLedger(client PutItemAPI, table string) *Ledger {
	l := New(client, table)
	l.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	l.newID = func() string { return "run-1" }
	return l
}

func str(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, key)
	return v.Value
}

func num(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberN)
	require.True(t, ok, key)
	return v.Value
}

func TestRecordSuccess(t *testing.T) {
	ddb := &fakeDynamo{}
	l := fixedLedger(ddb, " runs ")

	id, err := l.Record(context.Background(), Entry{
		Database: "app", Role: "app_user", Outcome: OutcomeOK,
		RowsTotal: 21, Inserted: 21, RoleAction: "created", Duration: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)

	require.Len(t, ddb.puts, 1)
	in := ddb.puts[0]
	assert.Equal(t, "runs", aws.ToString(in.TableName))

	it := in.Item
	assert.Equal(t, "BOOTSTRAP#app", str(t, it, "PK"))
	assert.Equal(t, "RUN#2025-03-01T12:00:00Z#run-1", str(t, it, "SK"))
	assert.Equal(t, "ok", str(t, it, "Outcome"))
	assert.Equal(t, "created", str(t, it, "RoleAction"))
	assert.Equal(t, "21", num(t, it, "RowsTotal"))
	assert.Equal(t, "1500", num(t, it, "DurationMs"))
	assert.Equal(t, "1743422400", num(t, it, "ExpiresAt"))
	assert.NotContains(t, it, "Error")
	assert.NotContains(t, it, "ErrorCode")
}

func TestRecordFailure(t *testing.T) {
	ddb := &fakeDynamo{}
	l := fixedLedger(ddb, "runs")

	_, err := l.Record(context.Background(), Entry{
		Database: "app", Role: "app_user", Outcome: OutcomeFailed,
		ErrorCode: "database_unavailable", Error: "dial: timeout",
	})
	require.NoError(t, err)
	it := ddb.puts[0].Item
	assert.Equal(t, "failed", str(t, it, "Outcome"))
	assert.Equal(t, "database_unavailable", str(t, it, "ErrorCode"))
	assert.Equal(t, "dial: timeout", str(t, it, "Error"))
}

func TestRecordDisabled(t *testing.T) {
	ddb := &fakeDynamo{}

	for _, l := range []*Ledger{New(ddb, ""), New(nil, "runs"), nil} {
		assert.False(t, l.Enabled())
		id, err := l.Record(context.Background(), Entry{Database: "app"})
		require.NoError(t, err)
		assert.Empty(t, id)
	}
	assert.Empty(t, ddb.puts)
}

func TestRecordPutError(t *testing.T) {
	l := New(&fakeDynamo{err: errors.New("throttled")}, "runs")
	_, err := l.Record(context.Background(), Entry{Database: "app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
