// Package runlog keeps a DynamoDB history of bootstrap invocations.
package runlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

// Records expire after 30 days via the table's TTL attribute.
const retention = 30 * 24 * time.Hour

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Entry is what the caller knows about one invocation.
type Entry struct {
	Database   string
	Role       string
	Outcome    string
	RowsTotal  int64
	Inserted   int64
	RoleAction string
	ErrorCode  string
	Error      string
	Duration   time.Duration
}

type item struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	RunID      string `dynamodbav:"RunId"`
	Database   string `dynamodbav:"Database"`
	Role       string `dynamodbav:"Role"`
	Outcome    string `dynamodbav:"Outcome"`
	RowsTotal  int64  `dynamodbav:"RowsTotal"`
	Inserted   int64  `dynamodbav:"Inserted"`
	RoleAction string `dynamodbav:"RoleAction,omitempty"`
	ErrorCode  string `dynamodbav:"ErrorCode,omitempty"`
	Error      string `dynamodbav:"Error,omitempty"`
	DurationMs int64  `dynamodbav:"DurationMs"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`
}

type Ledger struct {
	client PutItemAPI
	table  string

	now   func() time.Time
	newID func() string
}

// New returns a ledger writing to table. An empty table disables it.
func New(client PutItemAPI, table string) *Ledger {
	return &Ledger{
		client: client,
		table:  strings.TrimSpace(table),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (l *Ledger) Enabled() bool {
	return l != nil && l.table != "" && l.client != nil
}

// Record writes one run and returns its id; "" when the ledger is disabled.
func (l *Ledger) Record(ctx context.Context, e Entry) (string, error) {
	if !l.Enabled() {
		return "", nil
	}

	now := l.now().UTC()
	id := l.newID()
	it := item{
		PK:         "BOOTSTRAP#" + e.Database,
		SK:         fmt.Sprintf("RUN#%s#%s", now.Format(time.RFC3339Nano), id),
		RunID:      id,
		Database:   e.Database,
		Role:       e.Role,
		Outcome:    e.Outcome,
		RowsTotal:  e.RowsTotal,
		Inserted:   e.Inserted,
		RoleAction: e.RoleAction,
		ErrorCode:  e.ErrorCode,
		Error:      e.Error,
		DurationMs: e.Duration.Milliseconds(),
		CreatedAt:  now.Format(time.RFC3339),
		ExpiresAt:  now.Add(retention).Unix(),
	}

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return "", fmt.Errorf("marshal run: %w", err)
	}
	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      av,
	}); err != nil {
		return "", fmt.Errorf("put run: %w", err)
	}
	return id, nil
}
