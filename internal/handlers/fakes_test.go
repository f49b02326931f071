package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"studentrecords/internal/apperrors"
	"studentrecords/internal/logging"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, id string) (string, error) {
	v, ok := f[id]
	if !ok {
		return "", fmt.Errorf("get secret %q: %w", id, apperrors.ErrConfiguration)
	}
	return v, nil
}

type fakeDynamo struct{ puts []*dynamodb.PutItemInput }

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

type fakeSNS struct{ published []*sns.PublishInput }

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, in)
	return &sns.PublishOutput{}, nil
}

func testLogger(buf *bytes.Buffer) zerolog.Logger {
	return logging.New(logging.Config{Level: "debug", Output: buf, Function: "test"})
}

func decodeBody(t *testing.T, resp events.APIGatewayV2HTTPResponse) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &m))
	return m
}

func apiEvent(t *testing.T, req events.APIGatewayV2HTTPRequest) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return b
}
