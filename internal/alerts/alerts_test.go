package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestNotifyFailure(t *testing.T) {
	client := &fakeSNS{}
	n := New(client, "arn:aws:sns:us-east-1:123456789012:ops")

	err := n.NotifyFailure(context.Background(), Failure{
		Function: "db-init",
		Database: "app",
		Role:     "app_user",
		Code:     "database_unavailable",
		Err:      errors.New("dial: i/o timeout"),
	})
	require.NoError(t, err)

	require.Len(t, client.published, 1)
	in := client.published[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:ops", aws.ToString(in.TopicArn))
	assert.Equal(t, "Student records: bootstrap failed (app)", aws.ToString(in.Subject))

	msg := aws.ToString(in.Message)
	assert.Contains(t, msg, "Database: app")
	assert.Contains(t, msg, "Role: app_user")
	assert.Contains(t, msg, "Error class: database_unavailable")
	assert.Contains(t, msg, "Function: db-init")
	assert.Contains(t, msg, "dial: i/o timeout")
}

func TestNotifyFailureDisabled(t *testing.T) {
	client := &fakeSNS{}
	for _, n := range []*Notifier{New(client, "  "), New(nil, "arn"), nil} {
		assert.False(t, n.Enabled())
		require.NoError(t, n.NotifyFailure(context.Background(), Failure{Database: "app"}))
	}
	assert.Empty(t, client.published)
}

func TestNotifyFailurePublishError(t *testing.T) {
	n := New(&fakeSNS{err: errors.New("AuthorizationError")}, "arn")
	err := n.NotifyFailure(context.Background(), Failure{Database: "app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AuthorizationError")
}

func TestSubjectIsTruncated(t *testing.T) {
	subject, _ := buildMessage(Failure{Database: strings.Repeat("d", 200)})
	assert.Len(t, subject, maxSubject)
}

func TestSubjectKeepsRunesWhole(t *testing.T) {
	subject, _ := buildMessage(Failure{Database: strings.Repeat("é", 80)})
	assert.True(t, utf8.ValidString(subject))
	assert.LessOrEqual(t, len(subject), maxSubject)
	assert.Greater(t, len(subject), maxSubject-2)
}
