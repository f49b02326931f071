// Package alerts notifies operators when a bootstrap run fails.
package alerts

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Failure struct {
	Function string
	Database string
	Role     string
	Code     string
	Err      error
}

type Notifier struct {
	client   PublishAPI
	topicArn string
}

// New returns a notifier publishing to topicArn. An empty topic disables it.
func New(client PublishAPI, topicArn string) *Notifier {
	return &Notifier{client: client, topicArn: strings.TrimSpace(topicArn)}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil && n.topicArn != ""
}

func (n *Notifier) NotifyFailure(ctx context.Context, f Failure) error {
	if !n.Enabled() {
		return nil
	}
	subject, message := buildMessage(f)
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// SNS subjects are capped at 100 characters.
const maxSubject = 100

func buildMessage(f Failure) (subject, body string) {
	subject = fmt.Sprintf("Student records: bootstrap failed (%s)", f.Database)
	subject = truncateRunes(subject, maxSubject)

	lines := []string{
		"Student records bootstrap failure",
		"",
		fmt.Sprintf("Database: %s", f.Database),
		fmt.Sprintf("Role: %s", f.Role),
		fmt.Sprintf("Error class: %s", f.Code),
	}
	if f.Function != "" {
		lines = append(lines, fmt.Sprintf("Function: %s", f.Function))
	}
	if f.Err != nil {
		lines = append(lines, "", f.Err.Error())
	}
	return subject, strings.Join(lines, "\n")
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
