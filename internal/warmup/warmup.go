// Package warmup keeps API functions warm. A scheduled rule sends
// {"source":"warmup","concurrency":N}; the receiving instance answers
// without touching any backend and fans out N async self-invocations.
package warmup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const Source = "warmup"

// MaxConcurrency caps the fan-out requested by a single event.
const MaxConcurrency = 10

// Delay keeps this instance busy long enough for the fan-out to land on
// other instances.
const Delay = 75 * time.Millisecond

type Event struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

type Response struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

type InvokeAPI interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// Parse reports whether raw is a warmup event. Concurrency defaults to 0,
// negative values are treated as 0 and large ones are capped at
// MaxConcurrency.
func Parse(raw json.RawMessage) (Event, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Event{}, false
	}
	if src, _ := m["source"].(string); src != Source {
		return Event{}, false
	}
	ev := Event{Source: Source}
	if c, ok := m["concurrency"].(float64); ok && c > 0 {
		ev.Concurrency = int(min(c, MaxConcurrency))
	}
	return ev, true
}

type Warmer struct {
	client       InvokeAPI
	functionName string
	delay        time.Duration
}

func New(client InvokeAPI, functionName string) *Warmer {
	return &Warmer{client: client, functionName: functionName, delay: Delay}
}

// Handle answers one warmup event. Fan-out failures are returned alongside
// the response; the instance itself is warm either way.
func (w *Warmer) Handle(ctx context.Context, ev Event) (Response, error) {
	resp := Response{Status: "warm", InstancesWarmed: 1}

	n := min(ev.Concurrency, MaxConcurrency)
	var err error
	if n > 0 {
		if err = w.selfInvoke(ctx, n); err == nil {
			resp.InstancesWarmed += n
		}
	}

	if w.delay > 0 {
		select {
		case <-time.After(w.delay):
		case <-ctx.Done():
		}
	}
	return resp, err
}

func (w *Warmer) selfInvoke(ctx context.Context, count int) error {
	if w.client == nil || w.functionName == "" {
		return fmt.Errorf("self invoke: function name or client not configured")
	}

	// Children get concurrency 0 so they never fan out again.
	payload, err := json.Marshal(Event{Source: Source, Concurrency: 0})
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("self invoke %s: %w", w.functionName, err)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}
