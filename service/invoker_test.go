package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient 按顺序返回预设结果
type scriptedClient struct {
	errs  []error
	text  string
	calls int
	ctxs  []context.Context
}

func (s *scriptedClient) Generate(ctx context.Context, _, _ string) (string, error) {
	s.ctxs = append(s.ctxs, ctx)
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.text, nil
}

func recordSleeps(delays *[]time.Duration) InvokerOption {
	return WithSleeper(func(d time.Duration) { *delays = append(*delays, d) })
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Delay(0))
	assert.Equal(t, 4*time.Second, p.Delay(1))
	assert.Equal(t, 8*time.Second, p.Delay(2))
	assert.Equal(t, 16*time.Second, p.Delay(3))
}

func TestInvoker_RetriesThenSucceeds(t *testing.T) {
	client := &scriptedClient{
		errs: []error{
			&UpstreamError{Status: 429, Message: "Resource has been exhausted"},
			&UpstreamError{Status: 429, Message: "Resource has been exhausted"},
		},
		text: `{"insights":[]}`,
	}
	var delays []time.Duration
	inv := NewInvoker(client, recordSleeps(&delays))

	text, err := inv.Invoke(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"insights":[]}`, text)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestInvoker_ExhaustsAndReturnsLastError(t *testing.T) {
	errs := make([]error, 5)
	for i := range errs {
		errs[i] = &UpstreamError{Status: 503, Message: "overloaded"}
	}
	client := &scriptedClient{errs: errs}
	var delays []time.Duration
	inv := NewInvoker(client, recordSleeps(&delays))

	_, err := inv.Invoke(context.Background(), "sys", "prompt")
	require.Error(t, err)
	assert.Same(t, errs[4], err)
	assert.Equal(t, 5, client.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}, delays)

	var total time.Duration
	for _, d := range delays {
		total += d
	}
	assert.Equal(t, 30*time.Second, total)
}

func TestInvoker_NonTransientFailsImmediately(t *testing.T) {
	invalid := &UpstreamError{Status: 400, Message: "API key not valid. Please pass a valid API key."}
	client := &scriptedClient{errs: []error{invalid}}
	var delays []time.Duration
	inv := NewInvoker(client, recordSleeps(&delays))

	_, err := inv.Invoke(context.Background(), "sys", "prompt")
	assert.Same(t, invalid, err)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, delays)
}

func TestInvoker_IgnoresCallerCancellation(t *testing.T) {
	client := &scriptedClient{
		errs: []error{errors.New("model is experiencing high demand")},
		text: "{}",
	}
	ctx, cancel := context.WithCancel(context.Background())
	inv := NewInvoker(client, WithSleeper(func(time.Duration) { cancel() }))

	text, err := inv.Invoke(ctx, "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "{}", text)
	for _, c := range client.ctxs {
		assert.NoError(t, c.Err())
	}
}

func TestInvoker_CustomPolicy(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("503"), errors.New("503")}}
	var delays []time.Duration
	inv := NewInvoker(client,
		WithRetryPolicy(RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 3}),
		recordSleeps(&delays))

	_, err := inv.Invoke(context.Background(), "sys", "prompt")
	assert.EqualError(t, err, "503")
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, []time.Duration{time.Millisecond}, delays)
}
