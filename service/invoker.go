package service

import (
	"context"
	"math"
	"time"

	"datalens/config"

	"github.com/sirupsen/logrus"
)

// RetryPolicy 重试策略，延迟不加抖动
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy 共 5 次尝试，重试前依次等待 2s、4s、8s、16s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
	}
}

// Delay 第 retry 次重试（从 0 开始）前的等待时间
func (p RetryPolicy) Delay(retry int) time.Duration {
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(retry)))
}

// Invoker 在可重试错误上按指数退避重试推理调用
type Invoker struct {
	client ReasoningClient
	policy RetryPolicy
	sleep  func(time.Duration)
	log    *logrus.Logger
}

// InvokerOption 配置 Invoker
type InvokerOption func(*Invoker)

// WithRetryPolicy 替换重试策略
func WithRetryPolicy(p RetryPolicy) InvokerOption {
	return func(inv *Invoker) {
		inv.policy = p
	}
}

// WithSleeper 替换等待函数
func WithSleeper(sleep func(time.Duration)) InvokerOption {
	return func(inv *Invoker) {
		inv.sleep = sleep
	}
}

// NewInvoker 创建 Invoker
func NewInvoker(client ReasoningClient, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		client: client,
		policy: DefaultRetryPolicy(),
		sleep:  time.Sleep,
		log:    config.Logger(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke 每次尝试只调用一次上游；可重试错误耗尽后原样返回最后一个错误
// 调用开始后不随调用方取消而中止
func (inv *Invoker) Invoke(ctx context.Context, systemInstruction, prompt string) (string, error) {
	ctx = context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 0; attempt < inv.policy.MaxAttempts; attempt++ {
		text, err := inv.client.Generate(ctx, systemInstruction, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return "", err
		}
		if attempt == inv.policy.MaxAttempts-1 {
			break
		}

		delay := inv.policy.Delay(attempt)
		inv.log.WithFields(logrus.Fields{
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		}).Warn("推理服务繁忙，等待后重试")
		inv.sleep(delay)
	}
	return "", lastErr
}
