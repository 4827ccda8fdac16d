package middleware

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 限流器接口，HTTP 网关在入口处统一调用。
type RateLimiter interface {
	Allow(ctx context.Context) bool
}

// TokenBucket 令牌桶限流器：容量决定突发上限，refillRate 决定稳态吞吐。
type TokenBucket struct {
	capacity   int64 // 桶容量
	tokens     int64 // 当前令牌数
	refillRate int64 // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建令牌桶，初始为满。
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow 消费一个令牌；桶空时拒绝。
func (tb *TokenBucket) Allow(ctx context.Context) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	if tokensToAdd := int64(elapsed * float64(tb.refillRate)); tokensToAdd > 0 {
		tb.tokens = min(tb.tokens+tokensToAdd, tb.capacity)
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// SlidingWindow 滑动窗口限流器：窗口内最多放行 maxRequests 个请求。
type SlidingWindow struct {
	requests    []time.Time
	window      time.Duration
	maxRequests int
	mu          sync.Mutex
}

// NewSlidingWindow 创建滑动窗口限流器。
func NewSlidingWindow(window time.Duration, maxRequests int) *SlidingWindow {
	return &SlidingWindow{
		requests:    make([]time.Time, 0, maxRequests),
		window:      window,
		maxRequests: maxRequests,
	}
}

// Allow 淘汰窗口外的记录后判断是否放行。
func (sw *SlidingWindow) Allow(ctx context.Context) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	windowStart := time.Now().Add(-sw.window)

	// 原地压缩，只保留窗口内的请求
	kept := sw.requests[:0]
	for _, at := range sw.requests {
		if at.After(windowStart) {
			kept = append(kept, at)
		}
	}
	sw.requests = kept

	if len(sw.requests) >= sw.maxRequests {
		return false
	}
	sw.requests = append(sw.requests, time.Now())
	return true
}
