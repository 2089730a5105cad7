package limiter

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// 限速器接口，统一了不同限速器的行为
type RateLimiter interface {
	Wait(context.Context) error // 阻塞直到允许下一次请求，或上下文被取消
	Limit() rate.Limit
}

/*
输入两次请求之间的最小间隔，输出限速器

桶容量为1，第一次Wait立即返回，之后每次Wait至少间隔delay；delay为0时不限速
*/
func NewDelayLimiter(delay time.Duration) RateLimiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// 在duration内最多允许eventCount次请求
func NewWindowLimiter(eventCount int, duration time.Duration) RateLimiter {
	return rate.NewLimiter(Per(eventCount, duration), 1)
}

// 将多个限速器按速率限制从小到大排序，然后返回一个多限速器实例
func Multi(limiters ...RateLimiter) RateLimiter {
	byLimit := func(i, j int) bool {
		return limiters[i].Limit() < limiters[j].Limit()
	}
	sort.Slice(limiters, byLimit)
	return &multiLimiter{limiters: limiters}
}

type multiLimiter struct {
	limiters []RateLimiter
}

// 依次等待每个限速器，任意一个返回错误即返回
func (l *multiLimiter) Wait(ctx context.Context) error {
	for _, l := range l.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// 最严格的速率
func (l *multiLimiter) Limit() rate.Limit {
	if len(l.limiters) == 0 {
		return rate.Inf
	}
	return l.limiters[0].Limit()
}

// 把“duration内eventCount次”换算为令牌间隔
func Per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}
