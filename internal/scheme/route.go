package scheme

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"appscheme/internal/network"
	"appscheme/pkg/traffic"
)

// OutcomeKind 子处理器解析结果类型
type OutcomeKind int

const (
	// OutcomeResponse 本地合成的完整响应
	OutcomeResponse OutcomeKind = iota + 1
	// OutcomeFetch 需要通过网络会话获取
	OutcomeFetch
	// OutcomeFailure 类型化的失败
	OutcomeFailure
)

// Outcome 子处理器的解析结果
type Outcome struct {
	Kind OutcomeKind

	Response *traffic.Response
	Data     []byte

	Target   *traffic.Request
	Priority network.Priority

	Err error
}

func respond(resp *traffic.Response, data []byte) Outcome {
	return Outcome{Kind: OutcomeResponse, Response: resp, Data: data}
}

func fetch(target *traffic.Request, priority network.Priority) Outcome {
	return Outcome{Kind: OutcomeFetch, Target: target, Priority: priority}
}

func fail(err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// notFound 本地未找到时的 404 结果，不是错误
func notFound(u *url.URL) Outcome {
	return respond(traffic.NewResponse(u.String(), http.StatusNotFound), nil)
}

// Handler 子处理器：声明基础路径并把拦截请求解析为结果。
// Resolve 在后台队列执行，可以进行本地 I/O，但不得触碰调度器状态。
type Handler interface {
	// BasePath 首个路径段；兜底处理器返回空串
	BasePath() string
	Resolve(ctx context.Context, req *traffic.Request, components []string, u *url.URL) Outcome
}

// Router 按首个路径段选择子处理器
type Router struct {
	handlers []Handler
	fallback Handler
}

// NewRouter fallback 负责所有未声明的基础路径
func NewRouter(fallback Handler, handlers ...Handler) *Router {
	return &Router{handlers: handlers, fallback: fallback}
}

// Route 返回拥有该请求的子处理器，划分是完整且互斥的
func (r *Router) Route(components []string) Handler {
	if len(components) > 0 {
		for _, h := range r.handlers {
			if h.BasePath() == components[0] {
				return h
			}
		}
	}
	return r.fallback
}

// PathComponents 拆分 URL 路径，忽略空段
func PathComponents(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
