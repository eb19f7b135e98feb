package scheme

import (
	"github.com/google/uuid"

	"appscheme/pkg/domain"
	"appscheme/pkg/traffic"
)

// Client 渲染端回调，均在调度器的控制 goroutine 上调用。
// 实现不得阻塞，也不得在回调中同步调用 Dispatcher 的方法。
type Client interface {
	DidReceiveResponse(resp *traffic.Response)
	DidReceiveData(data []byte)
	DidFinish(usedFallbackCache bool)
	DidFail(err error)
}

// Request 一次被拦截的加载。以指针身份区分，内容相同的两个请求互不影响
type Request struct {
	ID     domain.RequestID
	Target domain.TargetID

	original *traffic.Request
	client   Client
}

// NewRequest 创建拦截请求句柄
func NewRequest(target domain.TargetID, original *traffic.Request, client Client) *Request {
	return &Request{
		ID:       domain.RequestID(uuid.NewString()),
		Target:   target,
		original: original.Clone(),
		client:   client,
	}
}

// Original 返回原始请求的副本
func (r *Request) Original() *traffic.Request {
	return r.original.Clone()
}
