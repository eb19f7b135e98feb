package cdp

import (
	"bytes"
	"context"
	"net/http"

	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"

	adapter "appscheme/internal/adapter/cdp"
	"appscheme/internal/scheme"
	"appscheme/pkg/traffic"
)

// renderTask 收集调度器回调，在终态时一次性回复浏览器。
// 回调都在调度器控制 goroutine 上串行发生，因此无需加锁
type renderTask struct {
	m   *Manager
	id  fetch.RequestID
	key string

	resp *traffic.Response
	body bytes.Buffer
}

var _ scheme.Client = (*renderTask)(nil)

func (t *renderTask) DidReceiveResponse(resp *traffic.Response) {
	t.resp = resp
}

func (t *renderTask) DidReceiveData(data []byte) {
	t.body.Write(data)
}

func (t *renderTask) DidFinish(usedFallbackCache bool) {
	t.m.take(t.key)
	args := &fetch.FulfillRequestArgs{RequestID: t.id, ResponseCode: http.StatusOK}
	if t.resp != nil {
		args.ResponseCode = t.resp.StatusCode
		args.ResponseHeaders = adapter.ToHeaderEntries(t.resp.Headers)
	}
	if t.body.Len() > 0 {
		args.Body = bytes.Clone(t.body.Bytes())
	}
	if usedFallbackCache {
		t.m.log.Debug("使用本地缓存回复", "interceptionID", string(t.id))
	}
	t.m.reply(t.id, func(ctx context.Context) error {
		return t.m.fetch.FulfillRequest(ctx, args)
	})
}

func (t *renderTask) DidFail(err error) {
	t.m.take(t.key)
	reason := network.ErrorReasonFailed
	if scheme.IsCancelled(err) {
		reason = network.ErrorReasonAborted
	} else {
		t.m.log.Debug("拦截请求失败", "interceptionID", string(t.id), "error", err)
	}
	t.m.reply(t.id, func(ctx context.Context) error {
		return t.m.fetch.FailRequest(ctx, &fetch.FailRequestArgs{RequestID: t.id, ErrorReason: reason})
	})
}
