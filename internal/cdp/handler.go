package cdp

import (
	"context"
	"net/url"

	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"

	adapter "appscheme/internal/adapter/cdp"
	"appscheme/internal/scheme"
)

// handlePaused 把一次暂停的请求交给调度器；不属于 origin 的请求直接放行
func (m *Manager) handlePaused(ev *fetch.RequestPausedReply) {
	id := ev.RequestID
	schemeURL, ok := adapter.ToSchemeURL(ev.Request.URL, m.origin, m.scheme.Scheme, m.upstream)
	if !ok {
		m.log.Debug("非拦截地址，继续请求", "url", ev.Request.URL)
		m.reply(id, func(ctx context.Context) error {
			return m.fetch.ContinueRequest(ctx, &fetch.ContinueRequestArgs{RequestID: id})
		})
		return
	}

	u, err := url.Parse(schemeURL)
	if err == nil {
		err = scheme.CheckAPIPath(scheme.PathComponents(u.Path))
	}
	if err != nil {
		m.log.Warn("拒绝不合法的拦截地址", "url", ev.Request.URL, "error", err)
		m.reply(id, func(ctx context.Context) error {
			return m.fetch.FailRequest(ctx, &fetch.FailRequestArgs{RequestID: id, ErrorReason: network.ErrorReasonFailed})
		})
		return
	}

	req := adapter.ToNeutralRequest(ev)
	req.URL = schemeURL
	key := requestKey(ev)
	task := &renderTask{m: m, id: id, key: key}
	r := scheme.NewRequest(m.target, req, task)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.inflight[key] = r
	m.mu.Unlock()

	m.log.Debug("转交调度器", "requestID", string(r.ID), "url", schemeURL, "method", req.Method)
	m.d.Start(r)

	// Detach 可能发生在登记之后、Start 之前，此时它的 Stop 没有生效
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		m.d.Stop(r)
	}
}

// handleFailed 页面取消加载时停止对应的请求
func (m *Manager) handleFailed(ev *network.LoadingFailedReply) {
	if ev.Canceled == nil || !*ev.Canceled {
		return
	}
	r, ok := m.take(string(ev.RequestID))
	if !ok {
		return
	}
	m.log.Debug("页面取消加载", "requestID", string(r.ID))
	m.d.Stop(r)
}

// take 取出并移除未完成的请求
func (m *Manager) take(key string) (*scheme.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.inflight[key]
	if ok {
		delete(m.inflight, key)
	}
	return r, ok
}

// reply 异步回复浏览器，调用方可能是调度器的控制 goroutine
func (m *Manager) reply(id fetch.RequestID, fn func(ctx context.Context) error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.replies.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.replies.Done()
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.log.Warn("回复拦截请求失败", "interceptionID", string(id), "error", err)
		}
	}()
}

// requestKey Network 事件以 networkId 标识请求，优先使用它
func requestKey(ev *fetch.RequestPausedReply) string {
	if ev.NetworkID != nil {
		return string(*ev.NetworkID)
	}
	return string(ev.RequestID)
}
