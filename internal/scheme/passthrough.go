package scheme

import (
	"context"
	"net/url"

	"appscheme/internal/network"
	"appscheme/pkg/traffic"
)

// DefaultHandler 兜底处理器：去掉私有 scheme 后原样转发
type DefaultHandler struct {
	origin Origin
}

func NewDefaultHandler(origin Origin) *DefaultHandler {
	return &DefaultHandler{origin: origin}
}

func (h *DefaultHandler) BasePath() string { return "" }

// Resolve req 的 URL 已由调度器还原为真实地址
func (h *DefaultHandler) Resolve(_ context.Context, req *traffic.Request, _ []string, _ *url.URL) Outcome {
	return fetch(req.Clone(), network.PriorityNormal)
}

// InterceptedURL 将真实地址映射为私有 scheme 地址
func (h *DefaultHandler) InterceptedURL(real *url.URL) *url.URL {
	out := *real
	out.Scheme = h.origin.Scheme
	return &out
}
