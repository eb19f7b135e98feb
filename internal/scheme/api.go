package scheme

import (
	"context"
	"fmt"
	"net/url"

	"appscheme/internal/network"
	"appscheme/pkg/traffic"
)

// APIBasePath API 代理的基础路径
const APIBasePath = "APIProxy"

// APIHandler 把 /APIProxy/<host>/<seg1>/<seg2> 改写为 https://<host>/<seg1>/<seg2>，
// 以低优先级转发
type APIHandler struct {
	origin Origin
}

func NewAPIHandler(origin Origin) *APIHandler {
	return &APIHandler{origin: origin}
}

func (h *APIHandler) BasePath() string { return APIBasePath }

// CheckAPIPath 校验 API 代理路径形状。来自页面等不受信任来源的地址
// 须在 Start 前调用，Resolve 遇到错误形状会 panic
func CheckAPIPath(components []string) error {
	if len(components) > 0 && components[0] == APIBasePath && len(components) != 4 {
		return fmt.Errorf("%w: %s path needs host and two segments", ErrInvalidParameters, APIBasePath)
	}
	return nil
}

// Resolve 路径形状错误意味着内部生成器有缺陷，直接 panic
func (h *APIHandler) Resolve(_ context.Context, req *traffic.Request, components []string, u *url.URL) Outcome {
	if len(components) != 4 {
		panic(fmt.Sprintf("scheme: malformed %s path %q", APIBasePath, u.Path))
	}
	target := url.URL{
		Scheme:   "https",
		Host:     components[1],
		Path:     "/" + components[2] + "/" + components[3],
		RawQuery: u.RawQuery,
	}
	out := req.Clone()
	out.URL = target.String()
	return fetch(out, network.PriorityLow)
}

// InterceptedURL 由真实 API 地址构造拦截 URL；路径必须恰好两段
func (h *APIHandler) InterceptedURL(real *url.URL) (*url.URL, bool) {
	segs := PathComponents(real.Path)
	if real.Host == "" || len(segs) != 2 {
		return nil, false
	}
	return h.origin.url("/"+APIBasePath+"/"+real.Host+"/"+segs[0]+"/"+segs[1], real.RawQuery, ""), true
}
