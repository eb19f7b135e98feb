package traffic

import (
	"net/http"
	"strings"
)

// Header 封装通用的头部操作，键统一为小写
type Header map[string]string

// Get 获取指定 Header 的值（大小写不敏感）
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Has 判断指定 Header 是否存在
func (h Header) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h[strings.ToLower(key)]
	return ok
}

// Set 设置指定 Header 的值（自动转换为小写）
func (h Header) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// SetIfAbsent 仅在 Header 不存在时设置
func (h Header) SetIfAbsent(key, value string) bool {
	if h.Has(key) {
		return false
	}
	h.Set(key, value)
	return true
}

// Del 删除指定 Header
func (h Header) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Clone 返回 Header 的副本
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Request 中立的请求模型
type Request struct {
	URL     string // 完整URL
	Method  string // HTTP方法
	Headers Header // 请求头
	Body    []byte // 请求体原始数据（仅透传）
}

// Response 中立的响应模型
type Response struct {
	URL        string // 响应对应的URL
	StatusCode int    // 状态码
	Headers    Header // 响应头
}

// NewRequest 创建初始化请求对象
func NewRequest(method, rawURL string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		URL:     rawURL,
		Method:  method,
		Headers: make(Header),
	}
}

// Clone 深拷贝请求对象
func (r *Request) Clone() *Request {
	out := *r
	out.Headers = r.Headers.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

// NewResponse 创建初始化响应对象
func NewResponse(rawURL string, status int) *Response {
	return &Response{
		URL:        rawURL,
		StatusCode: status,
		Headers:    make(Header),
	}
}

// IsSuccess 判断状态码是否为 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
