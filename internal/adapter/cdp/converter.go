package cdp

import (
	"net/url"
	"sort"
	"strings"

	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/tidwall/gjson"

	"appscheme/pkg/traffic"
)

// ToNeutralRequest 将 CDP 暂停事件转换为中立 Request 模型
func ToNeutralRequest(ev *fetch.RequestPausedReply) *traffic.Request {
	req := traffic.NewRequest(ev.Request.Method, ev.Request.URL)

	// Headers 是原始 JSON 对象
	if len(ev.Request.Headers) > 0 {
		gjson.ParseBytes(ev.Request.Headers).ForEach(func(k, v gjson.Result) bool {
			req.Headers.Set(k.String(), v.String())
			return true
		})
	}
	if ev.Request.PostData != nil {
		req.Body = []byte(*ev.Request.PostData)
	}
	return req
}

// ToHeaderEntries 将中立 Header 转换为 CDP Header 条目，按名称排序
func ToHeaderEntries(h traffic.Header) []fetch.HeaderEntry {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]fetch.HeaderEntry, 0, len(h))
	for _, k := range keys {
		entries = append(entries, fetch.HeaderEntry{Name: k, Value: h[k]})
	}
	return entries
}

// ToSchemeURL 把浏览器侧的 origin 地址映射为私有 scheme 地址。
// 不属于 origin 的地址返回 false
func ToSchemeURL(raw string, origin *url.URL, scheme, host string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, origin.Scheme) || !strings.EqualFold(u.Host, origin.Host) {
		return "", false
	}
	u.Scheme = scheme
	u.Host = host
	u.Fragment = ""
	return u.String(), true
}
