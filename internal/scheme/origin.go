package scheme

import (
	"net/url"
	"strings"
)

// Origin 私有 scheme 与主机，用于构造拦截 URL
type Origin struct {
	Scheme string
	Host   string
}

func (o Origin) url(path, rawQuery, fragment string) *url.URL {
	return &url.URL{
		Scheme:   o.Scheme,
		Host:     o.Host,
		Path:     path,
		RawQuery: rawQuery,
		Fragment: fragment,
	}
}

// Owns 判断 URL 是否属于私有 scheme
func (o Origin) Owns(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, o.Scheme)
}
