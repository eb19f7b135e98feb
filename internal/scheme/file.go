package scheme

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"appscheme/pkg/traffic"
)

// FileBasePath 本地资源的基础路径
const FileBasePath = "fileProxy"

// 只为样式、页面与脚本设置 Content-Type，其余扩展名不设置
var fileContentTypes = map[string]string{
	".css":  "text/css",
	".html": "text/html",
	".js":   "application/javascript",
}

// FileHandler 从资源根目录读取本地文件，并经由有界缓存返回
type FileHandler struct {
	origin Origin
	root   fs.FS
	cache  *ResponseCache
}

func NewFileHandler(origin Origin, root fs.FS, cache *ResponseCache) *FileHandler {
	return &FileHandler{origin: origin, root: root, cache: cache}
}

func (h *FileHandler) BasePath() string { return FileBasePath }

func (h *FileHandler) Resolve(_ context.Context, _ *traffic.Request, components []string, u *url.URL) Outcome {
	rel := components[1:]
	if len(rel) == 0 {
		return notFound(u)
	}
	for _, seg := range rel {
		if seg == ".." || seg == "." {
			return notFound(u)
		}
	}
	p := strings.Join(rel, "/")

	if resp, data, ok := h.cache.Get(p); ok {
		resp.URL = u.String()
		return respond(resp, data)
	}

	if !fs.ValidPath(p) {
		return notFound(u)
	}
	info, err := fs.Stat(h.root, p)
	if err != nil || !info.Mode().IsRegular() {
		return notFound(u)
	}
	data, err := fs.ReadFile(h.root, p)
	if err != nil {
		return fail(fmt.Errorf("read asset %s: %w", p, err))
	}

	resp := traffic.NewResponse(u.String(), http.StatusOK)
	if ct, ok := fileContentTypes[path.Ext(p)]; ok {
		resp.Headers.Set("Content-Type", ct)
	}
	h.cache.Put(p, resp, data)
	return respond(resp, data)
}

// InterceptedURL 构造指向本地资源的拦截 URL
func (h *FileHandler) InterceptedURL(relativePath, fragment string) *url.URL {
	return h.origin.url("/"+FileBasePath+"/"+strings.TrimPrefix(relativePath, "/"), "", fragment)
}
