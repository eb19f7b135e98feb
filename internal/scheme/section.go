package scheme

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"appscheme/internal/article"
	"appscheme/pkg/traffic"
)

// SectionBasePath 文章章节数据的基础路径
const SectionBasePath = "articleSectionData"

const (
	paramArticleKey = "articleKey"
	paramImageWidth = "imageWidth"
)

// SectionHandler 从内存文章生成 JSON 响应，不访问网络
type SectionHandler struct {
	origin  Origin
	store   article.Store
	project func(article.Article, int) ([]byte, error)
}

func NewSectionHandler(origin Origin, store article.Store) *SectionHandler {
	return &SectionHandler{origin: origin, store: store, project: article.Project}
}

func (h *SectionHandler) BasePath() string { return SectionBasePath }

func (h *SectionHandler) Resolve(ctx context.Context, _ *traffic.Request, _ []string, u *url.URL) Outcome {
	q := u.Query()
	key := q.Get(paramArticleKey)
	width, err := strconv.Atoi(q.Get(paramImageWidth))
	if key == "" || err != nil || width <= 0 {
		return fail(ErrInvalidParameters)
	}
	if h.store == nil {
		return fail(ErrInvalidParameters)
	}

	a, found, err := h.store.Article(ctx, key)
	if err != nil {
		return fail(fmt.Errorf("load article %s: %w", key, err))
	}
	if !found {
		return fail(ErrInvalidParameters)
	}

	data, err := h.project(a, width)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrResponseConstruction, err))
	}
	resp := traffic.NewResponse(u.String(), http.StatusOK)
	resp.Headers.Set("Content-Type", "application/json; charset=utf-8")
	return respond(resp, data)
}

// InterceptedURL 构造章节数据的拦截 URL
func (h *SectionHandler) InterceptedURL(articleKey string, imageWidth int) *url.URL {
	q := url.Values{}
	q.Set(paramArticleKey, articleKey)
	q.Set(paramImageWidth, strconv.Itoa(imageWidth))
	return h.origin.url("/"+SectionBasePath, q.Encode(), "")
}
