// Package article 提供文章数据模型、存储抽象以及按图片宽度生成的 JSON 投影。
package article

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/tidwall/sjson"
)

// Article 内存中的文章对象
type Article struct {
	Key          string    `json:"key"`
	Title        string    `json:"title"`
	DisplayTitle string    `json:"displayTitle"`
	Lang         string    `json:"lang"`
	Dir          string    `json:"dir"`
	Revision     int64     `json:"revision"`
	LeadImage    *Image    `json:"leadImage,omitempty"`
	Sections     []Section `json:"sections"`
}

// Image 头图信息，Source 为原始缩略图地址
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Section 文章章节
type Section struct {
	ID     int    `json:"id"`
	Level  int    `json:"level"`
	Line   string `json:"line"`
	Anchor string `json:"anchor"`
	Text   string `json:"text"`
}

// Store 文章存储
type Store interface {
	// Article 按 key 查找文章；不存在时 found 为 false 且 err 为 nil
	Article(ctx context.Context, key string) (a Article, found bool, err error)
}

// MemoryStore 并发安全的内存文章存储
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]Article
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{articles: make(map[string]Article)}
}

// Put 写入或替换文章
func (s *MemoryStore) Put(a Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[a.Key] = a
}

func (s *MemoryStore) Article(_ context.Context, key string) (Article, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[key]
	return a, ok, nil
}

var ErrInvalidWidth = errors.New("article: image width must be positive")

var thumbWidth = regexp.MustCompile(`/(\d+)px-`)

// ThumbnailURL 将缩略图地址中的 /<N>px- 段替换为指定宽度；
// 不含该段或原图更窄时原样返回
func ThumbnailURL(source string, width, originalWidth int) string {
	if originalWidth > 0 && width >= originalWidth {
		return source
	}
	loc := thumbWidth.FindStringSubmatchIndex(source)
	if loc == nil {
		return source
	}
	return source[:loc[2]] + strconv.Itoa(width) + source[loc[3]:]
}

// Project 生成章节数据的 JSON 投影，头图按 width 调整
func Project(a Article, width int) ([]byte, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}
	out := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, v)
	}

	set("mobileview.normalizedtitle", a.Title)
	set("mobileview.displaytitle", displayTitle(a))
	set("mobileview.lang", a.Lang)
	set("mobileview.dir", a.Dir)
	set("mobileview.revision", a.Revision)
	if a.LeadImage != nil {
		set("mobileview.image.file", a.LeadImage.Source)
		set("mobileview.image.width", width)
		set("mobileview.thumb.url", ThumbnailURL(a.LeadImage.Source, width, a.LeadImage.Width))
		set("mobileview.thumb.width", min(width, orMax(a.LeadImage.Width)))
	}
	// 章节逐个生成后一次性写入，避免整篇文档被反复复制
	sections := make([]byte, 0, 64*len(a.Sections)+2)
	sections = append(sections, '[')
	for i, s := range a.Sections {
		if err != nil {
			break
		}
		var sec []byte
		sec, err = projectSection(s)
		if i > 0 {
			sections = append(sections, ',')
		}
		sections = append(sections, sec...)
	}
	sections = append(sections, ']')
	if err == nil {
		out, err = sjson.SetRawBytes(out, "mobileview.sections", sections)
	}
	if err != nil {
		return nil, fmt.Errorf("project article %s: %w", a.Key, err)
	}
	return out, nil
}

func projectSection(s Section) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	for _, f := range []struct {
		path string
		v    any
	}{
		{"id", s.ID},
		{"toclevel", s.Level},
		{"line", s.Line},
		{"anchor", s.Anchor},
		{"text", s.Text},
	} {
		if out, err = sjson.SetBytes(out, f.path, f.v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func displayTitle(a Article) string {
	if a.DisplayTitle != "" {
		return a.DisplayTitle
	}
	return a.Title
}

func orMax(w int) int {
	if w <= 0 {
		return int(^uint(0) >> 1)
	}
	return w
}
