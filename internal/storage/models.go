package storage

import "time"

// ArticleRecord 文章表，Payload 为 article.Article 的 JSON
type ArticleRecord struct {
	Key       string `gorm:"primaryKey;column:article_key"`
	Payload   []byte
	UpdatedAt time.Time
}

// ValidatorRecord 网络校验信息表
type ValidatorRecord struct {
	URL       string `gorm:"primaryKey"`
	ETag      string
	Status    int
	Header    []byte
	Body      []byte
	UpdatedAt time.Time
}

// EventRecord 拦截事件日志表
type EventRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Type       string `gorm:"index"`
	Target     string
	RequestID  string `gorm:"index"`
	URL        string
	Method     string
	Handler    string
	StatusCode int
	Fallback   bool
	Error      string
	OccurredAt time.Time
}
