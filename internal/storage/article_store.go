package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appscheme/internal/article"
)

// ArticleStore 基于 SQLite 的文章存储
type ArticleStore struct {
	db *gorm.DB
}

func NewArticleStore(db *gorm.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Article 实现 article.Store
func (s *ArticleStore) Article(ctx context.Context, key string) (article.Article, bool, error) {
	var rec ArticleRecord
	err := s.db.WithContext(ctx).Where("article_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return article.Article{}, false, nil
	}
	if err != nil {
		return article.Article{}, false, fmt.Errorf("load article %s: %w", key, err)
	}
	var a article.Article
	if err := json.Unmarshal(rec.Payload, &a); err != nil {
		return article.Article{}, false, fmt.Errorf("decode article %s: %w", key, err)
	}
	return a, true, nil
}

// Put 写入或替换文章
func (s *ArticleStore) Put(ctx context.Context, a article.Article) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode article %s: %w", a.Key, err)
	}
	rec := ArticleRecord{Key: a.Key, Payload: payload}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save article %s: %w", a.Key, err)
	}
	return nil
}
