// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
	"unicode"
)

// CatalogKind 目录类型
type CatalogKind string

const (
	CatalogIndustry    CatalogKind = "industry"
	CatalogProjectType CatalogKind = "project_type"
)

// Table 返回目录类型对应的表名
func (k CatalogKind) Table() string {
	switch k {
	case CatalogIndustry:
		return "industries"
	case CatalogProjectType:
		return "project_types"
	default:
		return ""
	}
}

// Label 返回面向用户的名称
func (k CatalogKind) Label() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// CatalogItem 行业或项目类型条目
// 两类目录结构一致，分别存储在 industries 与 project_types 表
type CatalogItem struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug        string    `gorm:"size:100;not null"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"size:500"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// 字段长度限制
const (
	CatalogNameMaxLen        = 100
	CatalogDescriptionMaxLen = 500
)

// NewCatalogItem 创建目录条目，slug 为空时由名称生成
func NewCatalogItem(name, slug, description string) *CatalogItem {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(name)
	} else {
		slug = Slugify(slug)
	}
	now := time.Now()
	return &CatalogItem{
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Matches 判断输入是否命中该条目的 slug 或名称（忽略大小写）
func (c *CatalogItem) Matches(value string) bool {
	value = strings.TrimSpace(value)
	return strings.EqualFold(c.Slug, value) || strings.EqualFold(c.Name, value)
}

// Slugify 转为小写短横线形式，例如 "E-commerce" -> "e-commerce"，"IoT Project" -> "iot-project"
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}
