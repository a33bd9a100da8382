// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"innovative-sphere-api/internal/domain/entity"
)

// CatalogKinds 需要建表的目录类型
var CatalogKinds = []entity.CatalogKind{entity.CatalogIndustry, entity.CatalogProjectType}

// AutoMigrate 创建目录表及索引
// 两张表结构相同，索引名按表名区分
func (c *Client) AutoMigrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.AutoMigrate")
	defer span.End()

	for _, kind := range CatalogKinds {
		table := kind.Table()
		db := c.db.WithContext(ctx)
		if err := db.Table(table).AutoMigrate(&entity.CatalogItem{}); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to migrate %s: %w", table, err)
		}

		for _, stmt := range catalogIndexes(table) {
			if err := db.Exec(stmt).Error; err != nil {
				span.RecordError(err)
				return fmt.Errorf("failed to create index on %s: %w", table, err)
			}
		}
	}
	return nil
}

func catalogIndexes(table string) []string {
	return []string{
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_slug ON %s (slug)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (LOWER(name))", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_is_active ON %s (is_active)", table, table),
	}
}
