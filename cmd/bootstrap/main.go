package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"innovative-sphere-api/internal/config"
	"innovative-sphere-api/internal/domain/entity"
	"innovative-sphere-api/internal/infrastructure/persistence/postgres"
	"innovative-sphere-api/internal/wire"
)

type seed struct {
	slug        string
	name        string
	description string
}

var industries = []seed{
	{"healthcare", "Healthcare", "Medical, pharmaceutical, and health-related projects"},
	{"education", "Education", "Educational technology and learning platforms"},
	{"finance", "Finance", "Banking, fintech, and financial services"},
	{"technology", "Technology", "Software development and IT solutions"},
	{"ecommerce", "E-commerce", "Online retail and marketplace platforms"},
	{"manufacturing", "Manufacturing", "Industrial and production management systems"},
	{"entertainment", "Entertainment", "Media, gaming, and entertainment platforms"},
	{"transportation", "Transportation", "Logistics, mobility, and transportation solutions"},
}

var projectTypes = []seed{
	{"web-application", "Web Application", "Browser-based applications and web platforms"},
	{"mobile-application", "Mobile Application", "iOS and Android mobile applications"},
	{"desktop-software", "Desktop Software", "Cross-platform desktop applications"},
	{"iot-project", "IoT Project", "Internet of Things and connected devices"},
	{"data-science", "Data Science", "Data analysis and visualization projects"},
	{"machine-learning", "Machine Learning", "AI and machine learning applications"},
	{"game-development", "Game Development", "Video games and interactive entertainment"},
	{"blockchain", "Blockchain", "Decentralized applications and smart contracts"},
}

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 建表与索引
	if err := dataLayer.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 4. 写入初始目录数据，已存在的 slug 覆盖为初始值
	industryRepo := postgres.NewIndustryRepository(dataLayer.PgClient)
	projectTypeRepo := postgres.NewProjectTypeRepository(dataLayer.PgClient)

	err = dataLayer.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := upsertAll(ctx, industryRepo, industries); err != nil {
			return err
		}
		return upsertAll(ctx, projectTypeRepo, projectTypes)
	})
	if err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}

	fmt.Printf("Seeded %d industries\n", len(industries))
	fmt.Printf("Seeded %d project types\n", len(projectTypes))
	fmt.Println("Bootstrap completed successfully.")
}

func upsertAll(ctx context.Context, repo *postgres.CatalogRepository, seeds []seed) error {
	for _, s := range seeds {
		if err := repo.Upsert(ctx, entity.NewCatalogItem(s.name, s.slug, s.description)); err != nil {
			return err
		}
	}
	return nil
}
