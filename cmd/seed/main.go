package main

import (
	"log"

	"shopassist-be/internal/config"
	"shopassist-be/internal/model"
	"shopassist-be/pkg/database"
	"shopassist-be/pkg/embedding"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Seeds a small demo catalog: products, per-store stock, and knowledge chunks
// with embeddings from the configured provider. Idempotent on SKU.
func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	} else {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	}

	log.Println("Seeding demo catalog...")

	products := []model.Product{
		{Sku: "88231", Name: "Vanta X9 65\" OLED TV", Brand: "Vanta", Category: "tv", Price: 1799,
			Attributes: datatypes.JSON(`{"panel":"OLED","refresh_rate":"120Hz","hdmi":"2.1"}`)},
		{Sku: "88245", Name: "Vanta Q7 65\" QLED TV", Brand: "Vanta", Category: "tv", Price: 1199,
			Attributes: datatypes.JSON(`{"panel":"QLED","refresh_rate":"120Hz","hdmi":"2.1"}`)},
		{Sku: "74102", Name: "Nimbus Air 14 Laptop", Brand: "Nimbus", Category: "laptop", Price: 949,
			Attributes: datatypes.JSON(`{"cpu":"8-core","ram":"16GB","storage":"512GB SSD"}`)},
		{Sku: "74188", Name: "Nimbus Pro 16 Laptop", Brand: "Nimbus", Category: "laptop", Price: 1649,
			Attributes: datatypes.JSON(`{"cpu":"12-core","ram":"32GB","storage":"1TB SSD"}`)},
		{Sku: "51220", Name: "Echofall Duo Soundbar", Brand: "Echofall", Category: "soundbar", Price: 399,
			Attributes: datatypes.JSON(`{"channels":"5.1","atmos":true}`)},
	}

	stock := []model.StoreStock{
		{Sku: "88231", StoreId: "STORE-01", StoreName: "Downtown", InStock: 4},
		{Sku: "88231", StoreId: "STORE-02", StoreName: "Riverside", InStock: 2},
		{Sku: "88245", StoreId: "STORE-01", StoreName: "Downtown", InStock: 0},
		{Sku: "88245", StoreId: "STORE-02", StoreName: "Riverside", InStock: 6},
		{Sku: "74102", StoreId: "STORE-01", StoreName: "Downtown", InStock: 9},
		{Sku: "74188", StoreId: "STORE-01", StoreName: "Downtown", InStock: 1},
		{Sku: "51220", StoreId: "STORE-01", StoreName: "Downtown", InStock: 12},
	}

	type chunkSeed struct {
		sku        string
		title      string
		kind       string
		body       string
		importance float64
	}

	chunks := []chunkSeed{
		{"88231", "Display", "specs", "65-inch OLED panel with a native 120Hz refresh rate, per-pixel dimming and near-infinite contrast. Supports Dolby Vision and HDR10+.", 0.9},
		{"88231", "Connectivity", "specs", "Four HDMI 2.1 ports with 4K@120 support, eARC on port 3, Wi-Fi 6 and Bluetooth 5.2.", 0.8},
		{"88231", "Warranty", "warranty", "Two-year manufacturer warranty covering panel defects including burn-in within the first year.", 0.6},
		{"88245", "Display", "specs", "65-inch QLED panel with quantum-dot color, 120Hz refresh rate and high peak brightness for daylight rooms.", 0.9},
		{"88245", "Gaming", "features", "Auto low-latency mode and VRR over HDMI 2.1 keep input lag under 10ms with current-gen consoles.", 0.8},
		{"74102", "Performance", "specs", "8-core processor with 16GB RAM and a 512GB SSD. Handles office work, web and light photo editing without fan noise.", 0.9},
		{"74102", "Battery", "specs", "Up to 14 hours of mixed use on a single charge; fast-charges to 50% in 35 minutes.", 0.8},
		{"74188", "Performance", "specs", "12-core processor, 32GB RAM and 1TB SSD aimed at video editing and heavy multitasking.", 0.9},
		{"51220", "Sound", "features", "5.1-channel soundbar with wireless subwoofer and Dolby Atmos height virtualization.", 0.9},
	}

	for _, p := range products {
		var existing model.Product
		if err := db.Where("sku = ?", p.Sku).First(&existing).Error; err == nil {
			log.Printf("Product '%s' already exists, skipping...", p.Sku)
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			log.Printf("Error creating product '%s': %v", p.Sku, err)
		}
	}

	for _, s := range stock {
		var existing model.StoreStock
		if err := db.Where("sku = ? AND store_id = ?", s.Sku, s.StoreId).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&s).Error; err != nil {
			log.Printf("Error creating stock row '%s/%s': %v", s.Sku, s.StoreId, err)
		}
	}

	for _, c := range chunks {
		var count int64
		db.Model(&model.CatalogChunk{}).
			Where("sku = ? AND section_type = ? AND section_title = ?", c.sku, c.kind, c.title).
			Count(&count)
		if count > 0 {
			continue
		}

		res, err := provider.Generate(c.title+"\n"+c.body, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("Error embedding chunk '%s/%s': %v", c.sku, c.title, err)
			continue
		}

		row := model.CatalogChunk{
			Sku:             c.sku,
			SectionTitle:    c.title,
			SectionType:     c.kind,
			SectionBody:     c.body,
			ImportanceScore: c.importance,
			EmbeddingValue:  pgvector.NewVector(res.Embedding.Values),
		}
		if err := db.Create(&row).Error; err != nil {
			log.Printf("Error creating chunk '%s/%s': %v", c.sku, c.title, err)
		} else {
			log.Printf("Created chunk: %s / %s", c.sku, c.title)
		}
	}

	log.Println("✅ Catalog seeding completed!")
}
