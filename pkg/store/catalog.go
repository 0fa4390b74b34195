package store

// Chunk is a retrievable unit of catalog knowledge produced by the ingestion
// pipeline. The core only reads chunks; it never mutates them.
type Chunk struct {
	ChunkID         string  `json:"chunk_id"`
	SKU             string  `json:"sku"`
	SectionTitle    string  `json:"section_title"`
	SectionType     string  `json:"section_type"`
	SectionBody     string  `json:"section_body"`
	ImportanceScore float64 `json:"importance_score"` // static weight, 0..1
	SearchScore     float64 `json:"search_score"`     // query-time relevance
}

// ProductRecord holds the catalog attributes for a single SKU.
type ProductRecord struct {
	SKU        string                 `json:"sku"`
	Name       string                 `json:"name"`
	Brand      string                 `json:"brand"`
	Category   string                 `json:"category"`
	Price      float64                `json:"price"`
	Attributes map[string]interface{} `json:"attributes"`
}

// NearbyStock is the stock level of one nearby store.
type NearbyStock struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	InStock   int    `json:"in_stock"`
}

// Availability is the fulfilment picture for a SKU at a given store.
type Availability struct {
	SKU         string        `json:"sku"`
	StoreID     string        `json:"store_id"`
	InStock     int           `json:"in_stock"`
	NearbyStock []NearbyStock `json:"nearby_stock"`
}
