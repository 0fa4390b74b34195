package synth

import (
	"shopassist-be/pkg/store"
)

// Tier labels how the answer was produced. Tiers only ever degrade downward
// within a single turn: LLM_JSON → LLM_TEXT_HEURISTIC → CONTEXT_ONLY.
type Tier string

const (
	TierLLMJSON          Tier = "LLM_JSON"
	TierLLMTextHeuristic Tier = "LLM_TEXT_HEURISTIC"
	TierContextOnly      Tier = "CONTEXT_ONLY"
)

// StockBlock reports the fulfilment picture for the answered SKU.
type StockBlock struct {
	SKU          string              `json:"sku"`
	StoreID      string              `json:"store_id"`
	InStock      int                 `json:"in_stock"`
	NearbyStores []store.NearbyStock `json:"nearby_stores"`
}

// AlternativeBlock is an in-stock substitute offered when the asked-about
// product is unavailable.
type AlternativeBlock struct {
	SKU    string  `json:"sku"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Reason string  `json:"reason"`
}

// StructuredAnswer is the synthesizer's output contract. Every field is always
// present, even when empty or null; consumers never see a partial key set.
type StructuredAnswer struct {
	Summary               string            `json:"summary"`
	KeyPoints             []string          `json:"key_points"`
	Attachments           []string          `json:"attachments"`
	Stock                 *StockBlock       `json:"stock"`
	OutOfStockAlternative *AlternativeBlock `json:"out_of_stock_alternative"`
	SentimentNote         string            `json:"sentiment_note"`
	ComplianceFlags       []string          `json:"compliance_flags"`
	Citations             []string          `json:"citations"`
	Tier                  Tier              `json:"tier"`
}

// normalize replaces nil slices with empty ones so serialized answers always
// carry the full key set.
func (a *StructuredAnswer) normalize() {
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.Attachments == nil {
		a.Attachments = []string{}
	}
	if a.ComplianceFlags == nil {
		a.ComplianceFlags = []string{}
	}
	if a.Citations == nil {
		a.Citations = []string{}
	}
	if a.Stock != nil && a.Stock.NearbyStores == nil {
		a.Stock.NearbyStores = []store.NearbyStock{}
	}
}
