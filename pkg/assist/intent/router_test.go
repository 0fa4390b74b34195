package intent

import (
	"testing"

	"shopassist-be/pkg/assist/state"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	withActive := state.New("c1", "s1")
	withActive.ActiveSKU = "88231"

	tests := []struct {
		name        string
		text        string
		st          *state.ConversationState
		explicitSKU string
		wantType    Type
	}{
		{"explicit sku token", "Is SKU 12345 good for gaming?", nil, "", ProductDeepdive},
		{"explicit sku out of band", "is it any good?", nil, "88231", ProductDeepdive},
		{"coaching objection", "customer says it's too expensive, what should I say?", nil, "", SalesCoaching},
		{"definitional no product", "what is HDR exactly?", nil, "", GeneralInfo},
		{"comparison with product", "Vanta TV versus the cheaper one?", nil, "", Comparison},
		{"comparison with active product", "how does it compare versus the other model", withActive, "", Comparison},
		{"deepdive on active product", "what about nearby stores", withActive, "", ProductDeepdive},
		{"discovery by budget", "laptop under 1000", nil, "", ProductDiscovery},
		{"discovery by recommendation cue", "recommend something for a dorm room", nil, "", ProductDiscovery},
		{"default route", "hello there", nil, "", GeneralInfo},
	}

	r := NewRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Classify(tt.text, tt.st, tt.explicitSKU)
			assert.Equal(t, tt.wantType, got.Type)
		})
	}
}

// Any explicit SKU must win over every other signal with high confidence.
func TestClassifyExplicitSKUAlwaysWins(t *testing.T) {
	r := NewRouter()
	texts := []string{
		"Is SKU 12345 good for gaming?",
		"compare item 88231 versus anything",
		"customer says model X9-4412 is too loud, what should I say about sku 88231",
		"recommend sku 74102 under 2000",
	}
	for _, text := range texts {
		got := r.Classify(text, nil, "")
		assert.Equal(t, ProductDeepdive, got.Type, "text: %s", text)
		assert.GreaterOrEqual(t, got.Confidence, 0.9, "text: %s", text)
	}
}

// Money spans must not be mistaken for bare SKUs.
func TestClassifyBudgetIsNotASKU(t *testing.T) {
	r := NewRouter()
	got := r.Classify("tv under 10000", nil, "")
	assert.Equal(t, ProductDiscovery, got.Type)
}

func TestClassifySubFlags(t *testing.T) {
	r := NewRouter()

	got := r.Classify("compare specs of the Vanta TV versus the Q7", nil, "")
	assert.True(t, got.NeedCompare)
	assert.True(t, got.AskSpecs)
	assert.True(t, got.NeedsCatalogue)

	st := state.New("c1", "s1")
	st.ActiveSKU = "88231"
	got = r.Classify("is it in stock, or something similar instead?", st, "")
	assert.Equal(t, ProductDeepdive, got.Type)
	assert.True(t, got.AskAlternatives)
}

func TestExtractSKU(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Is SKU 12345 good?", "12345"},
		{"item #88231 please", "88231"},
		{"model: x9-4412 details", "X9-4412"},
		{"tv under 10000", ""},
		{"nothing here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractSKU(tt.text), "text: %s", tt.text)
	}
}
