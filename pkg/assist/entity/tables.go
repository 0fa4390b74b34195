package entity

// The phrase tables below are heuristics, not a closed vocabulary. They are
// deliberately package-level data so deployments can override them through
// resolver options instead of forking the matcher code.

// UseCaseTable maps trigger keywords to a canonical use-case label.
var UseCaseTable = map[string]string{
	"gaming":       "gaming",
	"gamer":        "gaming",
	"game":         "gaming",
	"work":         "productivity",
	"office":       "productivity",
	"school":       "study",
	"student":      "study",
	"college":      "study",
	"movies":       "home_cinema",
	"movie":        "home_cinema",
	"cinema":       "home_cinema",
	"streaming":    "streaming",
	"netflix":      "streaming",
	"sport":        "sports_viewing",
	"sports":       "sports_viewing",
	"music":        "music",
	"travel":       "travel",
	"commute":      "travel",
	"photography":  "photography",
	"photo":        "photography",
	"video editing": "content_creation",
	"editing":      "content_creation",
	"kids":         "family",
	"family":       "family",
}

// CategoryTable maps category keywords to the canonical catalog category.
var CategoryTable = map[string]string{
	"tv":              "televisions",
	"television":      "televisions",
	"oled tv":         "televisions",
	"laptop":          "laptops",
	"notebook":        "laptops",
	"chromebook":      "laptops",
	"phone":           "smartphones",
	"smartphone":      "smartphones",
	"tablet":          "tablets",
	"monitor":         "monitors",
	"soundbar":        "audio",
	"speaker":         "audio",
	"headphone":       "audio",
	"headphones":      "audio",
	"earbuds":         "audio",
	"camera":          "cameras",
	"fridge":          "refrigeration",
	"refrigerator":    "refrigeration",
	"freezer":         "refrigeration",
	"washer":          "laundry",
	"washing machine": "laundry",
	"dryer":           "laundry",
	"dishwasher":      "dishwashers",
	"vacuum":          "floorcare",
	"microwave":       "cooking",
	"oven":            "cooking",
	"console":         "gaming_consoles",
	"printer":         "printers",
	"router":          "networking",
}

// BrandTable maps brand keywords (lowercased) to the canonical brand name.
var BrandTable = map[string]string{
	"samsung":   "Samsung",
	"lg":        "LG",
	"sony":      "Sony",
	"panasonic": "Panasonic",
	"philips":   "Philips",
	"apple":     "Apple",
	"macbook":   "Apple",
	"iphone":    "Apple",
	"ipad":      "Apple",
	"dell":      "Dell",
	"lenovo":    "Lenovo",
	"thinkpad":  "Lenovo",
	"hp":        "HP",
	"asus":      "ASUS",
	"acer":      "Acer",
	"msi":       "MSI",
	"bosch":     "Bosch",
	"siemens":   "Siemens",
	"miele":     "Miele",
	"whirlpool": "Whirlpool",
	"dyson":     "Dyson",
	"bose":      "Bose",
	"jbl":       "JBL",
	"sonos":     "Sonos",
	"nintendo":  "Nintendo",
	"xbox":      "Microsoft",
	"playstation": "Sony",
	"canon":     "Canon",
	"nikon":     "Nikon",
}

// generalRecommendationPhrases signal a category-level recommendation request
// rather than a question about one specific product.
var generalRecommendationPhrases = []string{
	"recommend", "suggest", "suggestion", "looking for", "best ", "good ",
	"which ", "what ", "need a", "need an", "want a", "want an", "options",
	"under ", "below ", "around ", "cheap", "budget",
}
