package contextmgr

import (
	"regexp"
	"sort"
	"strings"
)

// Feature constraints are extracted independently from the raw turn text.
// mustCues/niceCues classify the phrasing; FeatureTable names the feature.

var mustCues = []string{
	"must have", "must-have", "needs to have", "has to have", "need it to",
	"required", "require", "essential", "non-negotiable", "definitely needs",
}

var niceCues = []string{
	"nice to have", "would be nice", "ideally", "prefer", "preferably",
	"bonus if", "would like", "if possible",
}

// FeatureTable maps feature keywords to canonical constraint labels.
var FeatureTable = map[string]string{
	"120hz":            "120hz_refresh",
	"144hz":            "144hz_refresh",
	"oled":             "oled_panel",
	"qled":             "qled_panel",
	"4k":               "4k_resolution",
	"8k":               "8k_resolution",
	"hdmi 2.1":         "hdmi_2_1",
	"wifi 6":           "wifi_6",
	"bluetooth":        "bluetooth",
	"backlit keyboard": "backlit_keyboard",
	"touchscreen":      "touchscreen",
	"ssd":              "ssd_storage",
	"noise cancelling": "noise_cancelling",
	"noise canceling":  "noise_cancelling",
	"waterproof":       "water_resistant",
	"water resistant":  "water_resistant",
	"dolby atmos":      "dolby_atmos",
	"energy efficient": "energy_efficient",
	"smart home":       "smart_home",
	"voice control":    "voice_control",
	"wall mount":       "wall_mountable",
	"usb-c":            "usb_c",
	"thunderbolt":      "thunderbolt",
}

// featureKeywords is FeatureTable's key set in sorted order, so extraction
// appends labels in a stable order regardless of map iteration.
var featureKeywords = sortedFeatureKeywords()

func sortedFeatureKeywords() []string {
	keys := make([]string, 0, len(FeatureTable))
	for k := range FeatureTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var sizePattern = regexp.MustCompile(`(?i)\b(\d{2,3})\s*(?:inch(?:es)?|in\b|")`)

// extractedConstraints is the per-turn constraint delta.
type extractedConstraints struct {
	size       string
	mustHave   []string
	niceToHave []string
}

// extractConstraints scans raw text for size and feature cues. A feature
// mentioned near a nice-to-have cue is soft; everything else mentioned with a
// feature keyword is treated as a hard requirement when a must cue is present,
// and soft otherwise.
func extractConstraints(raw string) extractedConstraints {
	lower := strings.ToLower(raw)
	out := extractedConstraints{}

	if m := sizePattern.FindStringSubmatch(lower); m != nil {
		out.size = m[1] + "\""
	}

	hasMust := containsAny(lower, mustCues)
	hasNice := containsAny(lower, niceCues)

	for _, keyword := range featureKeywords {
		label := FeatureTable[keyword]
		if !strings.Contains(lower, keyword) {
			continue
		}
		switch {
		case hasMust && !hasNice:
			out.mustHave = append(out.mustHave, label)
		case hasNice && !hasMust:
			out.niceToHave = append(out.niceToHave, label)
		case hasMust && hasNice:
			// Both phrasings present: classify by which cue sits closer to the
			// feature keyword.
			if nearestCue(lower, keyword, mustCues) <= nearestCue(lower, keyword, niceCues) {
				out.mustHave = append(out.mustHave, label)
			} else {
				out.niceToHave = append(out.niceToHave, label)
			}
		default:
			out.niceToHave = append(out.niceToHave, label)
		}
	}

	return out
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// nearestCue returns the smallest absolute distance between the feature
// keyword and any cue occurrence, or a large sentinel when absent.
func nearestCue(text, keyword string, cues []string) int {
	kw := strings.Index(text, keyword)
	best := 1 << 30
	for _, cue := range cues {
		idx := strings.Index(text, cue)
		if idx < 0 {
			continue
		}
		d := kw - idx
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
		}
	}
	return best
}

// mergeSet unions add into base with set semantics, preserving base order.
func mergeSet(base, add []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			base = append(base, v)
			seen[v] = true
		}
	}
	return base
}
