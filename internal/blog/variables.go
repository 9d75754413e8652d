package blog

import (
	"fmt"
	"strings"
	"time"
)

// Variables builds the full placeholder map for one set of insights.
// Every key is substituted as {{KEY}} during the first fill pass.
func Variables(ins *Insights, now time.Time) map[string]string {
	query := ins.Query
	industry := detectIndustry(query)
	urlFriendly := urlForm(query)

	vars := map[string]string{
		"PRIMARY_KEYWORD":               query,
		"SINGULAR_KEYWORD":              ins.Singular,
		"URL_FRIENDLY_KEYWORD":          urlFriendly,
		"URL_FRIENDLY_SINGULAR_KEYWORD": urlForm(ins.Singular),
		"CURRENT_DATE":                  now.Format("January 2, 2006"),
		"ISO_DATE":                      now.Format("2006-01-02"),
		"INDUSTRY":                      industry,
		"INDUSTRY_CONTEXT":              fmt.Sprintf("fast-paced %s world", industry),
		"HERO_IMAGE_URL":                fmt.Sprintf("https://example.com/images/%s-hero.jpg", urlFriendly),
		"PRODUCT_IMAGE_URL":             fmt.Sprintf("https://example.com/images/%s-collection.jpg", urlFriendly),
		"LOGO_URL":                      "https://example.com/logo.png",
		"PUBLISHER":                     titleCase(industry) + " Accessories Guide",
		"COLLECTION_URL":                "https://example.com/" + urlFriendly,
		"DISCOUNT_CODE":                 "BLOG15",
		"DISCOUNT_PERCENTAGE":           "15%",
		"LOW_PRICE":                     "9.99",
		"HIGH_PRICE":                    "59.99",
		"CURRENCY":                      "USD",
		"RATING":                        "4.8",
		"REVIEW_COUNT":                  "1247",
		"EXPERIENCE":                    "15",
	}

	for i, comp := range ins.Competitors {
		if i >= 5 {
			break
		}
		vars[fmt.Sprintf("COMPETITOR_%d", i+1)] = comp.Name
		if len(comp.UniqueFeatures) > 0 {
			vars[fmt.Sprintf("UNIQUE_FEATURE_%d", i+1)] = comp.UniqueFeatures[0]
		}
	}

	cases := useCases(query)
	for i, uc := range cases {
		if i >= 3 {
			break
		}
		vars[fmt.Sprintf("USE_CASE_%d", i+1)] = uc
	}

	for i, pt := range productTypes(query) {
		if i >= 4 {
			break
		}
		vars[fmt.Sprintf("TYPE_%d", i+1)] = pt
		vars[fmt.Sprintf("TYPE_%d_DESCRIPTION", i+1)] =
			fmt.Sprintf("These are specialized %s designed for %s", query, cases[i%len(cases)])
	}

	for i, f := range buyingFactors(query) {
		if i >= 4 {
			break
		}
		vars[fmt.Sprintf("FACTOR_%d", i+1)] = f
		vars[fmt.Sprintf("URL_FRIENDLY_FACTOR_%d", i+1)] = urlForm(f)
	}

	for i, asp := range productAspects(query) {
		if i >= 4 {
			break
		}
		vars[fmt.Sprintf("ASPECT_%d", i+1)] = asp
		vars[fmt.Sprintf("URL_FRIENDLY_ASPECT_%d", i+1)] = urlForm(asp)
	}

	for i, ua := range usageAspects(query) {
		if i >= 2 {
			break
		}
		vars[fmt.Sprintf("USAGE_ASPECT_%d", i+1)] = ua
		vars[fmt.Sprintf("URL_FRIENDLY_USAGE_ASPECT_%d", i+1)] = urlForm(ua)
	}

	vars["URL_FRIENDLY_CONTEXTS"] = "settings"
	for i, c := range usageContexts(query) {
		if i >= 3 {
			break
		}
		vars[fmt.Sprintf("CONTEXT_%d", i+1)] = c
		vars[fmt.Sprintf("CONTEXT_%d_DESCRIPTION", i+1)] = c + " environments"
	}

	for i, kw := range ins.Related {
		if i >= 3 {
			break
		}
		vars[fmt.Sprintf("RELATED_KEYWORD_%d", i+1)] = kw
	}

	vars["TARGET_WORD_COUNT"] = fmt.Sprintf("%d", ins.Targets.WordCount.Target)
	vars["TARGET_INTERNAL_LINKS"] = fmt.Sprintf("%d", ins.Targets.InternalLinks.Target)
	vars["TARGET_EXTERNAL_LINKS"] = fmt.Sprintf("%d", ins.Targets.ExternalLinks.Target)
	vars["TARGET_IMAGES"] = fmt.Sprintf("%d", ins.Targets.Images.Target)

	return vars
}

// detectIndustry buckets a query into a coarse vertical by keyword.
func detectIndustry(query string) string {
	lower := strings.ToLower(query)
	for _, kw := range []string{"phone", "smartphone", "tablet", "laptop", "computer", "tech", "digital"} {
		if strings.Contains(lower, kw) {
			return "technology"
		}
	}
	for _, kw := range []string{"home", "kitchen", "furniture", "decor", "house", "garden"} {
		if strings.Contains(lower, kw) {
			return "home improvement"
		}
	}
	for _, kw := range []string{"fashion", "clothing", "apparel", "shoes", "accessories", "wear"} {
		if strings.Contains(lower, kw) {
			return "fashion"
		}
	}
	return "consumer products"
}

func useCases(query string) []string {
	switch {
	case containsAny(query, "phone", "smartphone", "mobile"):
		return []string{"desk and office use", "car and travel", "hands-free viewing"}
	case containsAny(query, "laptop", "computer"):
		return []string{"ergonomic positioning", "cooling and ventilation", "space-saving setups"}
	default:
		return []string{"everyday use", "professional settings", "travel and outdoor activities"}
	}
}

func productTypes(query string) []string {
	switch {
	case containsAny(query, "phone", "smartphone", "mobile"):
		return []string{
			"Desk and Tabletop Stands",
			"Car Mounts and Vehicle Holders",
			"Grip-Style Holders and PopSockets",
			"Promotional and Branded Holders",
		}
	case containsAny(query, "laptop", "computer"):
		return []string{
			"Adjustable Height Stands",
			"Cooling Platforms",
			"Portable Folding Stands",
			"Docking Stations",
		}
	default:
		return []string{
			"Standard Models",
			"Premium Versions",
			"Portable Options",
			"Multi-functional Designs",
		}
	}
}

func buyingFactors(query string) []string {
	switch {
	case containsAny(query, "phone", "smartphone", "mobile"):
		return []string{"Materials", "Durability", "Adjustability", "Compatibility"}
	case containsAny(query, "laptop", "computer"):
		return []string{"Materials", "Weight Capacity", "Cooling Features", "Portability"}
	default:
		return []string{"Materials", "Durability", "Design", "Functionality"}
	}
}

func productAspects(query string) []string {
	if containsAny(query, "custom") {
		return []string{"Features", "Benefits", "Customization", "Branding"}
	}
	return []string{"Features", "Benefits", "Customization", "Applications"}
}

func usageAspects(query string) []string {
	if containsAny(query, "mount", "holder", "stand") {
		return []string{"Installation", "Positioning", "Adjustment", "Removal"}
	}
	return []string{"Installation", "Usage", "Maintenance", "Storage"}
}

func usageContexts(query string) []string {
	switch {
	case containsAny(query, "phone", "smartphone", "mobile"):
		return []string{"Office and Desk", "Vehicle and Travel", "Promotional Events"}
	case containsAny(query, "laptop", "computer"):
		return []string{"Home Office", "Corporate Environment", "Mobile Workstation"}
	default:
		return []string{"Home", "Office", "Travel"}
	}
}

// containsAny reports whether any word of the lowercased query equals
// one of the given words.
func containsAny(query string, words ...string) bool {
	queryWords := strings.Fields(strings.ToLower(query))
	for _, qw := range queryWords {
		for _, w := range words {
			if qw == w {
				return true
			}
		}
	}
	return false
}

func urlForm(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
