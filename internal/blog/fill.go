package blog

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// Fill substitutes the variable map into the template, then resolves
// any placeholder the map did not cover from the generic vocabulary.
// The returned document carries no {{...}} tokens.
func Fill(template string, vars map[string]string) string {
	for key, value := range vars {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.Trim(token, "{}")
		return PlaceholderContent(name)
	})
}

// Leftovers returns the placeholder names the variable map would not
// cover, in template order.
func Leftovers(template string, vars map[string]string) []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := vars[m[1]]; !ok {
			names = append(names, m[1])
		}
	}
	return names
}

// PlaceholderContent supplies generic copy for a placeholder by its
// base vocabulary word. First match wins, so compound names like
// UNIQUE_FEATURE_3 resolve on FEATURE.
func PlaceholderContent(name string) string {
	switch {
	case strings.Contains(name, "FEATURE"):
		return "Adjustable viewing angle"
	case strings.Contains(name, "BENEFIT"):
		return "improved ergonomics and reduced strain"
	case strings.Contains(name, "DETAIL"):
		return "providing optimal comfort during extended use"
	case strings.Contains(name, "SUBTYPE"):
		return "Premium model"
	case strings.Contains(name, "ADVANTAGE"):
		return "Enhanced durability"
	case strings.Contains(name, "UNIQUE"):
		return "innovative design"
	case strings.Contains(name, "MATERIAL"):
		return "aluminum alloy"
	case strings.Contains(name, "PROBLEM"):
		return "device slippage"
	case strings.Contains(name, "FACTOR"):
		return "stability"
	case strings.Contains(name, "QUALITY"):
		return "durability"
	case strings.Contains(name, "ASPECT"):
		return "versatility"
	case strings.Contains(name, "TECHNIQUE"):
		return "precision molding"
	case strings.Contains(name, "ELEMENT"):
		return "color scheme"
	case strings.Contains(name, "CUSTOMIZATION"):
		return "logo printing"
	case strings.Contains(name, "CONTEXT"):
		return "professional environment"
	case strings.Contains(name, "TIP"):
		return "Secure installation"
	case strings.Contains(name, "MAINTENANCE"):
		return "Regular cleaning"
	case strings.Contains(name, "LIFESPAN"):
		return "2-3 years"
	case strings.Contains(name, "PRICE"):
		return "$15-$25"
	case strings.Contains(name, "REVIEWER"):
		return "John D."
	case strings.Contains(name, "PROFESSION"):
		return "Product Designer"
	case strings.Contains(name, "COMPONENT"):
		return "mounting mechanism"
	case strings.Contains(name, "ACCESSORY"):
		return "protective case"
	case strings.Contains(name, "COMPATIBILITY"):
		return "device dimensions"
	case strings.Contains(name, "SPEC"):
		return "width and thickness"
	case strings.Contains(name, "LOCATION"):
		return "California"
	case strings.Contains(name, "USAGE"):
		return "hands-free viewing"
	case strings.Contains(name, "AUDIENCE"):
		return "professionals"
	case strings.Contains(name, "PRODUCT"):
		return "premium stand"
	default:
		return "high-quality option"
	}
}
