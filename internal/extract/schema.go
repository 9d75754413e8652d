package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SchemaTypes returns the distinct schema.org types declared in a
// document across JSON-LD, microdata, and RDFa markup, in discovery
// order. Type URLs and prefixed names normalize to the bare type name,
// so "https://schema.org/Product" and "schema:Product" both count as
// "Product" and are deduplicated together.
func SchemaTypes(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(raw string) {
		name := normalizeSchemaType(raw)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	// JSON-LD
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		for _, t := range jsonLDTypes(raw) {
			add(t)
		}
	})

	// Microdata
	doc.Find("[itemscope]").Each(func(i int, sel *goquery.Selection) {
		if itemType, ok := sel.Attr("itemtype"); ok {
			add(itemType)
		}
	})

	// RDFa
	doc.Find("[typeof]").Each(func(i int, sel *goquery.Selection) {
		if typeAttr, ok := sel.Attr("typeof"); ok {
			for _, t := range strings.Fields(typeAttr) {
				add(t)
			}
		}
	})

	return out
}

// jsonLDTypes pulls every @type value out of a JSON-LD block. A block
// may be a single object, an array of objects, or an object with an
// @graph array; @type itself may be a string or a list.
func jsonLDTypes(raw string) []string {
	var types []string

	var collect func(node any)
	collect = func(node any) {
		obj, ok := node.(map[string]any)
		if !ok {
			return
		}
		switch t := obj["@type"].(type) {
		case string:
			types = append(types, t)
		case []any:
			for _, v := range t {
				if s, ok := v.(string); ok {
					types = append(types, s)
				}
			}
		}
		if graph, ok := obj["@graph"].([]any); ok {
			for _, n := range graph {
				collect(n)
			}
		}
	}

	// Try parsing as single object
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		collect(obj)
		return types
	}

	// Try parsing as array
	var arr []any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		for _, n := range arr {
			collect(n)
		}
	}
	return types
}

// normalizeSchemaType reduces a type URL or prefixed name to its bare
// type name.
func normalizeSchemaType(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return ""
	}
	if i := strings.LastIndexAny(t, "/#"); i >= 0 {
		t = t[i+1:]
	}
	if i := strings.LastIndex(t, ":"); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(t)
}
