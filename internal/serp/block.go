package serp

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockPhrases appear in interstitial pages served instead of results.
var blockPhrases = []string{
	"unusual traffic",
	"detected unusual traffic",
	"our systems have detected",
	"verify you are a human",
	"are you a robot",
	"enable javascript and cookies",
	"access denied",
}

// captchaMarkers are markup fragments of the common CAPTCHA widgets.
var captchaMarkers = []string{
	"g-recaptcha",
	"recaptcha/api.js",
	"h-captcha",
	"hcaptcha.com",
	"cf-turnstile",
	"challenges.cloudflare.com",
}

// BlockReasonHTML inspects raw page text for bot-detection markers and
// returns a short reason, or "" when the page looks like real results.
func BlockReasonHTML(html string) string {
	lower := strings.ToLower(html)

	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return "captcha challenge (" + marker + ")"
		}
	}
	for _, phrase := range blockPhrases {
		if strings.Contains(lower, phrase) {
			return "block page (" + phrase + ")"
		}
	}
	return ""
}

// BlockReason inspects a parsed document. Checking the parsed form keeps
// false positives down: a results page quoting "access denied" in a
// snippet has result markup, a block page does not.
func BlockReason(doc *goquery.Document) string {
	// CAPTCHA widgets are unambiguous regardless of other content.
	if doc.Find(".g-recaptcha, .h-captcha, .cf-turnstile").Length() > 0 {
		return "captcha widget present"
	}

	html, err := doc.Html()
	if err != nil {
		return ""
	}
	for _, marker := range captchaMarkers {
		if strings.Contains(strings.ToLower(html), marker) {
			return "captcha challenge (" + marker + ")"
		}
	}

	// Phrase checks only fire on pages without any result blocks.
	if doc.Find(".result, .b_algo, #search").Length() > 0 {
		return ""
	}
	text := strings.ToLower(doc.Text())
	for _, phrase := range blockPhrases {
		if strings.Contains(text, phrase) {
			return "block page (" + phrase + ")"
		}
	}
	return ""
}
