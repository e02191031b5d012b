package recommend

import (
	"fmt"
	"strings"
	"time"
)

// season returns the display season for the prompt date.
func season(t time.Time) string {
	switch month := t.Month(); {
	case month >= time.March && month <= time.May:
		return "spring"
	case month >= time.June && month <= time.August:
		return "summer"
	case month >= time.September && month <= time.November:
		return "autumn"
	default:
		return "winter"
	}
}

// BuildSystemPrompt produces the system instruction. The wording switches
// on whether live search context is available for this request.
func BuildSystemPrompt(searchAvailable bool, now time.Time) string {
	currentDate := now.Format("January 2, 2006")

	var b strings.Builder
	b.WriteString("You are a travel expert with deep knowledge of current travel trends and social-media hotspots.\n")
	if searchAvailable {
		b.WriteString("Base your recommendations on the live web search results provided, keeping them accurate and up to date.\n")
	} else {
		b.WriteString("Live search results are unavailable. Base your recommendations on your own knowledge, favoring popular, well-established places alongside generally trendy spots.\n")
	}
	b.WriteString("Include places that are currently popular on Instagram, travel blogs and TikTok.\n")
	b.WriteString("Give concrete place names, practical information, and explain why each place is trending right now.\n")
	fmt.Fprintf(&b, "Only recommend places that actually exist and can be visited as of today (%s).\n\n", currentDate)

	b.WriteString("Image requirements:\n")
	b.WriteString("- imageSearchQuery: the place name in English (e.g. \"Eiffel Tower Paris\", \"Shibuya Sky Tokyo\")\n")
	b.WriteString("- The server resolves images automatically; you only need to provide an accurate English search query\n\n")

	b.WriteString("IMPORTANT: Respond with a valid JSON array and nothing else. No extra text, explanations or comments. Output JSON only.")
	return b.String()
}

// BuildUserPrompt produces the request prompt: date and season, the search
// context (or the fallback notice), the exclusion list, the audience, the
// exact JSON shape and the content rules.
func BuildUserPrompt(destination, gender, age string, count int, searchContext string, searchAvailable bool, previous []string, now time.Time) string {
	currentDate := now.Format("January 2, 2006")

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s and the current season is %s.\n\n", currentDate, season(now))

	if searchAvailable {
		b.WriteString(searchContext)
	} else {
		b.WriteString("Note: live web search is unavailable. Recommend generally popular, well-established destinations from your own knowledge.\n")
		b.WriteString("Be as specific as possible and only name places that actually exist.\n")
	}
	b.WriteString("\n")

	if len(previous) > 0 {
		b.WriteString("IMPORTANT - avoid duplicates:\n")
		b.WriteString("Already recommended places (never recommend these again):\n")
		for i, title := range previous {
			fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		}
		fmt.Fprintf(&b, "\nRecommend only places completely different from the %d above.\n", len(previous))
		b.WriteString("Avoid the same building, the same block, or similarly named places.\n\n")
	}

	fmt.Fprintf(&b, "Recommend %d specific, trendy places based on:\n\n", count)
	fmt.Fprintf(&b, "- Destination: %s\n", destination)
	fmt.Fprintf(&b, "- Gender: %s\n", gender)
	fmt.Fprintf(&b, "- Age group: %s\n\n", age)

	b.WriteString("Every recommendation must:\n")
	b.WriteString("1. Be a completely different place (no two spots in the same building, block or street)\n")
	b.WriteString("2. Cover different categories (sights, cafes, restaurants, shopping, experiences)\n")
	b.WriteString("3. Be spread across different areas\n\n")

	fmt.Fprintf(&b, "Provide exactly %d recommendations (no more, no fewer) in this JSON format:\n\n", count)
	b.WriteString(`[
  {
    "title": "Specific place name (e.g. Shibuya Sky Observatory, Saint-Germain cafe street)",
    "location": "Exact location (city, specific district)",
    "description": "Concise description (2-3 sentences, max 150 characters) covering: (1) why it is popular right now (2) what makes it hot on social media (3) why it fits this traveler.",
    "activities": ["specific activity 1", "specific activity 2", "specific activity 3"],
    "priceRange": "Cost items and amounts only (e.g. entry $15 / meal $20 / free)",
    "bestTime": "Season and time of day only (e.g. autumn, afternoon / Apr-Jun, evening / year-round, daytime)",
    "imageSearchQuery": "Place name in English (e.g. Eiffel Tower Paris, Shibuya Sky Tokyo)",
    "link": "A URL from the search results above, or the place's official website. Must be a full valid URL (e.g. https://example.com)"
  }
]
`)
	b.WriteString("\nRequirements:\n")
	fmt.Fprintf(&b, "1. Trend mix: at least %d of the %d places must have risen on social media within the last 1-2 years\n", count/2, count)
	b.WriteString("2. Specificity: not \"Paris\" but \"Le Moulin de la Galette on Montmartre hill\"\n")
	b.WriteString("3. Mix landmarks and hotspots: 2-3 classic landmarks, the rest social-media or local favorites\n")
	b.WriteString("4. Concrete activities: not \"take photos\" but \"shoot a sunset timelapse from the rooftop, try the signature menu\"\n")
	b.WriteString("5. Price info: item name and amount only\n")
	fmt.Fprintf(&b, "6. Currency: only places actually operating and open to visitors as of %s\n", currentDate)
	b.WriteString("7. Audience fit: places this age group and gender would actually enjoy\n")
	b.WriteString("8. imageSearchQuery in accurate English (place name plus city)\n")
	b.WriteString("9. Links: prefer a URL listed in the search results; otherwise use https://www.google.com/search?q=<place>+<city>\n")
	return b.String()
}
