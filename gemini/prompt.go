package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/dirscrape"
	"google.golang.org/genai"
)

const systemInstruction = `You are an expert web scraping analyst with deep knowledge of HTML structures, CSS selectors, and directory patterns.

You understand:
- Table-based directories (government sites, databases, member systems)
- Card/grid layouts (modern websites)
- List-based directories (simple lists)
- Wild Apricot and similar membership platforms
- Complex nested structures

Your goal: Analyze HTML and provide precise, working CSS selectors that will successfully extract all entries from ANY directory structure.

You MUST:
1. Identify the repeated pattern that represents each entry
2. Provide a list_item_selector that matches ALL entries
3. Provide field selectors relative to each list item
4. Think step-by-step about the HTML structure
5. Return valid JSON only

You are extremely thorough and always provide selectors that work.`

// promptGuidance is the static analysis framework shared by every
// inference request. The dynamic parts (fields, sketch, context) are
// assembled around it by BuildPrompt.
const promptGuidance = `CRITICAL RULES:
1. The HTML has been TRIMMED - only relevant containers are shown
2. For DYNAMIC/HASHED classes (e.g., _coName_abc123, styles__Name-sc-xyz):
   use WILDCARDS: [class*="coName"] NOT .styles__Name-sc-xyz
3. Prefer STABLE attributes: id, data-*, role, aria-label over dynamic classes
4. Selectors are RELATIVE to list_item_selector
5. For tables: list_item is <tr>, fields are <td> children
6. For cards/divs: look for repeated tag+class patterns

ANALYSIS FRAMEWORK - Follow these steps:

STEP 1: IDENTIFY DIRECTORY STRUCTURE TYPE

A) TABLE-BASED DIRECTORY (common in government sites, databases)
   - Look for: <table>, <tbody>, <tr>, <td>
   - Each row (<tr>) is one entry
   - Example: "table.members tbody tr" or "table#directory tr:not(:first-child)"

B) WILD APRICOT / MEMBER SYSTEMS (membership platforms)
   - Look for: class names like "memberDirectory", "membersTable", "AspNet-GridView"
   - Often table-based with specific classes
   - Example: "table.membersTable tbody tr" or ".memberDirectory .member-row"

C) CARD/GRID LAYOUT (modern websites)
   - Look for: repeated divs with classes like "card", "profile", "member", "person"
   - Example: ".person-card", ".profile-item", ".member-box"

D) LIST LAYOUT (simple directories)
   - Look for: <ul> and <li> elements
   - Example: "ul.directory li", ".people-list > li"

E) ARTICLE/SECTION LAYOUT
   - Look for: <article>, <section> tags
   - Example: "article.profile", "section.person"

STEP 2: FIND THE REPEATED PATTERN

Scan the HTML and find what repeats for EACH entry. Count how many times the pattern appears.
- If you see 10+ similar elements, that's likely your list_item_selector
- Look for IDs, classes, or tag patterns that repeat

STEP 3: EXTRACT FIELD SELECTORS

For EACH field in the target schema, find the selector WITHIN each list item:
- Name: Usually in <h2>, <h3>, <h4>, or <a> tags, often first in the item
- Title/Position: Often in <span>, <p>, or <div> with class like "title", "position", "role"
- Email: Look for <a href="mailto:...">, or text with @ symbol
- Phone: Look for <a href="tel:...">, or text with phone pattern
- URL/Link: Look for <a href="...">, extract [href] attribute
- Bio/Description: Usually longer <p> or <div> with class like "bio", "description", "summary"

For TABLES specifically:
- Name: Usually first <td> or <td> with specific class
- Other fields: Often in subsequent <td> elements - use td:nth-child(2), td:nth-child(3), etc.
- OR look for class names on <td> elements

STEP 4: HANDLE SPECIAL CASES

- If fields are in table cells: use "td:nth-child(N)" or "td.classname"
- If links need [href]: add "[href]" to selector (e.g., "a.profile-link[href]")
- If text is nested: use descendant selectors (e.g., "div.name span.text")

STEP 5: FIND PAGINATION

Look for:
- Links with text: "Next", or page numbers
- Common classes: "next", "pagination-next", "pager-next"
- Common rel attributes: rel="next"
- Page number links: "a.page-num", ".pagination a"

EXAMPLES FOR COMMON PATTERNS

EXAMPLE 1 - Table Directory:
{
  "list_item_selector": "table tbody tr",
  "selectors": {
    "name": "td:nth-child(1)",
    "address": "td:nth-child(2)",
    "phone": "td:nth-child(3)",
    "page_url": "td:nth-child(1) a[href]"
  },
  "pagination_selector": "a.next, a[rel='next']"
}

EXAMPLE 2 - Wild Apricot / Member System (VERY COMMON):
{
  "list_item_selector": "table tbody tr",
  "selectors": {
    "name": "td div.memberValue",
    "areas_of_focus": "td:nth-child(2)",
    "office_location": "td:nth-child(3)",
    "profile_url": "td a[href]"
  },
  "pagination_selector": "a.next"
}

NOTE: For Wild Apricot, use SIMPLE selectors like "table tbody tr" not complex class chains.
The data is in <td> cells, often with nested <div class="memberValue">.

IMPORTANT FOR DYNAMIC CLASS NAMES (React/styled-components):
If you see hashed class names like "_coName_xyz123", use wildcard attribute selectors:
- Instead of: ".styles__CompanyName-sc-abc123" use: [class*="coName"], [class*="CompanyName"]
- Instead of: ".styles__Location-sc-xyz456" use: [class*="Location"], [class*="location"]
This works for dynamically generated classes that change on each page load.

EXAMPLE 3 - Card/Grid Layout:
{
  "list_item_selector": ".person-card, .profile-item",
  "selectors": {
    "name": "h3.name, h2.person-name",
    "title": ".job-title, .position",
    "email": ".contact-email, a[href^='mailto:']",
    "page_url": "a.profile-link[href]"
  },
  "pagination_selector": "a.pagination-next, .next-page"
}

EXAMPLE 4 - List Layout:
{
  "list_item_selector": "ul.people-list > li, .directory-list li",
  "selectors": {
    "name": "h4, .name",
    "bio": "p.bio, .description",
    "page_url": "a[href]"
  },
  "pagination_selector": "a.next"
}

CRITICAL REQUIREMENTS

1. list_item_selector MUST match ALL entries - count them in the HTML!
2. Field selectors are RELATIVE to list_item - they work WITHIN each item
3. PREFER SIMPLE SELECTORS - "table tbody tr" works better than ".ComplexClass tbody tr"
4. Test mentally - would your selectors actually extract the right data?
5. Handle tables properly - if it's a table, use tr for list_item and td for fields
6. Multiple selectors OK - use commas for fallbacks: "td.name, td:nth-child(1)"

IMPORTANT: Keep selectors SIMPLE. Complex class chains often fail.

`

// BuildPrompt assembles the user prompt for selector inference: the
// target fields, the page sketch, the sketch's structural context, the
// analysis guidance, and a response skeleton naming every schema field.
func BuildPrompt(sketch *dirscrape.Sketch, schema dirscrape.Schema, pageURL string) string {
	var sb strings.Builder

	sb.WriteString("Analyze this DOM SKETCH (pre-processed, noise-removed HTML) and provide CSS selectors.\n\n")
	fmt.Fprintf(&sb, "URL: %s\n\n", pageURL)

	sb.WriteString("TARGET FIELDS:\n")
	for _, f := range schema {
		fmt.Fprintf(&sb, "- %q: %s\n", f.Name, f.Description)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "DOM SKETCH (showing %d items, trimmed for clarity):\n", sketch.Count)
	sb.WriteString("```html\n")
	sb.WriteString(sketch.Text)
	sb.WriteString("\n```\n\n")

	sb.WriteString("CONTEXT:\n")
	fmt.Fprintf(&sb, "- Structure: %s\n", sketch.Layout)
	fmt.Fprintf(&sb, "- Total items: %d\n", sketch.Count)
	fmt.Fprintf(&sb, "- Base selector hint: %s\n\n", sketch.SuggestedSelector)

	sb.WriteString(promptGuidance)

	sb.WriteString("YOUR RESPONSE (MUST be valid JSON only):\n\n")
	sb.WriteString("{\n  \"list_item_selector\": \"YOUR SELECTOR HERE\",\n  \"selectors\": {\n")
	for i, f := range schema {
		fmt.Fprintf(&sb, "    %q: \"YOUR SELECTOR HERE\"", f.Name)
		if i < len(schema)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  },\n  \"pagination_selector\": \"YOUR SELECTOR HERE or null\"\n}\n\n")
	sb.WriteString("IMPORTANT: Return ONLY the JSON object above. Use the EXACT field names from the target fields.\n")
	sb.WriteString("Analyze carefully and provide selectors that WILL work based on the HTML structure provided.")

	return sb.String()
}

// BuildConfig returns the GenerateContentConfig for selector inference.
// Low temperature keeps selector output stable; the JSON response MIME
// type makes the model return a bare JSON object.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}

// selectorResponse is the wire format the model replies with.
type selectorResponse struct {
	ListItemSelector   *string           `json:"list_item_selector"`
	Selectors          map[string]string `json:"selectors"`
	PaginationSelector *string           `json:"pagination_selector"`
}

// ParseSelectorResponse decodes a model reply into a selector map ordered
// by the schema. Parsing is lenient: fields the model skipped come back
// with empty selectors, null list item and pagination selectors become
// empty strings, and mapped fields outside the schema are dropped.
func ParseSelectorResponse(data []byte, schema dirscrape.Schema) (*dirscrape.SelectorMap, error) {
	var resp selectorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, dirscrape.Errorf(dirscrape.EINTERNAL, "invalid selector response: %v", err)
	}

	m := &dirscrape.SelectorMap{}
	if resp.ListItemSelector != nil {
		m.ListItemSelector = strings.TrimSpace(*resp.ListItemSelector)
	}
	if resp.PaginationSelector != nil {
		m.PaginationSelector = strings.TrimSpace(*resp.PaginationSelector)
	}
	for _, f := range schema {
		m.Fields = append(m.Fields, dirscrape.FieldSelector{
			Name:     f.Name,
			Selector: strings.TrimSpace(resp.Selectors[f.Name]),
		})
	}

	return m, nil
}
