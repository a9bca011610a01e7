package expansion

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
)

const captionPrompt = "You are a fashion stylist. Describe the clothing or accessory in this image " +
	"using 5 to 7 keywords covering item type, style and color, separated by commas. " +
	"Example: blue, floral, summer, dress. Reply with the keywords only."

const parsePromptTemplate = `You convert shopping queries for a fashion store into JSON.
Reply with a single JSON object with the keys "searchTerms", "filters" and "suggestions":
- "searchTerms": keywords and close synonyms for a text search, space separated.
- "filters": any of "colors", "brands", "categories", "occasions", "sizes" (arrays of strings)
  and "price" (an object with "min" and/or "max" numbers).
- "suggestions": 3 or 4 alternative search phrases.

Example: "black party dress under 200" ->
{"searchTerms": "black party dress gown", "filters": {"colors": ["black"], "occasions": ["party"], "price": {"max": 200}}, "suggestions": ["little black dress", "black cocktail gown", "sequin party dress"]}

Reply with the JSON object only.

Query: %q`

const comparePromptTemplate = `You help shoppers choose between fashion items.
Compare the items in the JSON below and reply with a single JSON object with the keys "summary" and "items":
- "summary": one short paragraph on the main differences and who each item suits.
- "items": one object per item with "id", "pros" (2 or 3 strings) and "cons" (1 or 2 strings).

Items:
%s

Reply with the JSON object only.`

const suggestPromptTemplate = `A shopper describes their preferences as: %q.
Suggest 3 items they could look for in a fashion store. Keep it short and clear.`

type compareInput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

func parsePrompt(text string) string {
	return fmt.Sprintf(parsePromptTemplate, text)
}

func comparePrompt(items []catalog.Item) (string, error) {
	in := make([]compareInput, len(items))
	for i := range items {
		in[i] = compareInput{
			ID:          items[i].ID,
			Name:        items[i].Name,
			Brand:       items[i].Brand,
			Category:    items[i].Category,
			Price:       items[i].Price,
			Description: items[i].Description,
		}
	}
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal compare input: %w", err)
	}
	return fmt.Sprintf(comparePromptTemplate, data), nil
}

func suggestPrompt(preferences string) string {
	return fmt.Sprintf(suggestPromptTemplate, preferences)
}
