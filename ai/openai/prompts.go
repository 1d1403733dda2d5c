package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/lostfound/ai"
)

const translationPrompt = `Translate the user's text into English.

Reply with the translation only. Do not add quotes, notes, greetings or explanations.
If the text is already English, repeat it unchanged.
Keep brand names, colors and numbers exactly as given.`

const categoryResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "category": {
      "type": "string",
      "enum": [%s]
    }
  },
  "required": ["category"],
  "additionalProperties": false
}`

const categoryPromptTemplate = `Classify a lost or found item by its title and return the category as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble or
explanation. Start your response directly with the opening brace { and end with the closing brace }.
Your output must exactly follow this schema:

%s

Rules:
- The category must be exactly one of: %s.
- Titles may be in Thai or English.
- Use "other" when no category clearly fits.

Example:
Input: "black leather wallet near the library"
Output:
{"category":"wallet"}

Example:
Input: "iPhone 13 with blue case"
Output:
{"category":"mobile phone"}

Example:
Input: "กุญแจรถ"
Output:
{"category":"key"}`

func buildCategoryPrompt() string {
	quoted := make([]string, len(ai.ItemCategories))
	for i, c := range ai.ItemCategories {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(categoryPromptTemplate,
		fmt.Sprintf(categoryResponseSchema, strings.Join(quoted, ", ")),
		strings.Join(ai.ItemCategories, ", "))
}
