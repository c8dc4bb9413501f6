// Package prompt turns a question and retrieved context into chat messages.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bull/wattsaver/internal/catalog"
	"github.com/bull/wattsaver/internal/llm"
	"github.com/bull/wattsaver/internal/storage"
)

// Template slots.
const (
	ContextSlot  = "{context}"
	QuestionSlot = "{question}"
)

// Delimiter wraps the user query in the product lookup prompt.
const Delimiter = "####"

// AdvisorTemplate is the default energy advisor template.
const AdvisorTemplate = `Use the following pieces of context to answer the question at the end.
Determine if the question is relevant to the context or not.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
Answer the user in a friendly tone.
You must only rely on the facts or information in the database. Your response should be as detail as possible and
include information that is useful for the user to make informed decisions on energy saving and efficiency.
Make sure the statements are factually accurate.
Use Neural Linguistic Programming to construct your response.

{context}
Question: {question}
Helpful Answer:`

// ErrInvalidTemplate is returned when a template lacks the question slot.
var ErrInvalidTemplate = errors.New("template must contain " + QuestionSlot)

// Composer builds the messages for one question.
type Composer interface {
	Compose(question string, results []storage.ScoredEntry) []llm.Message
}

// TemplateComposer fills a template's {context} and {question} slots and
// sends it as a single user message.
type TemplateComposer struct {
	template string
}

// NewTemplateComposer validates the template. An empty template selects
// AdvisorTemplate.
func NewTemplateComposer(template string) (*TemplateComposer, error) {
	if template == "" {
		template = AdvisorTemplate
	}
	if !strings.Contains(template, QuestionSlot) {
		return nil, ErrInvalidTemplate
	}
	return &TemplateComposer{template: template}, nil
}

// Compose joins the retrieved chunk texts in rank order with newlines.
// No results gives an empty context.
func (c *TemplateComposer) Compose(question string, results []storage.ScoredEntry) []llm.Message {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
	}

	// A single pass keeps slot text inside the question or context literal.
	filled := strings.NewReplacer(
		ContextSlot, strings.Join(texts, "\n"),
		QuestionSlot, question,
	).Replace(c.template)

	return []llm.Message{llm.UserMessage(filled)}
}

// CatalogComposer embeds the eligible product catalog in a system
// instruction and delimits the user's query.
type CatalogComposer struct {
	system string
}

// NewCatalogComposer renders the instruction once for the catalog.
func NewCatalogComposer(c *catalog.Catalog) *CatalogComposer {
	return &CatalogComposer{system: catalogInstruction(c.Reference())}
}

// Compose ignores results; the catalog is the whole reference.
func (c *CatalogComposer) Compose(question string, _ []storage.ScoredEntry) []llm.Message {
	return []llm.Message{
		llm.SystemMessage(c.system),
		llm.UserMessage(Delimiter + question + Delimiter),
	}
}

// ClosingAdvice ends every product lookup answer.
const ClosingAdvice = "Given that retailers may offer different models, it is advisable to enquire with them about the specific models that are eligible for purchase with the Climate Vouchers."

func catalogInstruction(reference string) string {
	return fmt.Sprintf(`You will be provided with customer service queries.
Follow these instructions to answer the customer queries.
The customer query will be delimited with a pair %[1]s.

Decide if the query is relevant to any specific products in the JSON object below, where each key is a product category and the value is the requirements of the eligible products.
Some of the product categories have a list of ticks that the product must have on the energy label to be eligible for the Climate Vouchers.
The more ticks, the more you save.
Additional remarks are also provided for some of the product categories, especially those without energy labels.

You must only rely on the information in the product catalog below.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
Your response should be as detailed as possible and include information that is useful for the customer to better understand the eligible product.

Answer the customer in a friendly tone.
Make sure the statements are factually accurate.
If there are any relevant products found, output the product category and the associated requirements in a tidy and readable format.
For those product categories that have an empty list of ticks, inform the user that the product does not carry any energy label.
Always include at the end of the response: '%[2]s'
%[3]s
If there are no relevant products found, ask the user to be more specific and provide more details about the product. Never invent a product category that is not listed.

Ensure that your response is readable and without any enclosing tags or delimiters.`, Delimiter, ClosingAdvice, reference)
}
