// Package mcp exposes the energy advisor over the Model Context Protocol
// and a small JSON HTTP API.
package mcp

// AskInput defines the input parameters for the ask_energy_advisor tool.
type AskInput struct {
	// Question is the household energy question in plain language.
	Question string `json:"question" jsonschema:"the energy-saving question to answer"`
}

// AnswerOutput contains the answer text.
type AnswerOutput struct {
	// Answer is the model's reply or a friendly failure message.
	Answer string `json:"answer"`
	// AnswerHTML is Answer rendered from markdown. Only the HTTP API fills it.
	AnswerHTML string `json:"answer_html,omitempty"`
}

// ProductInput defines the input parameters for the check_eligible_product tool.
type ProductInput struct {
	// Query describes the product the user wants to buy.
	Query string `json:"query" jsonschema:"the product to check against the Climate Voucher catalog"`
}

// VoucherInput defines the input parameters for the check_voucher_eligibility tool.
type VoucherInput struct {
	Residency  string `json:"residency" jsonschema:"residential status: citizen, pr or others"`
	Property   string `json:"property" jsonschema:"property type: hdb or private"`
	Claimed300 string `json:"claimed_300" jsonschema:"has the household claimed the 300 SGD vouchers: yes or no"`
	Claimed100 string `json:"claimed_100" jsonschema:"has the household claimed the 100 SGD vouchers: yes or no"`
}

// VoucherOutput is the eligibility decision.
type VoucherOutput struct {
	Outcome    string `json:"outcome"`
	Voucher300 bool   `json:"voucher_300"`
	Voucher100 bool   `json:"voucher_100"`
	Message    string `json:"message"`
}

// StatusInput defines the input parameters for the get_index_status tool.
// This tool takes no parameters.
type StatusInput struct{}

// StatusOutput describes the advisor index.
type StatusOutput struct {
	// Collection is the vector store collection holding the corpus.
	Collection string `json:"collection"`
	// IndexedChunks is the number of entries currently in the collection.
	IndexedChunks int `json:"indexed_chunks"`
	// Documents lists the indexed documents with their sizes.
	Documents []DocumentStatus `json:"documents"`
	// FailedDocuments lists the documents skipped during the last build.
	FailedDocuments []string `json:"failed_documents"`
	// LastBuildTime is when the index was last built (RFC3339).
	LastBuildTime string `json:"last_build_time,omitempty"`
}

// DocumentStatus describes one indexed document.
type DocumentStatus struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title,omitempty"`
	Tokens   int    `json:"tokens"`
	Chunks   int    `json:"chunks"`
}
