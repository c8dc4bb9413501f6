package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/wattsaver/internal/eligibility"
)

// makeAskHandler creates the ask_energy_advisor tool handler.
// Failures are already turned into readable answers by the service, so
// the tool itself never errors.
func makeAskHandler(advisor QuestionAnswerer) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AnswerOutput, error,
	) {
		return nil, AnswerOutput{Answer: advisor.AnswerQuestion(ctx, input.Question)}, nil
	}
}

// makeProductHandler creates the check_eligible_product tool handler.
func makeProductHandler(products QuestionAnswerer) func(
	context.Context, *mcp.CallToolRequest, ProductInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (
		*mcp.CallToolResult, AnswerOutput, error,
	) {
		return nil, AnswerOutput{Answer: products.AnswerQuestion(ctx, input.Query)}, nil
	}
}

// makeVoucherHandler creates the check_voucher_eligibility tool handler.
func makeVoucherHandler() func(
	context.Context, *mcp.CallToolRequest, VoucherInput,
) (*mcp.CallToolResult, VoucherOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input VoucherInput) (
		*mcp.CallToolResult, VoucherOutput, error,
	) {
		out, err := evaluateVoucher(input)
		if err != nil {
			return nil, VoucherOutput{}, err
		}
		return nil, out, nil
	}
}

// evaluateVoucher parses the four answers and applies the voucher rules.
func evaluateVoucher(input VoucherInput) (VoucherOutput, error) {
	residency, err := eligibility.ParseResidency(input.Residency)
	if err != nil {
		return VoucherOutput{}, err
	}
	property, err := eligibility.ParseProperty(input.Property)
	if err != nil {
		return VoucherOutput{}, err
	}
	claimed300, err := eligibility.ParseClaimed(input.Claimed300)
	if err != nil {
		return VoucherOutput{}, fmt.Errorf("claimed_300: %w", err)
	}
	claimed100, err := eligibility.ParseClaimed(input.Claimed100)
	if err != nil {
		return VoucherOutput{}, fmt.Errorf("claimed_100: %w", err)
	}

	d, err := eligibility.Evaluate(eligibility.Household{
		Residency:  residency,
		Property:   property,
		Claimed300: claimed300,
		Claimed100: claimed100,
	})
	if err != nil {
		return VoucherOutput{}, err
	}
	return VoucherOutput{
		Outcome:    string(d.Outcome),
		Voucher300: d.Voucher300,
		Voucher100: d.Voucher100,
		Message:    d.Message,
	}, nil
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(index IndexReporter) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		out, err := indexStatus(ctx, index)
		if err != nil {
			return nil, StatusOutput{}, err
		}
		return nil, out, nil
	}
}

func indexStatus(ctx context.Context, index IndexReporter) (StatusOutput, error) {
	out := StatusOutput{
		Documents:       []DocumentStatus{},
		FailedDocuments: []string{},
	}

	last := index.LastIndex()
	if last == nil {
		return out, nil
	}

	count, err := index.IndexedChunks(ctx)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("store_error: failed to count chunks: %w", err)
	}

	out.Collection = last.Collection
	out.IndexedChunks = count
	out.LastBuildTime = last.CompletedAt.Format(time.RFC3339)
	for _, d := range last.Documents {
		out.Documents = append(out.Documents, DocumentStatus{
			SourceID: d.SourceID,
			Title:    d.Title,
			Tokens:   d.Tokens,
			Chunks:   d.Chunks,
		})
	}
	for _, f := range last.FailedDocs {
		out.FailedDocuments = append(out.FailedDocuments, f.SourceID)
	}
	return out, nil
}
