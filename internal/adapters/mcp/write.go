package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

// RegisterWriteTools adds the catalog-mutating tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, engine *commands.Engine) {
	s.AddTool(applyTool(), applyHandler(engine))
	s.AddTool(batchUpdateTool(), batchUpdateHandler(engine))
}

// --- apply ---

func applyTool() mcp.Tool {
	return mcp.NewTool("apply",
		mcp.WithDescription("Apply proposed asset corrections to the catalog. Without a plan, runs a fresh audit and applies its suggestions. Records already pointing at the target are skipped."),
		mcp.WithString("category",
			mcp.Description("Only derive corrections for records of this category"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Return the plan without writing anything"),
		),
		mcp.WithArray("plan",
			mcp.Description("Explicit plan entries as returned in updateSuggestions. Omit to derive from a fresh audit."),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"recordId": map[string]any{"type": "string"},
					"toRef":    map[string]any{"type": "string"},
					"reason":   map[string]any{"type": "string"},
				},
				"required": []string{"recordId", "toRef"},
			}),
		),
	)
}

func applyHandler(engine *commands.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var plan domain.AssignmentPlan
		if raw, ok := req.GetArguments()["plan"]; ok && raw != nil {
			if err := rebind(raw, &plan); err != nil {
				return toolError(fmt.Errorf("invalid plan: %w", err))
			}
			if plan == nil {
				plan = domain.AssignmentPlan{}
			}
		}

		cmd := commands.NewApplyCommand(engine, plan, req.GetString("category", ""), req.GetBool("dry_run", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return runError(err, result)
		}
		return jsonResult(result)
	}
}

// --- batch_update ---

func batchUpdateTool() mcp.Tool {
	return mcp.NewTool("batch_update",
		mcp.WithDescription("Set the asset reference of specific records. Each entry is applied independently; failures are reported per entry."),
		mcp.WithArray("updates",
			mcp.Description("Corrections to write"),
			mcp.Required(),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":       map[string]any{"type": "string"},
					"assetRef": map[string]any{"type": "string"},
				},
				"required": []string{"id", "assetRef"},
			}),
		),
	)
}

func batchUpdateHandler(engine *commands.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var updates []commands.BatchUpdateItem
		if err := rebind(req.GetArguments()["updates"], &updates); err != nil {
			return toolError(fmt.Errorf("invalid updates: %w", err))
		}

		result, err := commands.NewBatchUpdateCommand(engine, updates).Execute(ctx)
		if err != nil {
			return runError(err, result)
		}
		return jsonResult(result)
	}
}

// runError reports a failed run. An interrupted run still carries the
// results of the entries already attempted.
func runError(err error, partial *commands.ApplyResult) (*mcp.CallToolResult, error) {
	if partial == nil {
		return toolError(err)
	}
	data, merr := json.MarshalIndent(struct {
		Error  string                `json:"error"`
		Result *commands.ApplyResult `json:"result"`
	}{err.Error(), partial}, "", "  ")
	if merr != nil {
		return toolError(err)
	}
	return mcp.NewToolResultError(string(data)), nil
}

// rebind converts a decoded JSON argument into a typed value
func rebind(raw any, target any) error {
	if raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
