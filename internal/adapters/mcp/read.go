package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

// RegisterReadTools adds the read-only reconciliation tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, engine *commands.Engine) {
	s.AddTool(auditTool(), auditHandler(engine))
	s.AddTool(recordStatusTool(), recordStatusHandler(engine))
	s.AddTool(listAssetsTool(), listAssetsHandler(engine))
}

// --- audit ---

func auditTool() mcp.Tool {
	return mcp.NewTool("audit",
		mcp.WithDescription("Audit catalog records against the image asset pool. Read-only: reports matched, mismatched, orphaned and unassigned records plus proposed corrections."),
		mcp.WithString("category",
			mcp.Description("Only audit records of this category (case-insensitive). Omit for the whole catalog."),
		),
		mcp.WithBoolean("summary",
			mcp.Description("Return a short text summary instead of the full JSON report"),
		),
	)
}

func auditHandler(engine *commands.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewAuditCommand(engine, req.GetString("category", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if req.GetBool("summary", false) {
			return mcp.NewToolResultText(formatAuditSummary(result)), nil
		}
		return jsonResult(result)
	}
}

func formatAuditSummary(r *commands.AuditResult) string {
	var sb strings.Builder
	s := r.Stats
	fmt.Fprintf(&sb, "records %d  matched %d  mismatched %d  orphans %d  unassigned %d\n",
		s.TotalRecords, s.Matched, s.Mismatched, s.Orphans, s.Unassigned)
	fmt.Fprintf(&sb, "assets %d  unused %d  duplicate groups %d  match rate %.1f%%\n",
		s.TotalAssets, s.UnusedAssets, s.DuplicateGroups, s.MatchRatePercent)
	if len(r.UpdateSuggestions) == 0 {
		sb.WriteString("No corrections proposed.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d proposed corrections:\n", len(r.UpdateSuggestions))
	for _, e := range r.UpdateSuggestions {
		sb.WriteString(formatPlanEntry(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- record_status ---

func recordStatusTool() mcp.Tool {
	return mcp.NewTool("record_status",
		mcp.WithDescription("Show one record's classification, resolved asset and proposed correction."),
		mcp.WithString("id",
			mcp.Description("Record identifier"),
			mcp.Required(),
		),
	)
}

func recordStatusHandler(engine *commands.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := strings.TrimSpace(req.GetString("id", ""))
		if id == "" {
			return toolError(fmt.Errorf("id is required"))
		}

		result, err := commands.NewAuditCommand(engine, "").Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		for _, st := range result.ProductImageStatus {
			if st.ID == id {
				return jsonResult(st)
			}
		}
		return toolError(fmt.Errorf("record not found: %s", id))
	}
}

// --- list_assets ---

func listAssetsTool() mcp.Tool {
	return mcp.NewTool("list_assets",
		mcp.WithDescription("List image assets with the records referencing each one."),
		mcp.WithString("category",
			mcp.Description("Asset category directory. Omit for all categories."),
		),
		mcp.WithBoolean("unused",
			mcp.Description("Only list assets no record references"),
		),
	)
}

func listAssetsHandler(engine *commands.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var categories []string
		if c := req.GetString("category", ""); c != "" {
			categories = []string{c}
		}

		usage, err := commands.NewListAssetsCommand(engine, categories, req.GetBool("unused", false)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(usage, formatAssetUsage)
	}
}

func formatAssetUsage(u commands.AssetUsage) string {
	if u.Uses() == 0 {
		return fmt.Sprintf("%s  unused", u.Path)
	}
	return fmt.Sprintf("%s  %s", u.Path, strings.Join(u.RecordIDs, ","))
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("encoding result: %w", err))
	}
	return mcp.NewToolResultText(string(data)), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatPlanEntry(e domain.PlanEntry) string {
	return fmt.Sprintf("%s  %s -> %s  (%s, %.2f)", e.RecordID, e.FromRef, e.ToRef, e.Reason, e.Confidence)
}
