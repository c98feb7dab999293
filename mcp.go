package vigil

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/vigil/internal/kit"
)

// RegisterMCP registers all vigil tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerReport(srv)
	svc.registerReportHistory(srv)
	svc.registerCycles(srv)
	svc.registerStats(srv)
	svc.registerCycleNow(srv)
	svc.registerSummarizeNow(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// tagMCP marks the tool invocation so command logs can tell the surfaces
// apart.
func tagMCP(ctx context.Context) context.Context {
	return kit.WithTransport(ctx, "mcp_stdio")
}

// decodeNone accepts empty or absent arguments for tools without inputs.
func decodeNone(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return &kit.MCPDecodeResult{Request: nil, EnrichCtx: tagMCP}, nil
}

// --- Report reads ---

func (svc *Service) registerReport(srv *mcp.Server) {
	type req struct {
		Format string `json:"format"`
	}

	tool := &mcp.Tool{
		Name:        "vigil_report",
		Description: "Get the current screen-activity report (no-data sentinel before the first summary)",
		InputSchema: inputSchema(map[string]any{
			"format": map[string]any{"type": "string", "description": "json (default), text, or html"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		doc := svc.Report(ctx)
		switch p.Format {
		case "", "json":
			return doc, nil
		case "text":
			return map[string]string{"content": renderText(doc, svc.username)}, nil
		case "html":
			html, err := renderHTML(doc, svc.username)
			if err != nil {
				return nil, err
			}
			return map[string]string{"content": html}, nil
		default:
			return nil, errors.New("format must be json, text, or html")
		}
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p, EnrichCtx: tagMCP}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerReportHistory(srv *mcp.Server) {
	type req struct {
		Limit int `json:"limit"`
	}

	tool := &mcp.Tool{
		Name:        "vigil_report_history",
		Description: "List persisted reports, newest first",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max rows (default 20)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.History(ctx, p.Limit)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p, EnrichCtx: tagMCP}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerCycles(srv *mcp.Server) {
	type req struct {
		Limit int `json:"limit"`
	}

	tool := &mcp.Tool{
		Name:        "vigil_cycles",
		Description: "List recent capture cycle audit rows, newest first",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max rows (default 50)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.Cycles(ctx, p.Limit)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p, EnrichCtx: tagMCP}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerStats(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vigil_stats",
		Description: "Get pipeline counters (cycles, failures, summaries)",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Stats(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNone)
}

// --- Commands ---

func (svc *Service) registerCycleNow(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vigil_cycle_now",
		Description: "Run one capture cycle immediately; the outcome is in the returned record",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		rec, err := svc.CycleNow(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok", "cycle": rec}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNone)
}

func (svc *Service) registerSummarizeNow(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vigil_summarize_now",
		Description: "Force a summarization of the accumulated text, bypassing the trigger policy",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		doc, err := svc.SummarizeNow(ctx)
		switch {
		case err == nil:
			return map[string]any{"status": "triggered", "report": doc}, nil
		case errors.Is(err, ErrBusy), errors.Is(err, ErrNothingToSummarize):
			return map[string]string{"status": "skipped", "reason": err.Error()}, nil
		default:
			return nil, err
		}
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeNone)
}
