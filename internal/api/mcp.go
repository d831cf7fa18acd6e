package api

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates an MCP server exposing release search and question
// answering as tools. MCP callers have no session, so escalations are only
// reported, never stored.
func NewMCPServer(a Assistant, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"relbot",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("relbot answers questions about Relativity release notes."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_releases",
			mcp.WithDescription("Search the release notes and return the matching rows as a table, newest first."),
			mcp.WithString("query", mcp.Description("Text to look for in module names and descriptions"), mcp.Required()),
		),
		mcpSearch(a),
	)

	s.AddTool(
		mcp.NewTool("ask_releases",
			mcp.WithDescription("Answer a question about Relativity releases using the release notes."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAsk(a),
	)

	return s
}

func mcpSearch(a Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil || query == "" {
			return mcpError("query is required"), nil
		}

		res, err := a.Search(query)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcpText(res.Text), nil
	}
}

func mcpAsk(a Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		res, err := a.Ask(ctx, question)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		text := res.Answer
		if res.RequiresContact {
			text += "\n\n(El asistente sugiere contactar a soporte para esta consulta.)"
		}
		return mcpText(text), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
