package mcptool

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mstolarz/relay"
)

type callerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (f callerFunc) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return f(ctx, req)
}

// NewExecutorForTest builds an executor that routes every listed tool to the
// given call function.
func NewExecutorForTest(tools []relay.Tool, call func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) *Executor {
	routes := make(map[string]toolCaller, len(tools))
	for _, t := range tools {
		routes[t.Name] = callerFunc(call)
	}
	return newExecutor(tools, routes)
}

// ConvertTool exposes tool schema conversion for tests.
var ConvertTool = convertTool

// ConvertContent exposes result content conversion for tests.
var ConvertContent = convertContent
