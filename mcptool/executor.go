package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mstolarz/relay"
)

// toolCaller is the slice of the MCP client the executor needs. It exists so
// routing can be tested without a live server.
type toolCaller interface {
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Executor routes tool calls by name across one or more MCP servers.
type Executor struct {
	tools   []relay.Tool
	routes  map[string]toolCaller
	servers []*Server
}

// NewExecutor builds an executor over the given servers. When two servers
// offer a tool with the same name, the first-registered server wins.
func NewExecutor(servers ...*Server) *Executor {
	e := &Executor{routes: make(map[string]toolCaller), servers: servers}
	for _, s := range servers {
		for _, t := range s.tools {
			if _, ok := e.routes[t.Name]; ok {
				continue
			}
			e.routes[t.Name] = s.client
			e.tools = append(e.tools, t)
		}
	}
	return e
}

func newExecutor(tools []relay.Tool, routes map[string]toolCaller) *Executor {
	return &Executor{tools: tools, routes: routes}
}

// Tools returns all tool schemas across servers, in registration order.
func (e *Executor) Tools() []relay.Tool { return e.tools }

// Execute sends the call to the server that owns the named tool. Transport
// failures return an error; tool-reported failures come back as a result
// with IsError set.
func (e *Executor) Execute(ctx context.Context, name string, args json.RawMessage) (*relay.ToolResult, error) {
	caller, ok := e.routes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", relay.ErrToolNotFound, name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	clog.FromContext(ctx).Debugf("calling tool %s", name)
	res, err := caller.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling tool %s: %w", name, err)
	}

	blocks, err := convertContent(res.Content)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	return &relay.ToolResult{Content: blocks, IsError: res.IsError}, nil
}

// Close closes all server connections, returning the joined errors.
func (e *Executor) Close() error {
	var errs []error
	for _, s := range e.servers {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ relay.ToolExecutor = (*Executor)(nil)
