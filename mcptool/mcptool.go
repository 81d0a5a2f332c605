// Package mcptool connects to MCP servers and exposes their tools
// through the relay.ToolExecutor interface.
package mcptool

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mstolarz/relay"
)

const (
	clientName    = "relay"
	clientVersion = "0.1.0"
)

// Server is a single initialized MCP server connection. Its tool list is
// fetched once at connect time.
type Server struct {
	name   string
	client *client.Client
	tools  []relay.Tool
}

// ConnectHTTP connects to an MCP server over streamable HTTP, initializes
// the session and fetches the tool list.
func ConnectHTTP(ctx context.Context, url string) (*Server, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("creating MCP client for %s: %w", url, err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting MCP client for %s: %w", url, err)
	}
	return initialize(ctx, c, url)
}

// ConnectStdio launches command as a subprocess speaking MCP over
// stdin/stdout, initializes the session and fetches the tool list.
func ConnectStdio(ctx context.Context, command string, args ...string) (*Server, error) {
	c, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("launching MCP server %q: %w", command, err)
	}
	return initialize(ctx, c, command)
}

func initialize(ctx context.Context, c *client.Client, target string) (*Server, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}

	res, err := c.Initialize(ctx, req)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing MCP session with %s: %w", target, err)
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("listing tools from %s: %w", target, err)
	}

	tools := make([]relay.Tool, 0, len(list.Tools))
	for _, t := range list.Tools {
		rt, err := convertTool(t)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("converting tool %q from %s: %w", t.Name, target, err)
		}
		tools = append(tools, rt)
	}

	name := res.ServerInfo.Name
	if name == "" {
		name = target
	}
	clog.FromContext(ctx).Debugf("connected to MCP server %s (%d tools)", name, len(tools))

	return &Server{name: name, client: c, tools: tools}, nil
}

// Name returns the server's self-reported name.
func (s *Server) Name() string { return s.name }

// Tools returns the server's tool schemas.
func (s *Server) Tools() []relay.Tool { return s.tools }

// Close terminates the connection. For stdio servers this also stops the
// subprocess.
func (s *Server) Close() error { return s.client.Close() }
