package mcptool

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mstolarz/relay"
)

// convertTool maps an MCP tool schema to the provider-facing form. Servers
// that supply a raw JSON schema pass it through untouched.
func convertTool(t mcp.Tool) (relay.Tool, error) {
	params := json.RawMessage(t.RawInputSchema)
	if len(params) == 0 {
		b, err := json.Marshal(t.InputSchema)
		if err != nil {
			return relay.Tool{}, fmt.Errorf("marshaling input schema: %w", err)
		}
		params = b
	}
	return relay.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  params,
	}, nil
}

// convertContent maps MCP result content to conversation blocks. Content
// types the conversation model cannot represent are dropped.
func convertContent(content []mcp.Content) ([]relay.ContentBlock, error) {
	blocks := make([]relay.ContentBlock, 0, len(content))
	for _, c := range content {
		switch c := c.(type) {
		case mcp.TextContent:
			blocks = append(blocks, relay.TextBlock{Text: c.Text})
		case mcp.ImageContent:
			data, err := base64.StdEncoding.DecodeString(c.Data)
			if err != nil {
				return nil, fmt.Errorf("decoding image content: %w", err)
			}
			blocks = append(blocks, relay.ImageBlock{Data: data, MimeType: c.MIMEType})
		}
	}
	return blocks, nil
}
