package mcpclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Client wraps one MCP server connection and exposes tool invocation for the
// computer-use agent. The connection is initialized once at startup.
type Client struct {
	inner *client.Client
}

func New(ctx context.Context, serverURL string) (*Client, error) {
	inner, err := client.NewStreamableHttpClient(serverURL)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}
	if err := inner.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "agent-orchestrator",
		Version: "1.0.0",
	}
	if _, err := inner.Initialize(ctx, initRequest); err != nil {
		inner.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	return &Client{inner: inner}, nil
}

func (c *Client) Close() error {
	return c.inner.Close()
}

// CallTool invokes a named tool and flattens its text content blocks.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = arguments

	result, err := c.inner.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	output := strings.TrimSpace(strings.Join(parts, "\n"))
	if result.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, output)
	}
	return output, nil
}
