// Package mcpc wraps the MCP stdio client the remote tool-execution service
// is reached through. The connection is established once at process start and
// lives for the process lifetime; callers see a missing connection as a
// retryable condition, never a crash.
package mcpc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	contractx "github.com/ordino-ai/ordino/agent/contract"
)

type Config struct {
	Command string   `envconfig:"COMMAND" split_words:"true" default:"uvx"`
	Args    []string `envconfig:"ARGS" split_words:"true" default:"zomato-mcp"`
}

// Client implements contract.ToolService over an MCP stdio transport.
type Client struct {
	command string
	args    []string

	mu      sync.RWMutex
	session *mcp.ClientSession
}

var _ contractx.ToolService = (*Client)(nil)

func New(cfg Config) *Client {
	return &Client{
		command: strings.TrimSpace(cfg.Command),
		args:    cfg.Args,
	}
}

// Connect spawns the tool server process and performs the MCP handshake.
func (c *Client) Connect(ctx context.Context) error {
	if c.command == "" {
		return fmt.Errorf("%w: tool server command is empty", contractx.ErrToolServiceUnavailable)
	}

	cmd := exec.Command(c.command, c.args...)
	cmd.Env = os.Environ()

	client := mcp.NewClient(&mcp.Implementation{Name: "ordino", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return fmt.Errorf("connect tool server: %w", err)
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	log.Info().Str("command", c.command).Strs("args", c.args).Msg("tool service connected")
	return nil
}

// Close tears the session down. Safe to call when never connected.
func (c *Client) Close() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Close()
}

// Call invokes one remote operation. Text parts are joined with newlines; the
// first image part, if any, is carried as binary payload.
func (c *Client) Call(ctx context.Context, name string, args map[string]any) (contractx.Payload, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		return contractx.Payload{}, contractx.ErrToolServiceUnavailable
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return contractx.Payload{}, fmt.Errorf("call %s: %w", name, err)
	}

	var payload contractx.Payload
	var textParts []string
	for _, content := range result.Content {
		switch content := content.(type) {
		case *mcp.TextContent:
			textParts = append(textParts, content.Text)
		case *mcp.ImageContent:
			if payload.ImageData == nil {
				payload.ImageData = content.Data
				payload.ImageMIME = content.MIMEType
			}
		default:
			textParts = append(textParts, fmt.Sprintf("%v", content))
		}
	}
	payload.Text = strings.Join(textParts, "\n")

	if result.IsError {
		return payload, fmt.Errorf("tool %s returned error: %s", name, payload.Text)
	}
	return payload, nil
}

// ListTools is a startup diagnostic: it verifies the server answers and logs
// what it exposes.
func (c *Client) ListTools(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		return nil, contractx.ErrToolServiceUnavailable
	}
	result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Tools))
	for _, t := range result.Tools {
		names = append(names, t.Name)
	}
	return names, nil
}
