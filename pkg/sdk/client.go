package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
)

const schemaURI = "flowcraft://schema"

// Client is a typed Go client for the FlowCraft MCP server.
type Client struct {
	mcp      *client.Client
	retryCfg retry.Config
	timeout  time.Duration
	scope    Scope
}

// NewClient creates a new SDK client wrapping the given MCP transport.
func NewClient(transport client.Transport, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		mcp:     client.New(transport, client.WithTimeout(o.timeout)),
		timeout: o.timeout,
		scope:   o.scope,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Initialize performs the MCP initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// call invokes a tool with retry. Only transport failures are retried; an
// error reported by the server comes back as a *ToolError on the first try.
func (c *Client) call(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	type outcome struct {
		result  *client.ToolResult
		toolErr *ToolError
	}
	r := retry.New[outcome](c.retryCfg)
	out, err := r.Do(ctx, func(ctx context.Context) (outcome, error) {
		result, err := c.mcp.CallTool(ctx, tool, args)
		if err != nil {
			if msg, ok := serverMessage(err); ok {
				return outcome{toolErr: &ToolError{Tool: tool, Message: msg}}, nil
			}
			return outcome{}, err
		}
		return outcome{result: result}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if out.toolErr != nil {
		return nil, out.toolErr
	}
	if out.result.IsError {
		msg := ""
		if len(out.result.Content) > 0 {
			msg = out.result.Content[0].Text
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	return out.result, nil
}

// serverMessage extracts the message of a JSON-RPC error returned by the
// server. mcp-go renders those as "... mcp: <message> (code: <n>)"; anything
// else is a transport failure.
func serverMessage(err error) (string, bool) {
	text := err.Error()
	end := strings.LastIndex(text, " (code: ")
	if end < 0 {
		return "", false
	}
	msg := text[:end]
	if i := strings.LastIndex(msg, "mcp: "); i >= 0 {
		msg = msg[i+len("mcp: "):]
	}
	return msg, true
}

func (c *Client) scopeArgs(s Scope) map[string]any {
	return s.withDefaults(c.scope).args()
}

// unmarshalText decodes the JSON carried in Content[0].Text.
func unmarshalText[T any](result *client.ToolResult) (*T, error) {
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &v, nil
}

func textResult(result *client.ToolResult) (string, error) {
	if len(result.Content) == 0 {
		return "", ErrNoContent
	}
	return result.Content[0].Text, nil
}

// GetSchema reads the flowcraft://schema resource from the server.
func (c *Client) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	rc, err := c.mcp.ReadResource(ctx, schemaURI)
	if err != nil {
		return nil, fmt.Errorf("read schema resource: %w", err)
	}
	var info SchemaInfo
	if err := json.Unmarshal([]byte(rc.Text), &info); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &info, nil
}

// Compatible returns nil when the server's schema major version matches
// SupportedSchemaMajor.
func (c *Client) Compatible(ctx context.Context) error {
	info, err := c.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("check compatibility: %w", err)
	}
	if got := majorVersion(info.SchemaVersion); got != SupportedSchemaMajor {
		return fmt.Errorf("server schema %s is major %s, this client decodes major %s",
			info.SchemaVersion, got, SupportedSchemaMajor)
	}
	return nil
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}

// invoke calls tool with the scope merged over the client default and
// decodes the JSON result into T.
func invoke[T any](ctx context.Context, c *Client, tool string, scope Scope) (*T, error) {
	res, err := c.call(ctx, tool, c.scopeArgs(scope))
	if err != nil {
		return nil, err
	}
	return unmarshalText[T](res)
}

// Dashboard computes every dashboard card for the scope.
func (c *Client) Dashboard(ctx context.Context, scope Scope) (*analytics.Dashboard, error) {
	return invoke[analytics.Dashboard](ctx, c, "flowcraft_dashboard", scope)
}

// Throughput counts issues completed inside the scope's range.
func (c *Client) Throughput(ctx context.Context, scope Scope) (*analytics.ThroughputResult, error) {
	return invoke[analytics.ThroughputResult](ctx, c, "flowcraft_throughput", scope)
}

func (c *Client) CycleTime(ctx context.Context, scope Scope) (*analytics.CycleTimeStats, error) {
	return invoke[analytics.CycleTimeStats](ctx, c, "flowcraft_cycle_time", scope)
}

// DeliveryEta returns one projection per project with open work.
func (c *Client) DeliveryEta(ctx context.Context, scope Scope) ([]analytics.DeliveryEtaEntry, error) {
	v, err := invoke[[]analytics.DeliveryEtaEntry](ctx, c, "flowcraft_delivery_eta", scope)
	if err != nil {
		return nil, err
	}
	return *v, nil
}

func (c *Client) Wip(ctx context.Context, scope Scope) (*analytics.WipPressureResult, error) {
	return invoke[analytics.WipPressureResult](ctx, c, "flowcraft_wip", scope)
}

// MoveIssue moves an issue to status and returns the server's confirmation.
func (c *Client) MoveIssue(ctx context.Context, issueID, status string) (string, error) {
	res, err := c.call(ctx, "flowcraft_move_issue", map[string]any{
		"issue_id": issueID,
		"status":   status,
	})
	if err != nil {
		return "", err
	}
	return textResult(res)
}
