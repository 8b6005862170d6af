// Package sdk provides a typed Go client for the FlowCraft MCP server.
//
// The client wraps mcp-go/client.CallTool with one method per metrics tool
// and retries transport failures via fortify.
//
// Usage:
//
//	transport, _ := client.NewStdioTransport("flowcraft", "mcp")
//	c := sdk.NewClient(transport)
//	defer c.Close()
//
//	info, _ := c.Initialize(ctx)
//	d, _ := c.Dashboard(ctx, sdk.Scope{Range: "14d"})
//	fmt.Println(d.Throughput.Count)
package sdk
