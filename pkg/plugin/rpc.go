package plugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is used to verify that the plugin and host are compatible.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "TOOLHUB_PLUGIN",
	MagicCookieValue: "toolhub-plugin-v1",
}

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	"tools": &ToolRPCPlugin{},
}

// ToolRPCPlugin is the implementation of plugin.Plugin for RPC.
type ToolRPCPlugin struct {
	Impl ToolPlugin
}

func (p *ToolRPCPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ToolRPCServer{Impl: p.Impl}, nil
}

func (p *ToolRPCPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ToolRPCClient{client: c}, nil
}

// ToolRPCServer is the RPC server that ToolRPCClient talks to.
type ToolRPCServer struct {
	Impl ToolPlugin
}

// ListToolsResp is the response for the ListTools RPC call.
type ListToolsResp struct {
	Tools []ToolSpec
	Err   string
}

func (s *ToolRPCServer) ListTools(args interface{}, resp *ListToolsResp) error {
	tools, err := s.Impl.ListTools(context.Background())
	resp.Tools = tools
	if err != nil {
		resp.Err = err.Error()
	}
	return nil
}

// ExecuteToolArgs are the arguments for the ExecuteTool RPC call.
type ExecuteToolArgs struct {
	Name  string
	Input map[string]any
}

// ExecuteToolResp is the response for the ExecuteTool RPC call.
type ExecuteToolResp struct {
	Result map[string]any
	Err    string
}

func (s *ToolRPCServer) ExecuteTool(args *ExecuteToolArgs, resp *ExecuteToolResp) error {
	result, err := s.Impl.ExecuteTool(context.Background(), args.Name, args.Input)
	resp.Result = result
	if err != nil {
		resp.Err = err.Error()
	}
	return nil
}

// ToolRPCClient is the RPC client that talks to ToolRPCServer.
type ToolRPCClient struct {
	client *rpc.Client
}

func (c *ToolRPCClient) ListTools(ctx context.Context) ([]ToolSpec, error) {
	var resp ListToolsResp
	if err := c.client.Call("Plugin.ListTools", new(interface{}), &resp); err != nil {
		return nil, err
	}
	if resp.Err != "" {
		return nil, rpcError(resp.Err)
	}
	return resp.Tools, nil
}

func (c *ToolRPCClient) ExecuteTool(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	var resp ExecuteToolResp
	if err := c.client.Call("Plugin.ExecuteTool", &ExecuteToolArgs{Name: name, Input: input}, &resp); err != nil {
		return nil, err
	}
	if resp.Err != "" {
		return nil, rpcError(resp.Err)
	}
	return resp.Result, nil
}

type rpcError string

func (e rpcError) Error() string { return string(e) }

// Serve runs a plugin implementation as a standalone plugin process.
// Plugin binaries call this from their main.
func Serve(impl ToolPlugin) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"tools": &ToolRPCPlugin{Impl: impl},
		},
	})
}
