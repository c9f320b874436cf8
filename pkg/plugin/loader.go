package plugin

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-plugin"
	"github.com/rs/zerolog/log"

	"github.com/harun/toolhub/pkg/toolhub"
)

// LoadedPlugin is a running plugin process and its advertised tools.
type LoadedPlugin struct {
	Path   string
	Tools  []ToolSpec
	client *plugin.Client
	impl   ToolPlugin
}

// Load launches the plugin binary at path, performs the handshake, and
// fetches its tool list.
func Load(ctx context.Context, path string) (*LoadedPlugin, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap,
		Cmd:              exec.Command(path),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense("tools")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	impl, ok := raw.(ToolPlugin)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("unexpected plugin type %T", raw)
	}

	tools, err := impl.ListTools(ctx)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to list plugin tools: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("tools", len(tools)).
		Msg("Plugin loaded")

	return &LoadedPlugin{Path: path, Tools: tools, client: client, impl: impl}, nil
}

// RegisterTools registers every advertised tool with the hub as a
// plugin-source candidate.
func (p *LoadedPlugin) RegisterTools(hub *toolhub.Hub) error {
	for _, spec := range p.Tools {
		cand := toolhub.Candidate{
			Name:         spec.Name,
			Source:       toolhub.SourcePlugin,
			Priority:     toolhub.PriorityPlugin,
			Capabilities: toolhub.ExtractCapabilities(spec.Description, spec.Name),
			Exec:         &pluginExecutable{plugin: p, tool: spec.Name},
			Metadata:     spec.Metadata,
		}
		if err := hub.Register(cand); err != nil {
			return fmt.Errorf("failed to register plugin tool %s: %w", spec.Name, err)
		}
	}
	return nil
}

// Close kills the plugin process.
func (p *LoadedPlugin) Close() {
	if p.client != nil {
		p.client.Kill()
	}
}

// pluginExecutable adapts one plugin tool to the Executable contract.
type pluginExecutable struct {
	plugin *LoadedPlugin
	tool   string
}

func (e *pluginExecutable) Execute(ctx context.Context, input any) (any, error) {
	params, ok := input.(map[string]any)
	if !ok {
		params = map[string]any{"input": input}
	}

	// net/rpc calls cannot be interrupted mid-flight; run in a
	// goroutine so cancellation unblocks the engine.
	type outcome struct {
		result map[string]any
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		result, err := e.plugin.impl.ExecuteTool(ctx, e.tool, params)
		ch <- outcome{result: result, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, fmt.Errorf("plugin tool %s failed: %w", e.tool, out.err)
		}
		return out.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
