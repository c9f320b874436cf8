// Package plugin hosts out-of-process tool plugins over net/rpc using
// hashicorp/go-plugin. Each tool a plugin advertises is wrapped into a
// toolhub.Executable and registered as a plugin-source candidate.
package plugin

import "context"

// ToolPlugin is the interface a tool plugin binary must implement.
type ToolPlugin interface {
	// ListTools returns the tools this plugin provides.
	ListTools(ctx context.Context) ([]ToolSpec, error)

	// ExecuteTool executes one of the advertised tools.
	ExecuteTool(ctx context.Context, name string, input map[string]any) (map[string]any, error)
}

// ToolSpec describes one tool a plugin advertises.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
