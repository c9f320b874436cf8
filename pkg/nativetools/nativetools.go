// Package nativetools registers the baseline in-process tools: the
// native-source candidates every installation starts with.
package nativetools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harun/toolhub/pkg/toolhub"
)

// Options configures native tool registration.
type Options struct {
	WorkspaceRoot string
}

// RegisterAll registers every native tool with the hub.
func RegisterAll(hub *toolhub.Hub, opts Options) error {
	cands := []toolhub.Candidate{
		calculatorTool(),
		clockTool(),
		workspaceFilesTool(opts),
		echoTool(),
	}
	for _, cand := range cands {
		if err := hub.Register(cand); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", cand.Name, err)
		}
	}
	return nil
}

func calculatorTool() toolhub.Candidate {
	const desc = "Calculate the result of a basic arithmetic expression"
	return toolhub.Candidate{
		Name:         "calculator",
		Source:       toolhub.SourceNative,
		Priority:     toolhub.PriorityNative,
		Capabilities: toolhub.ExtractCapabilities(desc, "calculator"),
		Metadata:     map[string]any{"description": desc},
		Exec: toolhub.ExecutableFunc(func(ctx context.Context, input any) (any, error) {
			expr := inputText(input, "expression")
			if expr == "" {
				return nil, fmt.Errorf("empty expression")
			}
			value, err := evalExpression(expr)
			if err != nil {
				return nil, err
			}
			return strconv.FormatFloat(value, 'f', -1, 64), nil
		}),
	}
}

func clockTool() toolhub.Candidate {
	const desc = "Report the current date and time"
	return toolhub.Candidate{
		Name:         "clock",
		Source:       toolhub.SourceNative,
		Priority:     toolhub.PriorityNative,
		Capabilities: toolhub.ExtractCapabilities(desc, "clock"),
		Metadata:     map[string]any{"description": desc},
		Exec: toolhub.ExecutableFunc(func(ctx context.Context, input any) (any, error) {
			now := time.Now()
			return map[string]any{
				"iso":      now.Format(time.RFC3339),
				"unix":     now.Unix(),
				"timezone": now.Location().String(),
			}, nil
		}),
	}
}

func workspaceFilesTool(opts Options) toolhub.Candidate {
	const desc = "List files in the workspace directory"
	return toolhub.Candidate{
		Name:         "workspace_files",
		Source:       toolhub.SourceNative,
		Priority:     toolhub.PriorityNative,
		Capabilities: toolhub.ExtractCapabilities(desc, "workspace_files"),
		Metadata:     map[string]any{"description": desc},
		Exec: toolhub.ExecutableFunc(func(ctx context.Context, input any) (any, error) {
			root := opts.WorkspaceRoot
			if root == "" {
				root = "."
			}
			sub := inputText(input, "path")
			dir := root
			if sub != "" {
				dir = filepath.Join(root, filepath.Clean("/"+sub))
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory: %w", err)
			}
			items := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				items = append(items, map[string]any{
					"name": e.Name(),
					"dir":  e.IsDir(),
				})
			}
			return map[string]any{"items": items, "path": dir}, nil
		}),
	}
}

func echoTool() toolhub.Candidate {
	const desc = "Return the input unchanged"
	return toolhub.Candidate{
		Name:         "echo",
		Source:       toolhub.SourceNative,
		Priority:     toolhub.PriorityNative,
		Capabilities: toolhub.ExtractCapabilities(desc, "echo"),
		Metadata:     map[string]any{"description": desc},
		Exec: toolhub.ExecutableFunc(func(ctx context.Context, input any) (any, error) {
			return input, nil
		}),
	}
}

// inputText extracts a string from either a bare string input or a map
// input under the given key (falling back to "input").
func inputText(input any, key string) string {
	switch v := input.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v[key].(string); ok {
			return strings.TrimSpace(s)
		}
		if s, ok := v["input"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// evalExpression evaluates + - * / with the usual precedence over a
// whitespace-tolerant expression. Good enough for a demo tool; not a
// general parser.
func evalExpression(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty expression")
	}

	// First pass: fold * and /.
	folded := []token{tokens[0]}
	for i := 1; i < len(tokens); i += 2 {
		if i+1 >= len(tokens) {
			return 0, fmt.Errorf("trailing operator in expression")
		}
		op, num := tokens[i], tokens[i+1]
		switch op.op {
		case "*":
			folded[len(folded)-1].value *= num.value
		case "/":
			if num.value == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			folded[len(folded)-1].value /= num.value
		default:
			folded = append(folded, op, num)
		}
	}

	// Second pass: + and -.
	result := folded[0].value
	for i := 1; i < len(folded); i += 2 {
		switch folded[i].op {
		case "+":
			result += folded[i+1].value
		case "-":
			result -= folded[i+1].value
		default:
			return 0, fmt.Errorf("unsupported operator %q", folded[i].op)
		}
	}
	return result, nil
}

type token struct {
	op    string
	value float64
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	expectNumber := true
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.ContainsRune("+-*/", rune(c)) && !expectNumber:
			tokens = append(tokens, token{op: string(c)})
			expectNumber = true
			i++
		default:
			j := i
			if expr[j] == '-' || expr[j] == '+' {
				j++
			}
			for j < len(expr) && (expr[j] == '.' || (expr[j] >= '0' && expr[j] <= '9')) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("unexpected character %q in expression", c)
			}
			value, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", expr[i:j], err)
			}
			tokens = append(tokens, token{value: value})
			expectNumber = false
			i = j
		}
	}
	if expectNumber {
		return nil, fmt.Errorf("expression ends with an operator")
	}
	return tokens, nil
}
