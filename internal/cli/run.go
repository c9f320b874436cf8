package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harun/toolhub/pkg/llm"
	"github.com/harun/toolhub/pkg/toolhub"
)

var (
	runByCapability bool
	runMaxParallel  int
	runJSONInput    bool
	runSynthesize   bool
)

var runCmd = &cobra.Command{
	Use:   "run [tool] [input]",
	Short: "Execute a tool once and print the result",
	Long: `Execute a tool by name (or, with --by-capability, by capability tag)
through the dispatch engine and print the normalized result as JSON.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runByCapability, "by-capability", false, "treat the first argument as a capability tag")
	runCmd.Flags().IntVar(&runMaxParallel, "max-parallel", 3, "max concurrent candidates for capability dispatch")
	runCmd.Flags().BoolVar(&runJSONInput, "json", false, "parse the input argument as JSON")
	runCmd.Flags().BoolVar(&runSynthesize, "synthesize", false, "merge multi-source results with a model from ANTHROPIC_API_KEY or OPENAI_API_KEY")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	hub, _, cleanup, err := buildHub(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var input any
	if len(args) > 1 {
		input = args[1]
		if runJSONInput {
			var decoded any
			if err := json.Unmarshal([]byte(args[1]), &decoded); err != nil {
				return fmt.Errorf("failed to parse input as JSON: %w", err)
			}
			input = decoded
		}
	}

	var gen toolhub.TextGenerator
	if runSynthesize {
		if g := llm.FromEnv(); g != nil {
			gen = g
		} else {
			fmt.Fprintln(os.Stderr, "no API key in environment, falling back to direct merge")
		}
	}

	var res any
	if runByCapability {
		res = hub.ExecuteByCapability(ctx, args[0], input, runMaxParallel, gen)
	} else {
		res = hub.Execute(ctx, args[0], input, gen)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
