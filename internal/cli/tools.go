package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools and their candidates",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	hub, _, cleanup, err := buildHub(context.Background())
	if err != nil {
		return err
	}
	defer cleanup()

	infos := hub.List()

	if toolsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	for _, info := range infos {
		fmt.Printf("%s\n", info.Name)
		for _, cand := range info.Candidates {
			fmt.Printf("  %-8s priority=%d capabilities=%v\n", cand.Source, cand.Priority, cand.Capabilities)
		}
	}
	return nil
}
