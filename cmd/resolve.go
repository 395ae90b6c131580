package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <dir>",
	Short: "Print the plugin artifact a folder builds",
	Long: `Print the artifact locator and plugin name for a project folder, using the
configured output directory and artifact extension.

The locator is what devloop loads after a successful build, and what it
matches against plugin panes to find the plugin under development.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		art, ok := cfg.Layout().Resolve(dir)
		if !ok {
			return fmt.Errorf("cannot derive a plugin name from %q", dir)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Folder  string `json:"folder"`
			Name    string `json:"name"`
			Locator string `json:"locator"`
		}{dir, art.Name, art.Locator})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
