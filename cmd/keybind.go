package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/devloop/internal/keybind"
	"github.com/timvw/devloop/internal/model"
	"github.com/timvw/devloop/internal/workspace"
)

var (
	flagKeybindMode     string
	flagKeybindPluginID uint32
)

var keybindCmd = &cobra.Command{
	Use:   "keybind [spec]",
	Short: "Validate a reload shortcut and print its registration",
	Long: `Parse a shortcut spec such as "Ctrl Shift r" and print the keybinding
configuration devloop registers with the host for it.

Without an argument the configured reload shortcut is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k := cfg.Shortcut
		if len(args) == 1 {
			var err error
			k, err = keybind.Parse(args[0])
			if err != nil {
				return err
			}
		}

		b := keybind.Binding{
			Mode:     string(model.InputMode(flagKeybindMode).Normalize()),
			Key:      k,
			PluginID: flagKeybindPluginID,
			Message:  workspace.RecompileMessage,
		}
		fmt.Printf("# %s\n", k.Hint())
		fmt.Print(b.Config())
		if !strings.HasSuffix(b.Config(), "\n") {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	keybindCmd.Flags().StringVar(&flagKeybindMode, "mode", string(model.ModeNormal), "input mode the binding is scoped to")
	keybindCmd.Flags().Uint32Var(&flagKeybindPluginID, "plugin-id", 0, "plugin id the shortcut messages")
	rootCmd.AddCommand(keybindCmd)
}
