package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireNoArgs rejects positional arguments. Store paths are passed with
// --path or --paths so that the target source stays explicit.
func RequireNoArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return fmt.Errorf(`accepts 0 arg(s), received %d

Store paths are selected with flags:
  %s --needle <bytes> --path /nix/store/<hash>-<name>
  %s --needle <bytes> --paths <file>`, len(args), cmd.CommandPath(), cmd.CommandPath())
}
