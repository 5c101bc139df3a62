package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/narscan/pkg/narscan"
)

var rootCmd = &cobra.Command{
	Use:   "narscan",
	Short: "Search the Nix binary cache for byte patterns",
	Long: `narscan downloads the NAR archives of Nix store paths from the binary cache
and scans every file in them for an exact byte sequence (--needle) or a
YAML rule set (--rules).

Small batches are fetched through the CDN. Batches of ` + fmt.Sprint(narscan.ObjectStoreThreshold) + ` or more store paths
read the requester-pays S3 bucket directly, which is only free from the
` + narscan.CacheRegion + ` region; elsewhere such runs are refused unless
--allow-possibly-expensive-run is given.

Exit Codes:
  0  - Success (failures of individual store paths are reported, not escalated)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration, no pattern, or rule set compilation failed
  20 - No store paths to check
  21 - Possibly expensive run refused
  22 - Requested feature is not implemented`,
	Example: `  narscan --needle 'yolAbejyiejuvnup' --path /nix/store/0c0xlcqzz8k5g0hdcsmjxjscmz5sn6qh-xz-5.6.1
  narscan --rules backdoor.yaml --paths store-paths.txt --parallelism 32`,
	Args:         RequireNoArgs,
	RunE:         runScan,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	registerScanFlags(rootCmd)
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
