package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// awsRegions are offered for --region completion.
var awsRegions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"eu-west-1", "eu-west-2", "eu-central-1", "eu-north-1",
	"ap-northeast-1", "ap-southeast-1", "ap-southeast-2", "ap-south-1",
	"ca-central-1", "sa-east-1",
}

// completeRegions provides shell completion for region flag values.
func completeRegions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, region := range awsRegions {
		if strings.HasPrefix(region, toComplete) {
			matches = append(matches, region)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// registerCompletions wires flag completions for the scan flags.
func registerCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("region", completeRegions)
	_ = cmd.MarkFlagFilename("rules", "yaml", "yml")
	_ = cmd.MarkFlagFilename("yara-ruleset", "yaml", "yml")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")
	_ = cmd.MarkFlagFilename("paths")
	_ = cmd.MarkFlagFilename("log-file")
}
