package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile  string
	logLevel string
	logJSON  bool
}

// NewRootCmd builds the storefront-chat command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront-chat",
		Short: "Zava Storefront chat endpoint backed by Azure OpenAI",
		Long: `storefront-chat forwards storefront chat messages to an Azure OpenAI
chat-completions deployment and returns the reply.

Settings come from an optional config file, AWS SSM parameters under
--param-prefix, and environment variables such as AZURE_AI_FOUNDRY_ENDPOINT,
AZURE_AI_DEPLOYMENT_NAME and AZURE_TENANT_ID.`,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "log as JSON (overrides config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newLambdaCmd(opts),
		newSendCmd(opts),
	)
	return cmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
