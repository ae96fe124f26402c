package main

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:3000"

type rootOptions struct {
	apiURL     string
	jsonOutput bool
}

func (o *rootOptions) resolvedAPIURL() string {
	if o.apiURL != "" {
		return o.apiURL
	}
	if env := os.Getenv("TOKENGATE_API_URL"); env != "" {
		return env
	}
	return defaultAPIURL
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tokengatectl",
		Short: "Command-line front end for the tokengate service",
		Long: `tokengatectl logs in to a tokengate server and calls its protected routes.

Environment Variables:
  TOKENGATE_API_URL  Server URL (default: http://localhost:3000)
  TOKENGATE_TOKEN    Bearer token used by "get" when --token is not set`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Server URL (overrides TOKENGATE_API_URL)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print raw JSON responses")

	cmd.AddCommand(newLoginCmd(opts), newGetCmd(opts))
	return cmd
}
