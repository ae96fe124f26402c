package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tokengate/internal/client"
)

func newGetCmd(root *rootOptions) *cobra.Command {
	var token, method string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Call a route with a bearer token and print the response",
		Example: `  tokengatectl get /profile --token "$TOKEN"
  tokengatectl get /moderation/action --method POST`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("TOKENGATE_TOKEN")
			}
			raw, err := client.New(root.resolvedAPIURL()).Call(cmd.Context(), strings.ToUpper(method), args[0], token)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if root.jsonOutput {
				_, err = fmt.Fprintln(out, string(bytes.TrimSpace(raw)))
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				_, err = out.Write(raw)
				return err
			}
			_, err = fmt.Fprintln(out, strings.TrimSpace(buf.String()))
			return err
		},
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "Bearer token (overrides TOKENGATE_TOKEN)")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	return cmd
}
