package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tokengate/internal/client"
	"tokengate/internal/loginform"
)

// promptNotifier shows the confirmation and waits for Enter.
type promptNotifier struct {
	out     io.Writer
	in      *bufio.Reader
	verbose bool
}

func (n *promptNotifier) Log(username, password string) {
	if n.verbose {
		fmt.Fprintf(n.out, "username=%s password=%s\n", username, strings.Repeat("*", len(password)))
	}
}

func (n *promptNotifier) Confirm(message string) {
	fmt.Fprintf(n.out, "%s\n[press Enter to continue]\n", message)
	_, _ = n.in.ReadString('\n')
}

func newLoginCmd(root *rootOptions) *cobra.Command {
	var username, password string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := &loginform.Form{}
			if err := form.SetField(loginform.FieldUsername, username); err != nil {
				return err
			}
			if err := form.SetField(loginform.FieldPassword, password); err != nil {
				return err
			}
			if err := form.Validate(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), form.Error)
				return err
			}

			resp, err := client.New(root.resolvedAPIURL()).Login(cmd.Context(), form.Username, form.Password)
			if err != nil {
				return err
			}
			n := &promptNotifier{out: cmd.OutOrStdout(), in: bufio.NewReader(cmd.InOrStdin()), verbose: verbose}
			if err := form.Submit(n); err != nil {
				return err
			}
			return printLogin(cmd.OutOrStdout(), resp, root.jsonOutput)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Echo submitted form values (password masked)")
	return cmd
}

func printLogin(w io.Writer, resp *client.LoginResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	role := resp.User.Role
	if role == "" {
		role = "-"
	}
	_, err := fmt.Fprintf(w, "User:       %s (%s)\nRole:       %s\nExpires in: %s\nToken:      %s\n",
		resp.User.Name, resp.User.Username, role, resp.ExpiresIn, resp.Token)
	return err
}
