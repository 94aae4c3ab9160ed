package cmd

import (
	"github.com/spf13/cobra"

	"tors/internal/credentials"
)

// newAPIKeyCmd creates the 'apikey' command for the remote API key
func (a *app) newAPIKeyCmd() *cobra.Command {
	apikeyCmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the remote API key",
		Long:  "Store, inspect and remove the API key used in remote mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	apikeyCmd.AddCommand(a.newAPIKeySetCmd())
	apikeyCmd.AddCommand(a.newAPIKeyGetCmd())
	apikeyCmd.AddCommand(a.newAPIKeyDeleteCmd())
	return apikeyCmd
}

func (a *app) handler() *credentials.CLIHandler {
	return credentials.NewCLIHandler(a.credentials(true), a.stdin(), a.stdout)
}

func (a *app) newAPIKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key in the system keyring",
		Long:  "Store the API key in the system keyring. The key is read from stdin when not given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return a.handler().Set(key)
		},
	}
}

func (a *app) newAPIKeyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show where the API key comes from",
		Long:  "Resolve the API key (keyring > TORS_API_KEY > remote.api_key) and show its source with the key masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handler().Get(a.conf.Remote.APIKey, a.json)
		},
	}
}

func (a *app) newAPIKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the API key from the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handler().Delete()
		},
	}
}
