package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"showaudit/internal/catalog/tvdb"
	"showaudit/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories and catalog credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var auth preflight.Authenticator
			if !offline {
				client, err := tvdb.New(cfg.TVDB.APIKey, cfg.TVDB.BaseURL,
					tvdb.WithTimeout(cfg.RequestTimeout()),
					tvdb.WithPIN(cfg.TVDB.PIN),
				)
				if err != nil {
					return err
				}
				auth = client
			}

			results := preflight.RunAll(cmd.Context(), cfg, auth)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				status := paint("ok", colorize, text.FgGreen)
				if !result.Passed {
					status = paint("fail", colorize, text.FgRed)
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if !preflight.AllPassed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the catalog login check")
	return cmd
}
