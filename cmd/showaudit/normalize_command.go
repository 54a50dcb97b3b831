package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"showaudit/internal/naming"
)

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "normalize <folder>...",
		Short:       "Print the search query and year derived from folder names",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				result := naming.Normalize(arg)
				year := "-"
				if result.HasYear {
					year = strconv.Itoa(result.Year)
				}
				rows = append(rows, []string{arg, orDash(result.Name), year})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Folder", "Query", "Year"}, rows, nil))
			return nil
		},
	}
}
