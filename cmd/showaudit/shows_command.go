package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"showaudit/internal/reconcile"
	"showaudit/internal/state"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	showsCmd := &cobra.Command{
		Use:   "shows",
		Short: "Inspect and edit reconciled shows",
	}

	showsCmd.AddCommand(newShowsListCommand(ctx))
	showsCmd.AddCommand(newShowsShowCommand(ctx))
	showsCmd.AddCommand(newShowsForgetCommand(ctx))

	return showsCmd
}

// showJSON is the machine-readable form of a record.
type showJSON struct {
	CatalogID    string    `json:"tvdb_id"`
	Title        string    `json:"title"`
	Folder       string    `json:"folder"`
	Confidence   int       `json:"confidence"`
	Seasons      []int     `json:"seasons"`
	LocalSeasons []int     `json:"local_seasons"`
	Missing      []int     `json:"missing"`
	Extra        []int     `json:"extra"`
	Status       string    `json:"status,omitempty"`
	Provenance   string    `json:"provenance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toShowJSON(record state.Record) showJSON {
	return showJSON{
		CatalogID:    record.CatalogID,
		Title:        record.Title,
		Folder:       record.Folder,
		Confidence:   record.Confidence,
		Seasons:      nonNil(record.Seasons),
		LocalSeasons: nonNil(record.LocalSeasons),
		Missing:      nonNil(record.Missing),
		Extra:        nonNil(record.Extra),
		Status:       record.Status,
		Provenance:   record.Provenance,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

// writeShowsJSON writes one record or a list of them as indented JSON.
func writeShowsJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}

func withStore(ctx *commandContext, fn func(*state.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := state.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newShowsListCommand(ctx *commandContext) *cobra.Command {
	var incompleteOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reconciled shows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *state.Store) error {
				records, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if incompleteOnly {
					filtered := records[:0]
					for _, record := range records {
						if !record.Complete() {
							filtered = append(filtered, record)
						}
					}
					records = filtered
				}

				if asJSON {
					payload := make([]showJSON, 0, len(records))
					for _, record := range records {
						payload = append(payload, toShowJSON(record))
					}
					return writeShowsJSON(cmd.OutOrStdout(), payload)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No shows recorded")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					missing := "-"
					if !record.Complete() {
						missing = paint(state.FormatSeasons(record.Missing), colorize, resultColor(reconcile.ResultIncomplete))
					}
					rows = append(rows, []string{
						record.CatalogID,
						record.Title,
						record.Folder,
						orDash(state.FormatSeasons(record.Seasons)),
						missing,
						orDash(record.Status),
						record.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"TVDB ID", "Title", "Folder", "Seasons", "Missing", "Status", "Updated"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&incompleteOnly, "incomplete", false, "Only list shows with missing seasons")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newShowsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <tvdb-id>",
		Short: "Show the stored record for one catalog id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withStore(ctx, func(store *state.Store) error {
				record, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("no record for TVDB ID %s", id)
				}
				if asJSON {
					return writeShowsJSON(cmd.OutOrStdout(), toShowJSON(*record))
				}
				rows := [][]string{
					{"Title", record.Title},
					{"Folder", record.Folder},
					{"Confidence", strconv.Itoa(record.Confidence)},
					{"Match", record.Provenance},
					{"Status", orDash(record.Status)},
					{"Catalog seasons", orDash(state.FormatSeasons(record.Seasons))},
					{"Local seasons", orDash(state.FormatSeasons(record.LocalSeasons))},
					{"Missing", orDash(state.FormatSeasons(record.Missing))},
					{"Extra", orDash(state.FormatSeasons(record.Extra))},
					{"Complete", yesNo(record.Complete())},
					{"Created", record.CreatedAt.Local().Format(time.RFC3339)},
					{"Updated", record.UpdatedAt.Local().Format(time.RFC3339)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"TVDB ID", record.CatalogID}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newShowsForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <tvdb-id>",
		Short: "Delete the stored record for one catalog id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withStore(ctx, func(store *state.Store) error {
				removed, err := store.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no record for TVDB ID %s", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forgot TVDB ID %s\n", id)
				return nil
			})
		},
	}
}
