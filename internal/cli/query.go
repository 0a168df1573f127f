package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/neighbour"
)

// ErrLookup is returned by query after the user message was printed.
var ErrLookup = errors.New("lookup failed")

func newQueryCmd(a *app) *cobra.Command {
	var (
		k      int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query <horse name>",
		Short: "Print the closest matches of a horse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg

			eng, err := newEngine(ctx, cfg, cfg.Logger(), nil)
			if err != nil {
				return err
			}

			if k <= 0 {
				k = eng.K()
			}

			res, err := eng.SearchK(ctx, args[0], k)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), neighbour.UserMessage(err))
				return ErrLookup
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of matches (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func printResult(w io.Writer, res *neighbour.Result) {
	fmt.Fprintln(w, "Searched Horse")
	fmt.Fprintf(w, "  Name: %s\n", res.Searched.HorseName)
	if res.DuplicateCount > 1 {
		fmt.Fprintf(w, "  (%d horses share this name; showing the first one)\n", res.DuplicateCount)
	}
	for _, attr := range res.Searched.Attributes {
		fmt.Fprintf(w, "  %s: %s\n", attr.Name, attr.Value)
	}

	fmt.Fprintf(w, "\nTop %d Closest Matches\n", len(res.Matches))
	for _, m := range res.Matches {
		fmt.Fprintf(w, "%d. %s\n", m.Rank, m.Name)
		fmt.Fprintf(w, "   View Horse Profile: %s\n", m.URL)
		fmt.Fprintf(w, "   Similarity Score: %s\n", m.Score)
	}
}
