package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/specimen-labels/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List placed labels",
	Long: `History lists placed labels, most recent first. With --gaps it lists
sequence numbers that were never placed, for example after a labeled
image was discarded.

Example:
  specimen-labels history --limit 20
  specimen-labels history --label ENT-000
  specimen-labels history --gaps`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.String("run", "", "only labels of this run")
	f.String("source", "", "only labels placed on this image")
	f.String("label", "", "only labels containing this text")
	f.Int("limit", 100, "maximum number of entries")
	f.Bool("gaps", false, "list missing sequence numbers instead")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if gaps, _ := cmd.Flags().GetBool("gaps"); gaps {
		return runGaps(cmd)
	}

	var q ledger.Query
	q.RunID, _ = cmd.Flags().GetString("run")
	q.Source, _ = cmd.Flags().GetString("source")
	q.Label, _ = cmd.Flags().GetString("label")
	q.Limit, _ = cmd.Flags().GetInt("limit")

	entries, err := svc.History(cmd.Context(), q)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLACED\tLABEL\tSOURCE\tX\tY\tRUN")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%s\n",
			e.PlacedAt.Local().Format("2006-01-02 15:04:05"), e.Label, e.Source, e.X, e.Y, e.RunID)
	}
	return w.Flush()
}

func runGaps(cmd *cobra.Command) error {
	gaps, err := svc.Gaps(cmd.Context())
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), gaps)
	}
	if len(gaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No gaps")
		return nil
	}
	for _, g := range gaps {
		if g.From == g.To {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", g.From)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%d-%d\n", g.From, g.To)
		}
	}
	return nil
}
