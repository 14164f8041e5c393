package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var anchorsCmd = &cobra.Command{
	Use:   "anchors",
	Short: "List the anchor points a path would label",
	Long: `Anchors prints the anchor points of a path in the order labels are
placed on them.

Example:
  specimen-labels anchors --svg-file tray-12.svg`,
	Args: cobra.NoArgs,
	RunE: runAnchors,
}

func init() {
	addPathFlags(anchorsCmd)
}

func runAnchors(cmd *cobra.Command, args []string) error {
	p, err := pathFromFlags(cmd)
	if err != nil {
		return err
	}
	if p == nil {
		return usageErrorf("one of --svg, --svg-file or --anchors is required")
	}

	anchors := p.Anchors()
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), anchors)
	}
	for i, a := range anchors {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%g,%g\n", i+1, a.X, a.Y)
	}
	return nil
}
