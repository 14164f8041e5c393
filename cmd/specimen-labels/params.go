package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show or change the saved labeling parameters",
}

var paramsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved parameters",
	Args:  cobra.NoArgs,
	RunE:  runParamsShow,
}

var paramsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Save one parameter",
	Long: `Set saves one parameter to parameters.txt.

Keys: museum_code, collection_code, font, fontSize, start_number.
fontSize and start_number take whole numbers.

Example:
  specimen-labels params set museum_code NHM
  specimen-labels params set start_number 1200`,
	Args: cobra.ExactArgs(2),
	RunE: runParamsSet,
}

func init() {
	paramsCmd.AddCommand(paramsShowCmd)
	paramsCmd.AddCommand(paramsSetCmd)
}

func runParamsShow(cmd *cobra.Command, args []string) error {
	view := svc.Params()
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), view)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, key := range view.Parameters.Keys() {
		value, _ := view.Parameters.Get(key)
		fmt.Fprintf(w, "%s\t%s\n", key, value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\nfile: %s (%s)\n", view.SavedNumberPrompt, view.Path, view.Status)
	if view.Warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", view.Warning)
	}
	return nil
}

func runParamsSet(cmd *cobra.Command, args []string) error {
	view, err := svc.SetParam(args[0], args[1])
	if err != nil {
		return usageErrorf("%v", err)
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), view)
	}
	value, _ := view.Parameters.Get(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], value)
	if view.Warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", view.Warning)
	}
	return nil
}
