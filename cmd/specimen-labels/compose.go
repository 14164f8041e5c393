package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/specimen-labels/internal/label"
	"github.com/ironsheep/specimen-labels/internal/labeler"
)

var composeCmd = &cobra.Command{
	Use:   "compose NUMBER",
	Short: "Print the label text for a number",
	Long: `Compose builds the label for NUMBER without drawing anything.

Example:
  specimen-labels compose 42
  specimen-labels compose 42 --museum NHM --custom ENT --position end`,
	Args: cobra.ExactArgs(1),
	RunE: runCompose,
}

func init() {
	addFormatFlags(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return usageErrorf("invalid number %q", args[0])
	}
	pos, err := positionSetting(cmd)
	if err != nil {
		return err
	}
	museum, _ := cmd.Flags().GetString("museum")
	collection, _ := cmd.Flags().GetString("collection")
	custom, _ := cmd.Flags().GetString("custom")

	res, err := svc.Compose(labeler.ComposeRequest{
		Number:              number,
		Digits:              intSetting(cmd, "digits", cfgKeyDigits, label.DefaultDigits),
		MuseumCode:          museum,
		CollectionCode:      collection,
		CustomField:         custom,
		CustomFieldPosition: pos,
	})
	if err != nil {
		return usageErrorf("%v", err)
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Label)
	return nil
}
