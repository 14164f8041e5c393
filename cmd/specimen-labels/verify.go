package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/specimen-labels/internal/labeler"
)

var verifyCmd = &cobra.Command{
	Use:   "verify IMAGE",
	Short: "Read the labels of a run back with OCR",
	Long: `Verify crops every label of a recorded run out of IMAGE, reads it with
Tesseract and compares it with the expected text. Requires the label
history.

Example:
  specimen-labels verify drawer-12-labeled.jpg --run 6f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("run", "", "run id printed by place --json or shown by history (required)")
	verifyCmd.Flags().String("language", labeler.DefaultLanguage, "Tesseract language code")
	_ = verifyCmd.MarkFlagRequired("run")
}

func runVerify(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run")
	res, err := svc.Verify(cmd.Context(), labeler.VerifyRequest{
		Image:    args[0],
		RunID:    runID,
		Language: stringSetting(cmd, "language", cfgKeyLanguage, labeler.DefaultLanguage),
	})
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXPECTED\tREAD\tMATCH\tCONFIDENCE")
	for _, c := range res.Labels {
		read := c.Recognized
		if c.Error != "" {
			read = "error: " + c.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%.0f%%\n", c.Expected, read, c.Match, c.Confidence*100)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d labels matched\n", res.Matched, res.Checked)
	return nil
}
