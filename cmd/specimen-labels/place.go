package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ironsheep/specimen-labels/internal/label"
	"github.com/ironsheep/specimen-labels/internal/labeler"
	"github.com/ironsheep/specimen-labels/internal/ocr"
	"github.com/ironsheep/specimen-labels/internal/placement"
	"github.com/ironsheep/specimen-labels/internal/render"
)

var placeCmd = &cobra.Command{
	Use:   "place IMAGE",
	Short: "Draw numbered labels on every anchor of a path",
	Long: `Place draws one label centered on each anchor of the path and saves
the labeled copy of IMAGE (default: IMAGE-labeled.<ext>).

Numbering continues from the saved start number unless --start is given.
The next free number is saved when the run ends, also when it stops part
way. Museum code, collection code, font and font size given here are
saved for later runs.

Example:
  specimen-labels place drawer-12.jpg --svg-file drawer-12.svg
  specimen-labels place tray.png --anchors "120,80 340,80" --start 1200 --museum NHM`,
	Args: cobra.ExactArgs(1),
	RunE: runPlace,
}

func init() {
	addPathFlags(placeCmd)
	addFormatFlags(placeCmd)

	f := placeCmd.Flags()
	f.StringP("output", "o", "", "output image (.png, .jpg or .bmp)")
	f.String("start", "", "first number of this run (default: saved start number)")
	f.String("font", "", "font name or .ttf/.otf file (default: saved value)")
	f.Int("font-size", 0, "font size in pixels, 6-400 (default: saved value)")
	f.Bool("auto-size", true, "size the rectangle from the text")
	f.Int("box-width", 175, "rectangle width when --auto-size=false")
	f.Int("box-height", 30, "rectangle height when --auto-size=false")
	f.Int("opacity", 100, "rectangle opacity, 0-100")
	f.String("background", "", "rectangle color as hex (default: #FFFFFF)")
	f.String("foreground", "", "text color as hex or \"auto\" (default: #000000)")
	f.Bool("dry-run", false, "plan the labels without saving anything")
	f.Bool("verify", false, "read the labels back with OCR after placing them")
}

// verifyLabels runs the OCR check of --verify.
var verifyLabels = func(ctx context.Context, req labeler.VerifyRequest) (*ocr.VerifyResult, error) {
	return svc.Verify(ctx, req)
}

// placeOutput is the --json form of a place run.
type placeOutput struct {
	*labeler.PlaceResult
	Verify      *ocr.VerifyResult `json:"verify,omitempty"`
	VerifyError string            `json:"verify_error,omitempty"`
}

func placeOptions(cmd *cobra.Command, image string) (placement.Options, error) {
	opts := placement.DefaultOptions()
	opts.Source = image

	pos, err := positionSetting(cmd)
	if err != nil {
		return opts, err
	}
	opts.CustomFieldPosition = pos

	opts.MuseumCode, _ = cmd.Flags().GetString("museum")
	opts.CollectionCode, _ = cmd.Flags().GetString("collection")
	opts.CustomField, _ = cmd.Flags().GetString("custom")
	opts.Font, _ = cmd.Flags().GetString("font")
	opts.FontSize, _ = cmd.Flags().GetInt("font-size")

	if start, _ := cmd.Flags().GetString("start"); start != "" {
		opts.UseSavedNumber = false
		opts.StartNumber = start
	}

	opts.Digits = intSetting(cmd, "digits", cfgKeyDigits, label.DefaultDigits)
	opts.AutoSize = boolSetting(cmd, "auto-size", cfgKeyAutoSize, opts.AutoSize)
	opts.BoxWidth = intSetting(cmd, "box-width", cfgKeyBoxWidth, opts.BoxWidth)
	opts.BoxHeight = intSetting(cmd, "box-height", cfgKeyBoxHeight, opts.BoxHeight)
	opts.Opacity = intSetting(cmd, "opacity", cfgKeyOpacity, opts.Opacity)
	return opts, nil
}

func runPlace(cmd *cobra.Command, args []string) error {
	image := args[0]
	p, err := pathFromFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := placeOptions(cmd, image)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verify, _ := cmd.Flags().GetBool("verify")

	res, err := svc.Place(cmd.Context(), labeler.PlaceRequest{
		Image:   image,
		Output:  output,
		Path:    p,
		Options: opts,
		Style: render.Style{
			Background: stringSetting(cmd, "background", cfgKeyBackground, ""),
			Foreground: stringSetting(cmd, "foreground", cfgKeyForeground, ""),
		},
		DryRun: dryRun,
	})
	if res == nil {
		return err
	}

	var (
		check     *ocr.VerifyResult
		verifyErr error
	)
	if verify && err == nil {
		if res.Output == "" {
			verifyErr = errors.New("no labeled image was saved")
		} else {
			check, verifyErr = verifyLabels(cmd.Context(), labeler.VerifyRequest{
				Image:    res.Output,
				Language: stringSetting(cmd, "language", cfgKeyLanguage, labeler.DefaultLanguage),
			})
		}
	}

	if flagJSON {
		out := placeOutput{PlaceResult: res, Verify: check}
		if verifyErr != nil {
			out.VerifyError = verifyErr.Error()
		}
		if jerr := printJSON(cmd.OutOrStdout(), out); jerr != nil {
			return jerr
		}
	} else {
		printPlaceResult(cmd.OutOrStdout(), res, check)
		if verifyErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: OCR check failed: %v\n", verifyErr)
		}
	}

	var drawErr *placement.DrawingError
	if errors.As(err, &drawErr) {
		return fmt.Errorf("stopped after %d labels: %w", drawErr.Placed, drawErr.Err)
	}
	return err
}

func printPlaceResult(w io.Writer, res *labeler.PlaceResult, check *ocr.VerifyResult) {
	for _, m := range res.Messages {
		fmt.Fprintln(w, m)
	}
	for _, ins := range res.Labels {
		fmt.Fprintf(w, "  %s\tat %g,%g\n", ins.Text, ins.Anchor.X, ins.Anchor.Y)
	}
	if res.Output != "" {
		fmt.Fprintf(w, "Saved %s\n", res.Output)
	}
	if check != nil {
		fmt.Fprintf(w, "OCR check: %d of %d labels read back correctly\n", check.Matched, check.Checked)
	}
}
