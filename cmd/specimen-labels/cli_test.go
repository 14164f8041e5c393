package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/specimen-labels/internal/labeler"
	"github.com/ironsheep/specimen-labels/internal/ledger"
	"github.com/ironsheep/specimen-labels/internal/ocr"
	"github.com/ironsheep/specimen-labels/internal/params"
)

// resetFlags restores every flag to its default between runs; cobra
// keeps parsed values on the package-level commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args against dataDir.
func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tray.png")
	require.NoError(t, imaging.Save(imaging.New(300, 150, color.NRGBA{200, 190, 170, 255}), path))
	return path
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "specimen-labels "+Version))
}

func TestParamsSetAndShow(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "params", "set", "museum_code", "NHM")
	require.NoError(t, err)
	assert.Equal(t, "museum_code=NHM\n", out)

	_, err = runCLI(t, dir, "params", "set", "start_number", "many")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	out, err = runCLI(t, dir, "--json", "params", "show")
	require.NoError(t, err)
	var view struct {
		Parameters params.Config `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "NHM", view.Parameters.MuseumCode)
	assert.Equal(t, 1, view.Parameters.StartNumber)
}

func TestCompose(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "compose", "42")
	require.NoError(t, err)
	assert.Equal(t, "MUS-COL-00042\n", out)

	out, err = runCLI(t, dir, "compose", "42", "--digits", "3", "--custom", "ENT", "--position", "before_museum")
	require.NoError(t, err)
	assert.Equal(t, "ENT-MUS-COL-042\n", out)

	_, err = runCLI(t, dir, "compose", "forty")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCompose_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("digits: 3\n"), 0o644))

	out, err := runCLI(t, dir, "compose", "7")
	require.NoError(t, err)
	assert.Equal(t, "MUS-COL-007\n", out)

	out, err = runCLI(t, dir, "compose", "7", "--digits", "4")
	require.NoError(t, err)
	assert.Equal(t, "MUS-COL-0007\n", out, "flag wins over config file")
}

func TestAnchors(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "anchors", "--svg", "M 10 20 L 30 40")
	require.NoError(t, err)
	assert.Equal(t, "1\t10,20\n2\t30,40\n", out)

	_, err = runCLI(t, t.TempDir(), "anchors")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestPlaceAndHistory(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t)
	output := filepath.Join(t.TempDir(), "tray-out.jpg")

	out, err := runCLI(t, dir, "place", img, "--anchors", "80,50 220,100", "--start", "900", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Using user-provided start number: 900")
	assert.Contains(t, out, "MUS-COL-00900")
	assert.Contains(t, out, "MUS-COL-00901")
	_, err = os.Stat(output)
	require.NoError(t, err)

	out, err = runCLI(t, dir, "--json", "history")
	require.NoError(t, err)
	var entries []ledger.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, img, entries[0].Source)

	out, err = runCLI(t, dir, "history", "--gaps")
	require.NoError(t, err)
	assert.Equal(t, "No gaps\n", out)

	out, err = runCLI(t, dir, "--json", "params", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"start_number": 902`)
}

func TestPlace_VerifyFailureIsReported(t *testing.T) {
	orig := verifyLabels
	verifyLabels = func(ctx context.Context, req labeler.VerifyRequest) (*ocr.VerifyResult, error) {
		return nil, errors.New("tesseract not installed")
	}
	defer func() { verifyLabels = orig }()

	dir := t.TempDir()
	img := writeImage(t)

	out, err := runCLI(t, dir, "place", img, "--anchors", "80,50", "--verify", "-o", filepath.Join(t.TempDir(), "a.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: OCR check failed: tesseract not installed")

	out, err = runCLI(t, dir, "--json", "place", img, "--anchors", "80,50", "--verify", "-o", filepath.Join(t.TempDir(), "b.png"))
	require.NoError(t, err)
	var res struct {
		Placed      int    `json:"labels_placed"`
		VerifyError string `json:"verify_error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Placed)
	assert.Equal(t, "tesseract not installed", res.VerifyError)

	out, err = runCLI(t, dir, "place", img, "--anchors", "80,50", "--verify", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: OCR check failed: no labeled image was saved")
}

func TestPlace_InvalidOptions(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t)

	_, err := runCLI(t, dir, "place", img, "--anchors", "10,10", "--opacity", "150")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = runCLI(t, dir, "place", img, "--anchors", "10;x")
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = runCLI(t, dir, "place", filepath.Join(dir, "missing.png"), "--anchors", "10,10")
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestPathData(t *testing.T) {
	doc := `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg">
  <path d="M 1 2 L 3 4"/>
  <g><path id="second" d="M 5 6"/></g>
</svg>`
	assert.Equal(t, "M 1 2 L 3 4 M 5 6", pathData([]byte(doc)))
	assert.Equal(t, "M 1 2 L 3 4", pathData([]byte("  M 1 2 L 3 4\n")))
}

func TestParseAnchors(t *testing.T) {
	p, err := parseAnchors("1,2; 3.5,4")
	require.NoError(t, err)
	anchors := p.Anchors()
	require.Len(t, anchors, 2)
	assert.Equal(t, 3.5, anchors[1].X)

	_, err = parseAnchors("1 2")
	assert.Error(t, err)
}
