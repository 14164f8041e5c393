package labeler

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/specimen-labels/internal/anchor"
	"github.com/ironsheep/specimen-labels/internal/label"
	"github.com/ironsheep/specimen-labels/internal/ledger"
	"github.com/ironsheep/specimen-labels/internal/params"
	"github.com/ironsheep/specimen-labels/internal/placement"
)

func openTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(t.TempDir(), "data")
	}
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeDrawer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drawer.png")
	img := imaging.New(400, 200, color.NRGBA{90, 110, 70, 255})
	require.NoError(t, imaging.Save(img, path))
	return path
}

func twoAnchors() *anchor.Path {
	return &anchor.Path{Strokes: []anchor.Stroke{{Points: []float64{
		100, 60, 100, 60, 100, 60,
		300, 140, 300, 140, 300, 140,
	}}}}
}

func TestResolveDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/from/env")

	dir, err := ResolveDataDir("/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/explicit", dir)

	dir, err = ResolveDataDir("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", dir)

	t.Setenv(EnvDataDir, "")
	orig := userConfigDir
	userConfigDir = func() (string, error) { return "/home/curator/.config", nil }
	defer func() { userConfigDir = orig }()

	dir, err = ResolveDataDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/curator/.config", "specimen-labels"), dir)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/scans/drawer-labeled.jpg", OutputPath("/scans/drawer.jpg"))
	assert.Equal(t, "tray-labeled.png", OutputPath("tray.png"))
	assert.Equal(t, "tray-labeled.png", OutputPath("tray.tiff"))
}

func TestParamsAndSetParam(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})

	v := s.Params()
	assert.Equal(t, "created", v.Status)
	assert.Equal(t, "Use saved start number (current: 1)", v.SavedNumberPrompt)
	assert.Empty(t, v.Warning)

	v, err := s.SetParam(params.KeyMuseumCode, "NHM")
	require.NoError(t, err)
	assert.Equal(t, "NHM", v.Parameters.MuseumCode)
	assert.Equal(t, "NHM", s.Params().Parameters.MuseumCode)

	_, err = s.SetParam(params.KeyStartNumber, "twelve")
	var valErr *params.ValueError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 1, s.Params().Parameters.StartNumber)
}

func TestSetParam_WarnsWhenSavedFileUnreadable(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})

	// A line longer than the scanner buffer makes the read fail.
	long := "museum_code=" + strings.Repeat("X", 70*1024) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.DataDir(), params.FileName), []byte(long), 0o644))

	v, err := s.SetParam(params.KeyCollectionCode, "ENT")
	require.NoError(t, err)
	assert.Equal(t, "defaults", v.Status)
	assert.NotEmpty(t, v.Warning)
	assert.Equal(t, "ENT", v.Parameters.CollectionCode)
	assert.Equal(t, "MUS", v.Parameters.MuseumCode)

	// The rewritten file reads back cleanly.
	v = s.Params()
	assert.Equal(t, "loaded", v.Status)
	assert.Empty(t, v.Warning)
}

func TestCompose(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})

	res, err := s.Compose(ComposeRequest{Number: 42})
	require.NoError(t, err)
	assert.Equal(t, "MUS-COL-00042", res.Label)
	assert.Equal(t, "Label-MUS-COL-00042", res.LayerName)

	res, err = s.Compose(ComposeRequest{
		Number:              7,
		Digits:              3,
		MuseumCode:          "NHM",
		CustomField:         "ENT",
		CustomFieldPosition: label.BeforeMuseum,
	})
	require.NoError(t, err)
	assert.Equal(t, "ENT-NHM-COL-007", res.Label)

	_, err = s.Compose(ComposeRequest{Number: 1, Digits: 11})
	assert.Error(t, err)
	_, err = s.Compose(ComposeRequest{Number: -1})
	assert.Error(t, err)
}

func TestPlace_SavesImageAndHistory(t *testing.T) {
	s := openTestService(t, Config{})
	src := writeDrawer(t)
	ctx := context.Background()

	res, err := s.Place(ctx, PlaceRequest{
		Image:   src,
		Path:    twoAnchors(),
		Options: placement.DefaultOptions(),
		Preview: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Placed)
	assert.Equal(t, 3, res.NextNumber)
	assert.Equal(t, OutputPath(src), res.Output)
	assert.Len(t, res.Previews, 2)
	_, err = os.Stat(res.Output)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Params().Parameters.StartNumber)

	entries, err := s.History(ctx, ledger.Query{RunID: res.RunID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, src, entries[0].Source)
	assert.Equal(t, res.Labels[1].Rect, entries[0].Rect)

	gaps, err := s.Gaps(ctx)
	require.NoError(t, err)
	assert.Empty(t, gaps)

	labels, err := s.labelsFromHistory(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "MUS-COL-00001", labels[0].Text)
	assert.Equal(t, res.Labels, s.lookup(res.Output))
}

func TestPlace_DryRunPersistsNothing(t *testing.T) {
	s := openTestService(t, Config{})
	src := writeDrawer(t)

	opts := placement.DefaultOptions()
	opts.UseSavedNumber = false
	opts.StartNumber = "500"
	opts.MuseumCode = "NHM"

	res, err := s.Place(context.Background(), PlaceRequest{
		Image:   src,
		Path:    twoAnchors(),
		Options: opts,
		DryRun:  true,
		Preview: true,
	})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Zero(t, res.Placed)
	assert.Equal(t, 500, res.StartNumber)
	assert.Equal(t, 502, res.NextNumber)
	assert.Equal(t, "NHM-COL-00500", res.Labels[0].Text)
	assert.Len(t, res.Previews, 2)
	assert.Empty(t, res.Output)

	_, err = os.Stat(OutputPath(src))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	saved := s.Params().Parameters
	assert.Equal(t, 1, saved.StartNumber)
	assert.Equal(t, "MUS", saved.MuseumCode)

	entries, err := s.History(context.Background(), ledger.Query{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlace_NilPath(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})
	src := writeDrawer(t)

	res, err := s.Place(context.Background(), PlaceRequest{Image: src, Options: placement.DefaultOptions()})
	var valErr *placement.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, res.Messages, "Error: Input path is invalid.")
	assert.Empty(t, res.Output)
}

func TestPlace_BadColor(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})
	src := writeDrawer(t)

	req := PlaceRequest{Image: src, Path: twoAnchors(), Options: placement.DefaultOptions()}
	req.Style.Background = "chartreuse"
	_, err := s.Place(context.Background(), req)
	var valErr *placement.ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Equal(t, 1, s.Params().Parameters.StartNumber)
}

func TestPlace_UnwritableOutputChangesNothing(t *testing.T) {
	s := openTestService(t, Config{})
	src := writeDrawer(t)
	ctx := context.Background()

	opts := placement.DefaultOptions()
	opts.MuseumCode = "NHM"

	for _, output := range []string{
		filepath.Join(t.TempDir(), "drawer.tiff"),
		filepath.Join(t.TempDir(), "missing", "drawer.png"),
	} {
		res, err := s.Place(ctx, PlaceRequest{Image: src, Output: output, Path: twoAnchors(), Options: opts})
		var valErr *placement.ValidationError
		require.ErrorAs(t, err, &valErr, output)
		assert.Nil(t, res)

		_, err = os.Stat(output)
		assert.True(t, errors.Is(err, os.ErrNotExist), output)
	}

	saved := s.Params().Parameters
	assert.Equal(t, 1, saved.StartNumber)
	assert.Equal(t, "MUS", saved.MuseumCode)

	entries, err := s.History(ctx, ledger.Query{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlace_MissingImage(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})
	_, err := s.Place(context.Background(), PlaceRequest{Image: "/nonexistent.png", Path: twoAnchors()})
	assert.Error(t, err)
}

func TestVerify_NoLabels(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})
	_, err := s.Verify(context.Background(), VerifyRequest{Image: writeDrawer(t)})
	assert.Error(t, err)
}

func TestHistory_Disabled(t *testing.T) {
	s := openTestService(t, Config{NoHistory: true})

	_, err := s.History(context.Background(), ledger.Query{})
	assert.ErrorIs(t, err, ErrNoHistory)
	_, err = s.Gaps(context.Background())
	assert.ErrorIs(t, err, ErrNoHistory)

	_, err = s.Verify(context.Background(), VerifyRequest{Image: "x.png", RunID: "run"})
	assert.ErrorIs(t, err, ErrNoHistory)
}
