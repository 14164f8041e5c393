package params

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", FileName)
	var logBuf bytes.Buffer
	store := NewStore(path, log.New(&logBuf, "", 0))

	cfg, status, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)
	assert.Equal(t, Defaults(), cfg)
	assert.Contains(t, logBuf.String(), "Parameters file not found")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	for _, line := range []string{
		"museum_code=MUS",
		"collection_code=COL",
		"font=Arial Bold",
		"font_size=20",
		"start_number=1",
	} {
		assert.Contains(t, got, line+"\n")
	}

	// A second load reads what the first one wrote.
	again, status, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
	assert.Equal(t, cfg, again)
}

func TestLoad_ReadFailureReturnsDefaultsWithoutPersisting(t *testing.T) {
	// A directory opens fine but cannot be read as a file.
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.Mkdir(path, 0o755))
	store := NewStore(path, nil)

	cfg, status, err := store.Load()
	assert.Equal(t, StatusDefaults, status)
	assert.Equal(t, Defaults(), cfg)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir(), "load must not replace the unreadable path")
}

func TestLoad_BackfillsAndSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := strings.Join([]string{
		"museum_code = MSNG ",
		"not a pair",
		"font_size=big",
		"start_number=42",
		"notes=a=b",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, status, err := NewStore(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)

	assert.Equal(t, "MSNG", cfg.MuseumCode)
	assert.Equal(t, "COL", cfg.CollectionCode)
	assert.Equal(t, "Arial Bold", cfg.Font)
	assert.Equal(t, 20, cfg.FontSize, "non-integer font_size falls back to the default")
	assert.Equal(t, 42, cfg.StartNumber)
	assert.Equal(t, "a=b", cfg.Extra["notes"], "split happens on the first '=' only")
}

func TestSave_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewStore(filepath.Join(blocker, FileName), nil)
	err := store.Save(Defaults())

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Op)
}

func TestUpdate_PersistsWholeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store := NewStore(path, nil)

	cfg, _, err := store.Load()
	require.NoError(t, err)

	updated, err := store.Update(cfg, KeyCollectionCode, "LEP")
	require.NoError(t, err)
	assert.Equal(t, "LEP", updated.CollectionCode)
	assert.Equal(t, "COL", cfg.CollectionCode, "input config is not mutated")

	updated, err = store.UpdateInt(updated, KeyStartNumber, 120)
	require.NoError(t, err)

	reloaded, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "LEP", reloaded.CollectionCode)
	assert.Equal(t, 120, reloaded.StartNumber)
	assert.Equal(t, updated, reloaded)
}

func TestUpdate_RejectsBadInteger(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store := NewStore(path, nil)

	cfg := Defaults()
	_, err := store.Update(cfg, KeyFontSize, "huge")

	var valErr *ValueError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, KeyFontSize, valErr.Key)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written on a rejected value")
}

func TestEncode_ExtraKeysAfterKnownKeys(t *testing.T) {
	cfg := Defaults()
	cfg.Extra = map[string]string{"zeta": "1", "alpha": "2"}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "museum_code=MUS", lines[0])
	assert.Equal(t, "alpha=2", lines[5])
	assert.Equal(t, "zeta=1", lines[6])
}

func TestLoadStatus_String(t *testing.T) {
	tests := []struct {
		status LoadStatus
		want   string
	}{
		{StatusLoaded, "loaded"},
		{StatusCreated, "created"},
		{StatusDefaults, "defaults"},
		{LoadStatus(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
