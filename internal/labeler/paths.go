package labeler

import (
	"os"
	"path/filepath"
)

// EnvDataDir overrides the default data directory.
const EnvDataDir = "SPECIMEN_LABELS_DATA_DIR"

// dirName is the data directory name under the user config directory.
const dirName = "specimen-labels"

var userConfigDir = os.UserConfigDir

// ResolveDataDir returns the directory holding the parameters file, the
// debug log and the ledger. Precedence: explicit > $SPECIMEN_LABELS_DATA_DIR
// > <user config dir>/specimen-labels.
func ResolveDataDir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return env, nil
	}
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName), nil
}

// OutputPath derives the default output file for a labeled copy of src:
// "drawer.jpg" becomes "drawer-labeled.jpg". Formats that cannot be
// written fall back to PNG.
func OutputPath(src string) string {
	ext := filepath.Ext(src)
	base := src[:len(src)-len(ext)]
	switch ext {
	case ".png", ".PNG", ".jpg", ".JPG", ".jpeg", ".JPEG", ".bmp", ".BMP":
	default:
		ext = ".png"
	}
	return base + "-labeled" + ext
}
