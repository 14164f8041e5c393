package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/specimen-labels/internal/labeler"
)

// Config keys. Each can come from a flag, a SPECIMEN_LABELS_* environment
// variable or config.yaml in the data directory, in that order.
const (
	cfgKeyDataDir    = "data_dir"
	cfgKeyLogLevel   = "log_level"
	cfgKeyNoHistory  = "no_history"
	cfgKeyDigits     = "digits"
	cfgKeyPosition   = "custom_field_position"
	cfgKeyAutoSize   = "auto_size"
	cfgKeyBoxWidth   = "box_width"
	cfgKeyBoxHeight  = "box_height"
	cfgKeyOpacity    = "opacity"
	cfgKeyBackground = "background"
	cfgKeyForeground = "foreground"
	cfgKeyLanguage   = "language"

	envPrefix      = "SPECIMEN_LABELS"
	configFileName = "config"
	configFileType = "yaml"
)

// errUsage marks errors caused by bad command line input.
var errUsage = errors.New("usage error")

var (
	cfg      = viper.New()
	svc      *labeler.Service
	flagJSON bool
)

// newConfig binds the global flags and SPECIMEN_LABELS_* environment
// variables into a fresh viper instance.
func newConfig(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for key, name := range map[string]string{
		cfgKeyDataDir:   "data-dir",
		cfgKeyLogLevel:  "log-level",
		cfgKeyNoHistory: "no-history",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

var rootCmd = &cobra.Command{
	Use:   "specimen-labels",
	Short: "Number specimens on collection photographs",
	Long: `specimen-labels draws sequential catalog labels such as NHM-ENT-00042
centered on every anchor point of a path drawn over a photograph.

Parameters (museum code, collection code, font, font size and the next
start number) are kept in parameters.txt in the data directory and
carried from run to run.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openService,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		err := svc.Close()
		svc = nil
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", "", "data directory (default: $SPECIMEN_LABELS_DATA_DIR or <user config dir>/specimen-labels)")
	flags.String("log-level", "info", "set to debug to copy the debug log to stderr")
	flags.Bool("no-history", false, "do not open or write the label history")
	flags.BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(anchorsCmd)
	rootCmd.AddCommand(placeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
}

// openService loads config.yaml from the data directory and opens the
// labeling service. The version command needs neither.
func openService(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	v, err := newConfig(cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	cfg = v

	dataDir, err := labeler.ResolveDataDir(cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if err := loadConfigFile(dataDir); err != nil {
		return err
	}

	lc := labeler.Config{
		DataDir:   dataDir,
		NoHistory: cfg.GetBool(cfgKeyNoHistory),
	}
	if cfg.GetString(cfgKeyLogLevel) == "debug" {
		lc.Mirror = os.Stderr
	}

	svc, err = labeler.Open(lc)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	return nil
}

// loadConfigFile reads config.yaml from dir. A missing file is not an
// error.
func loadConfigFile(dir string) error {
	cfg.SetConfigName(configFileName)
	cfg.SetConfigType(configFileType)
	cfg.AddConfigPath(dir)

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
