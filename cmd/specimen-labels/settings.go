package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/specimen-labels/internal/label"
)

// Settings shared by several commands resolve as: flag given on the
// command line, then SPECIMEN_LABELS_<KEY>, then config.yaml, then def.

func stringSetting(cmd *cobra.Command, flag, key, def string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	if cfg.IsSet(key) {
		return cfg.GetString(key)
	}
	return def
}

func intSetting(cmd *cobra.Command, flag, key string, def int) int {
	if cmd.Flags().Changed(flag) {
		n, _ := cmd.Flags().GetInt(flag)
		return n
	}
	if cfg.IsSet(key) {
		return cfg.GetInt(key)
	}
	return def
}

func boolSetting(cmd *cobra.Command, flag, key string, def bool) bool {
	if cmd.Flags().Changed(flag) {
		b, _ := cmd.Flags().GetBool(flag)
		return b
	}
	if cfg.IsSet(key) {
		return cfg.GetBool(key)
	}
	return def
}

// positionSetting resolves the custom field position.
func positionSetting(cmd *cobra.Command) (label.Position, error) {
	s := stringSetting(cmd, "position", cfgKeyPosition, "")
	if s == "" {
		return label.DefaultPosition, nil
	}
	pos, err := label.ParsePosition(s)
	if err != nil {
		return 0, usageErrorf("%v", err)
	}
	return pos, nil
}

// addFormatFlags registers the label format flags of compose and place.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().String("museum", "", "museum code (default: saved value)")
	cmd.Flags().String("collection", "", "collection code (default: saved value)")
	cmd.Flags().Int("digits", label.DefaultDigits, "zero-padded width of the number, 1-10")
	cmd.Flags().String("custom", "", "custom field inserted into the label")
	cmd.Flags().String("position", "", "custom field position: before_museum, after_museum, after_collection or end")
}
