package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DrSkyle/netmapper/pkg/config"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the display theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := config.ParseTheme(viper.GetString(config.KeyTheme))
		if err != nil {
			return err
		}
		prefs := config.NewPreferences(current, config.ViperPersist(viper.GetViper()))

		if len(args) == 1 {
			if args[0] == "toggle" {
				_, err = prefs.Toggle()
			} else {
				var next config.Theme
				if next, err = config.ParseTheme(args[0]); err == nil {
					err = prefs.SetTheme(next)
				}
			}
			if err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), prefs.Theme())
		return nil
	},
}
