package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/graphres"
	"github.com/DrSkyle/netmapper/pkg/storage"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List network maps saved to --output",
	RunE:  runMaps,
}

func runMaps(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Output, storage.Options{
		Region:   cfg.Region,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to open output %q: %w", cfg.Output, err)
	}

	keys, err := store.List(ctx, graphres.FilenamePrefix)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", store.Location(""), err)
	}

	w := cmd.OutOrStdout()
	if len(keys) == 0 {
		fmt.Fprintf(w, "No maps saved in %s\n", store.Location(""))
		return nil
	}
	for _, key := range keys {
		fmt.Fprintln(w, store.Location(key))
	}
	return nil
}
