package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/engine"
	"github.com/DrSkyle/netmapper/pkg/scan"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Scan, then save the network map as PNG",
	Long: `Runs a scan and saves the rendered network map to --output as
network-map-YYYY-MM-DD-HH-mm.png.

Example:
  netmapper graph --output ./maps
  netmapper graph --output s3://netmaps/office --region eu-west-1`,
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	eng, err := newEngine(ctx, cfg, engine.NewLogger(cmd.ErrOrStderr(), logLevel()))
	if err != nil {
		return err
	}
	defer eng.Close(context.Background())

	s := eng.View.Scan(ctx)
	if s.Status != scan.Success {
		return fmt.Errorf("scan failed: %s", s.ErrorMessage)
	}

	where, err := eng.View.Download(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", eng.Graphs.LastErrorMessage(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), where)
	return nil
}
