package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/engine"
	"github.com/DrSkyle/netmapper/pkg/filter"
	"github.com/DrSkyle/netmapper/pkg/report"
	"github.com/DrSkyle/netmapper/pkg/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the devices",
	Long: `Runs a single network scan without the TUI and prints the devices found.

Example:
  netmapper scan
  netmapper scan --format yaml --filter 'vendor != ""'
  netmapper scan --save-map --output ./maps`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("format", "table", "Output format: table, json or yaml")
	scanCmd.Flags().String("filter", "", `Device filter, e.g. 'kind == "router"'`)
	scanCmd.Flags().Bool("save-map", false, "Also save the network map to --output")
}

func runScan(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	filterFlag, _ := cmd.Flags().GetString("filter")
	saveMap, _ := cmd.Flags().GetBool("save-map")

	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	f, err := filter.Compile(filterFlag)
	if err != nil {
		return err
	}
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
	shown := s
	shown.Devices = f.Apply(s.Devices)
	if err := report.Write(cmd.OutOrStdout(), shown, format); err != nil {
		return err
	}
	if s.Status != scan.Success {
		return fmt.Errorf("scan failed: %s", s.ErrorMessage)
	}

	if saveMap {
		where, err := eng.View.Download(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved network map to %s\n", where)
	}
	return nil
}
