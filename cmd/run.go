// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/telekom/tracemap/internal/logger"
	"github.com/telekom/tracemap/pkg/config"
	"github.com/telekom/tracemap/pkg/tracemap"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [destination...]",
		Short: "Trace the destinations and render their merged topology",
		Long: "Probes every destination over several cycles, reduces the cycles to one canonical path\n" +
			"per destination, merges the paths into one geolocated topology and exports it as\n" +
			"DOT, JSON, latency matrix and image.",
		RunE: run(),
	}

	d := config.Default()
	NewFlag("destinations", "destinations").StringSlice(cmd, nil, "destinations to trace, ip addresses or dns names")
	NewFlag("loader.file.path", "destinations-file").String(cmd, "", "csv file with one destination per row in its first column")
	NewFlag("limit", "limit").Int(cmd, d.Limit, "trace only the first n destinations, 0 traces all")
	NewFlag("origin", "origin").String(cmd, d.Origin, "public ip address of this host, destinations equal to it are skipped. Detected from the interfaces if empty")
	NewFlag("maxConcurrent", "max-concurrent").Int(cmd, d.MaxConcurrent, "maximum number of destinations probed at once")
	NewFlag("lossThreshold", "loss-threshold").Float64(cmd, d.LossThreshold, "loss percentage above which a hop is reported")

	NewFlag("probe.method", "method").String(cmd, string(d.Probe.Method), "probe method, one of mtr, tcp or udp")
	NewFlag("probe.cycles", "cycles").Int(cmd, d.Probe.Cycles, "number of probe cycles per destination")
	NewFlag("probe.interval", "interval").Duration(cmd, d.Probe.Interval, "pause between two cycles, below 1s requires root")
	NewFlag("probe.maxHops", "max-hops").Int(cmd, d.Probe.MaxTTL, "maximum number of hops probed")
	NewFlag("probe.timeout", "timeout").Duration(cmd, d.Probe.Timeout, "time to wait for the answer of a single hop")
	NewFlag("probe.port", "port").Int(cmd, d.Probe.Port, "destination port of the tcp and udp methods, 0 uses the default")

	NewFlag("dns.servers", "dns-servers").StringSlice(cmd, d.DNS.Servers, "nameservers as host:port, defaults to the system resolvers")

	NewFlag("geo.provider", "geo-provider").String(cmd, d.Geo.Provider, "geolocation provider, one of ipapi, ipinfo or none")
	NewFlag("geo.token", "geo-token").String(cmd, "", "token of the geolocation provider")
	NewFlag("geo.rateLimit", "geo-rate-limit").Int(cmd, d.Geo.RateLimit, "maximum geolocation lookups per minute, 0 disables the limit")

	NewFlag("output.directory", "output-dir").String(cmd, d.Output.Directory, "directory receiving all artifacts")
	NewFlag("output.name", "output-name").String(cmd, d.Output.Name, "file name of the artifacts without extension")
	NewFlag("output.format", "format").String(cmd, d.Output.Format, "image format, one of png, svg, pdf or jpg")

	NewFlag("telemetry.enabled", "telemetry-enabled").Bool(cmd, d.Telemetry.Enabled, "enable tracing")
	NewFlag("telemetry.exporter", "telemetry-exporter").String(cmd, string(d.Telemetry.Exporter), "trace exporter, one of http, grpc, stdout or noop")
	NewFlag("telemetry.url", "telemetry-url").String(cmd, "", "url of the trace collector")
	NewFlag("telemetry.token", "telemetry-token").String(cmd, "", "bearer token of the trace collector")
	NewFlag("telemetry.metricsFile", "metrics-file").String(cmd, "", "node exporter textfile the run metrics are written to")

	return cmd
}

// run is the entry point to start a tracemap run
func run() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logger.IntoContext(ctx, logger.NewLogger())

		if err = cfg.ResolveDestinations(ctx, config.NewFileLoader(cfg)); err != nil {
			return fmt.Errorf("failed to load destinations: %w", err)
		}
		if err = cfg.Validate(ctx); err != nil {
			return fmt.Errorf("error while validating the config: %w", err)
		}

		t, err := tracemap.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up run: %w", err)
		}
		report, err := t.Run(ctx)
		if report != nil {
			printSummary(cmd.OutOrStdout(), report)
		}
		return err
	}
}

// loadConfig decodes the viper configuration over the defaults and
// appends the positional destinations.
func loadConfig(args []string) (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Destinations = append(cfg.Destinations, args...)
	return &cfg, nil
}

// printSummary writes one line per destination and the artifacts.
func printSummary(w io.Writer, r *tracemap.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DESTINATION\tSTATUS\tHOPS\tDETAIL")
	for _, d := range r.Destinations {
		hops, detail := "-", d.Error
		if d.Path != nil {
			hops = fmt.Sprint(len(d.Path.Hops))
		}
		if len(d.HighLossHops) > 0 {
			detail = fmt.Sprintf("loss above threshold at hops %v", d.HighLossHops)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Destination, d.Status, hops, detail)
	}
	_ = tw.Flush()

	for _, a := range []string{r.Artifacts.DOT, r.Artifacts.JSON, r.Artifacts.Latency, r.Artifacts.Image} {
		if a != "" {
			_, _ = fmt.Fprintln(w, "wrote", a)
		}
	}
}
