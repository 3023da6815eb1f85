// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/tracemap/internal/canonical"
	"github.com/telekom/tracemap/internal/export"
	"github.com/telekom/tracemap/internal/probe"
	"github.com/telekom/tracemap/pkg/config"
	"github.com/telekom/tracemap/pkg/tracemap"
)

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := NewCmdRun()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--destinations", "93.184.216.34,example.org",
		"--method", "tcp",
		"--cycles", "3",
		"--interval", "2s",
		"--max-hops", "20",
		"--geo-provider", "none",
		"--format", "svg",
	}))

	cfg, err := loadConfig([]string{"1.1.1.1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"93.184.216.34", "example.org", "1.1.1.1"}, cfg.Destinations)
	assert.Equal(t, probe.MethodTCP, cfg.Probe.Method)
	assert.Equal(t, 3, cfg.Probe.Cycles)
	assert.Equal(t, 2*time.Second, cfg.Probe.Interval)
	assert.Equal(t, 20, cfg.Probe.MaxTTL)
	assert.Equal(t, "none", cfg.Geo.Provider)
	assert.Equal(t, "svg", cfg.Output.Format)
	assert.Equal(t, config.DefaultMaxConcurrent, cfg.MaxConcurrent, "unset flags keep their defaults")
	assert.Equal(t, "tracemap-out", cfg.Output.Directory)
}

func TestLoadConfig_environment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("TRACEMAP_GEO_TOKEN", "secret")
	initConfig("")

	NewCmdRun()
	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Geo.Token)
}

func TestBuildCmd(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := BuildCmd("v1.0.0")
	assert.Equal(t, "tracemap", root.Name())
	assert.Equal(t, "v1.0.0", root.Version)

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", run.Name())
	for _, name := range []string{"destinations-file", "max-concurrent", "geo-token", "metrics-file"} {
		assert.NotNil(t, run.Flags().Lookup(name), name)
	}
}

func TestPrintSummary(t *testing.T) {
	path := canonical.Path{
		Destination: "93.184.216.34",
		Hops:        []canonical.Hop{{Index: 1, Address: "80.156.86.1"}, {Index: 2, Address: "93.184.216.34"}},
		Reached:     true,
	}
	r := &tracemap.Report{
		Destinations: []tracemap.Result{
			{Destination: "93.184.216.34", Status: tracemap.StatusReached, Path: &path, HighLossHops: []int{1}},
			{Destination: "8.8.8.8", Status: tracemap.StatusFailed, Error: "destination unreachable"},
		},
		Artifacts: export.Artifacts{DOT: "out/tracemap.dot", Image: "out/tracemap.png"},
	}

	var buf bytes.Buffer
	printSummary(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "DESTINATION")
	assert.Contains(t, out, "loss above threshold at hops [1]")
	assert.Contains(t, out, "destination unreachable")
	assert.Contains(t, out, "wrote out/tracemap.dot")
	assert.Contains(t, out, "wrote out/tracemap.png")
	assert.NotContains(t, out, "wrote \n")
}
