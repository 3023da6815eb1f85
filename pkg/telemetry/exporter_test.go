// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_Validate(t *testing.T) {
	tests := []struct {
		exporter  Exporter
		wantErr   bool
		exporting bool
	}{
		{exporter: HTTP, exporting: true},
		{exporter: GRPC, exporting: true},
		{exporter: STDOUT},
		{exporter: NOOP},
		{exporter: ""},
		{exporter: "kafka", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.exporter.String(), func(t *testing.T) {
			err := tt.exporter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.exporting, tt.exporter.IsExporting())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "noop", config: Config{Exporter: NOOP}},
		{name: "http with url", config: Config{Exporter: HTTP, Url: "http://collector:4318"}},
		{name: "grpc without url", config: Config{Exporter: GRPC}, wantErr: true},
		{name: "unknown exporter", config: Config{Exporter: "zipkin"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(t.Context())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGetCommonConfig(t *testing.T) {
	headers, tlsCfg, err := getCommonConfig(&Config{Token: "secret"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer secret"}, headers)
	assert.Nil(t, tlsCfg)

	headers, tlsCfg, err = getCommonConfig(&Config{TLS: TLSConfig{Enabled: true}})
	require.NoError(t, err)
	assert.Empty(t, headers)
	require.NotNil(t, tlsCfg)
	assert.Nil(t, tlsCfg.RootCAs)
}
