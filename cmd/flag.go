// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag binds a cli flag to a viper configuration key.
type Flag struct {
	// key is the viper key, e.g. probe.cycles
	key string
	// name is the cli flag name, e.g. cycles
	name string
}

// NewFlag returns a flag for the viper key and the cli flag name.
func NewFlag(key, name string) *Flag {
	return &Flag{key: key, name: name}
}

// String binds a string flag.
func (f *Flag) String(cmd *cobra.Command, value, usage string) {
	cmd.Flags().String(f.name, value, usage)
	f.bind(cmd)
}

// StringSlice binds a string slice flag.
func (f *Flag) StringSlice(cmd *cobra.Command, value []string, usage string) {
	cmd.Flags().StringSlice(f.name, value, usage)
	f.bind(cmd)
}

// Int binds an int flag.
func (f *Flag) Int(cmd *cobra.Command, value int, usage string) {
	cmd.Flags().Int(f.name, value, usage)
	f.bind(cmd)
}

// Float64 binds a float flag.
func (f *Flag) Float64(cmd *cobra.Command, value float64, usage string) {
	cmd.Flags().Float64(f.name, value, usage)
	f.bind(cmd)
}

// Bool binds a bool flag.
func (f *Flag) Bool(cmd *cobra.Command, value bool, usage string) {
	cmd.Flags().Bool(f.name, value, usage)
	f.bind(cmd)
}

// Duration binds a duration flag.
func (f *Flag) Duration(cmd *cobra.Command, value time.Duration, usage string) {
	cmd.Flags().Duration(f.name, value, usage)
	f.bind(cmd)
}

func (f *Flag) bind(cmd *cobra.Command) {
	cobra.CheckErr(viper.BindPFlag(f.key, cmd.Flags().Lookup(f.name)))
}
