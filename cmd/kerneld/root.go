// Copyright 2026 The Pintos-Go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is kerneld: it boots the storage and memory subsystem
// described by the spec (buffer cache, inode layer, swap, frame table,
// supplemental page table, process records), runs a scripted workload that
// exercises them end to end, and tears them down in reverse order. It
// stands in for the scheduler/syscall-dispatch glue the spec calls external.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pintos-go/kernel/cfg"
)

var (
	cfgFile  string
	v        = viper.New()
	bindErr  error
	loadErr  error
	cfgValue cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "kerneld",
	Short: "Boot the kernel storage and memory subsystem",
	Long: `kerneld boots the buffer cache, inode layer, swap, frame table,
supplemental page table, and process record subsystems described in the
kernel storage and memory subsystem spec, over simulated block devices.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if loadErr != nil {
			return loadErr
		}
		if err := cfg.Validate(&cfgValue); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
}

// Execute runs the root command, exiting non-zero on failure the way the
// teacher's cmd.Execute does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "path to a kerneld.yaml config file")
	bindErr = cfg.BindFlags(v, rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(formatCmd)
}

func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			loadErr = fmt.Errorf("reading config file %s: %w", cfgFile, err)
			return
		}
	}
	cfgValue, loadErr = cfg.Decode(v)
}
