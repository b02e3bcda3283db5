package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the patch run cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached patch run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openCache(cfg.Cache)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		n, err := store.Clear()
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		if !quiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached run(s) from %s\n", n, store.Dir())
		}
		return nil
	},
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openCache(cfg.Cache)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheDirCmd)
}
