package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"btreedb/internal/load"
)

func newLoadCmd() *cobra.Command {
	var withIndex bool
	var dir string

	cmd := &cobra.Command{
		Use:   "load <table> <file>",
		Short: "load a CSV-ish file of key,value lines into a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, file := args[0], args[1]
			logger := log()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			tablePath := dir + "/" + table + ".tbl"
			indexPath := dir + "/" + table + ".idx"

			stats, err := load.Run(f, tablePath, indexPath, withIndex)
			if err != nil {
				logger.Error().Err(err).Str("table", table).Msg("load failed")
				return err
			}

			logger.Info().Int("appended", stats.Appended).Bool("indexed", stats.Indexed).Msg("load complete")
			fmt.Printf("loaded %d records into %s\n", stats.Appended, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withIndex, "index", false, "also build a B+ tree index over the key column")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing <table>.tbl / <table>.idx")
	return cmd
}
