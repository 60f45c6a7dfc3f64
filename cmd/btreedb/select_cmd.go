package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"btreedb/internal/btree"
	"btreedb/internal/pagefile"
	"btreedb/internal/query"
	"btreedb/internal/recordfile"
)

func newSelectCmd() *cobra.Command {
	var projFlag string
	var whereFlags []string
	var dir string

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "run an indexed (or full-scan) SELECT against a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			logger := log()

			projection, err := projectionFromFlag(projFlag)
			if err != nil {
				return err
			}

			preds := make([]query.Predicate, 0, len(whereFlags))
			for _, w := range whereFlags {
				p, err := parseWhere(w)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}

			tablePath := dir + "/" + table + ".tbl"
			indexPath := dir + "/" + table + ".idx"

			rf, err := recordfile.Open(tablePath, pagefile.ReadOnly)
			if err != nil {
				return err
			}
			defer rf.Close()

			var idx *btree.BTreeIndex
			if _, statErr := os.Stat(indexPath); statErr == nil {
				idx, err = btree.Open(indexPath, pagefile.ReadOnly)
				if err != nil {
					return err
				}
				defer idx.Close()
			} else {
				logger.Debug().Str("table", table).Msg("no index file, falling back to heap scan")
			}

			res, err := query.Select(rf, idx, projection, preds)
			if err != nil {
				logger.Error().Err(err).Str("table", table).Msg("select failed")
				return err
			}

			printResult(res, projection)
			return nil
		},
	}

	cmd.Flags().StringVar(&projFlag, "select", "*", "projection: key, value, *, or count")
	cmd.Flags().StringArrayVar(&whereFlags, "where", nil, "predicate, e.g. --where key>=3 --where \"value<'m'\"")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing <table>.tbl / <table>.idx")
	return cmd
}

func printResult(res *query.Result, projection query.Projection) {
	if projection == query.ProjCount {
		fmt.Println(res.Count)
		return
	}
	for _, t := range res.Tuples {
		switch projection {
		case query.ProjKey:
			fmt.Println(t.Key)
		case query.ProjValue:
			fmt.Println(t.Value)
		case query.ProjBoth:
			fmt.Printf("%d, %s\n", t.Key, t.Value)
		}
	}
}
