package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"btreedb/internal/btree"
	"btreedb/internal/load"
	"btreedb/internal/pagefile"
	"btreedb/internal/query"
	"btreedb/internal/recordfile"
)

func newScriptCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "script <file>",
		Short: "replay a file of LOAD/SELECT lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			logger := log()
			scanner := bufio.NewScanner(f)
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				if err := runScriptLine(line, dir); err != nil {
					logger.Error().Err(err).Int("line", lineNo).Msg("script line failed")
					return errors.Wrapf(err, "line %d", lineNo)
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing <table>.tbl / <table>.idx")
	return cmd
}

// runScriptLine recognizes exactly the two keyword shapes spec.md §6 names:
//
//	LOAD table FROM file [WITH INDEX]
//	SELECT projection FROM table WHERE conj-of-predicates
//
// This is the only place in the repository that parses a textual
// statement; internal/load and internal/query only ever see already
// structured calls.
func runScriptLine(line string, dir string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToUpper(fields[0]) {
	case "LOAD":
		return runScriptLoad(fields, dir)
	case "SELECT":
		return runScriptSelect(line, fields, dir)
	default:
		return errors.Errorf("unrecognized statement %q", fields[0])
	}
}

func runScriptLoad(fields []string, dir string) error {
	if len(fields) < 4 || strings.ToUpper(fields[2]) != "FROM" {
		return errors.Errorf("expected LOAD table FROM file [WITH INDEX], got %q", strings.Join(fields, " "))
	}
	table, file := fields[1], fields[3]
	withIndex := len(fields) >= 6 && strings.ToUpper(fields[4]) == "WITH" && strings.ToUpper(fields[5]) == "INDEX"

	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	stats, err := load.Run(src, dir+"/"+table+".tbl", dir+"/"+table+".idx", withIndex)
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d records into %s\n", stats.Appended, table)
	return nil
}

func runScriptSelect(line string, fields []string, dir string) error {
	if len(fields) < 4 || strings.ToUpper(fields[2]) != "FROM" {
		return errors.Errorf("expected SELECT projection FROM table [WHERE ...], got %q", line)
	}
	projection, err := projectionFromFlag(fields[1])
	if err != nil {
		return err
	}
	table := fields[3]

	var preds []query.Predicate
	if idx := strings.Index(strings.ToUpper(line), "WHERE"); idx >= 0 {
		clause := line[idx+len("WHERE"):]
		for _, part := range splitAnd(clause) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			p, err := parseWhere(strings.Join(strings.Fields(part), ""))
			if err != nil {
				return err
			}
			preds = append(preds, p)
		}
	}

	rf, err := recordfile.Open(dir+"/"+table+".tbl", pagefile.ReadOnly)
	if err != nil {
		return err
	}
	defer rf.Close()

	var idx *btree.BTreeIndex
	if _, statErr := os.Stat(dir + "/" + table + ".idx"); statErr == nil {
		idx, err = btree.Open(dir+"/"+table+".idx", pagefile.ReadOnly)
		if err != nil {
			return err
		}
		defer idx.Close()
	}

	res, err := query.Select(rf, idx, projection, preds)
	if err != nil {
		return err
	}
	printResult(res, projection)
	return nil
}

// splitAnd splits a WHERE clause into its conjuncts on the word "AND"
// (case-insensitive); SELECT's WHERE only ever expresses a conjunction.
func splitAnd(clause string) []string {
	fields := strings.Fields(clause)
	var parts []string
	var cur []string
	for _, f := range fields {
		if strings.EqualFold(f, "AND") {
			parts = append(parts, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	parts = append(parts, strings.Join(cur, " "))
	return parts
}
