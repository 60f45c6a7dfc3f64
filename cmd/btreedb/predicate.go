package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"btreedb/internal/query"
)

// parseWhere parses one "--where" flag value of the form
// "<attr><comp><literal>", e.g. "key>=3" or "value<='carol'". attr is "key"
// or "value"; comp is one of =, !=, <, <=, >, >=; a value literal may
// optionally be single- or double-quoted.
func parseWhere(raw string) (query.Predicate, error) {
	attrName, rest, ok := splitAttr(raw)
	if !ok {
		return query.Predicate{}, errors.Errorf("predicate %q: must start with key or value", raw)
	}

	comp, lit, ok := splitComp(rest)
	if !ok {
		return query.Predicate{}, errors.Errorf("predicate %q: missing comparison operator", raw)
	}
	lit = unquote(strings.TrimSpace(lit))

	p := query.Predicate{Comp: comp}
	if attrName == "key" {
		p.Attr = query.AttrKey
		n, err := strconv.ParseInt(lit, 10, 32)
		if err != nil {
			return query.Predicate{}, errors.Wrapf(err, "predicate %q: key literal must be an integer", raw)
		}
		p.KeyLiteral = int32(n)
	} else {
		p.Attr = query.AttrValue
		p.ValueLiteral = lit
	}
	return p, nil
}

func splitAttr(s string) (attr, rest string, ok bool) {
	switch {
	case strings.HasPrefix(s, "key"):
		return "key", s[len("key"):], true
	case strings.HasPrefix(s, "value"):
		return "value", s[len("value"):], true
	default:
		return "", s, false
	}
}

// comps is checked longest-operator-first so ">=" isn't mistaken for ">".
var comps = []struct {
	op   string
	comp query.Comp
}{
	{"!=", query.NE},
	{">=", query.GE},
	{"<=", query.LE},
	{"=", query.EQ},
	{">", query.GT},
	{"<", query.LT},
}

func splitComp(s string) (query.Comp, string, bool) {
	for _, c := range comps {
		if strings.HasPrefix(s, c.op) {
			return c.comp, s[len(c.op):], true
		}
	}
	return 0, s, false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func projectionFromFlag(s string) (query.Projection, error) {
	switch strings.ToLower(s) {
	case "key":
		return query.ProjKey, nil
	case "value":
		return query.ProjValue, nil
	case "*", "both":
		return query.ProjBoth, nil
	case "count":
		return query.ProjCount, nil
	default:
		return 0, errors.Errorf("unknown projection %q (want key, value, *, or count)", s)
	}
}
