package project

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/prodrule/internal/ir"
)

// File formats:
//
//	<name>.esp  three lines: project name, variable file, rule file
//	<name>.var  one variable per line: Name.value1.value2
//	<name>.rul  one rule per line:     A=a&B=b-C=c&D=d
//
// An empty IF block is written as nothing before the '-'. Identifiers never
// contain '.', '&', '-' or '=', so no escaping is needed.

func writeVars(w io.Writer, vars []ir.Variable) error {
	bw := bufio.NewWriter(w)
	for _, v := range vars {
		bw.WriteString(v.Name)
		for _, val := range v.Domain {
			bw.WriteString(".")
			bw.WriteString(val)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func readVars(r io.Reader) ([]ir.Variable, error) {
	vars := []ir.Variable{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, ".")
		vars = append(vars, ir.Variable{Name: parts[0], Domain: append([]string{}, parts[1:]...)})
	}
	return vars, sc.Err()
}

func encodePairs(pairs []ir.Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Var + "=" + p.Value
	}
	return strings.Join(parts, "&")
}

func decodePairs(s string, lineNo int) ([]ir.Pair, error) {
	pairs := []ir.Pair{}
	if s == "" {
		return pairs, nil
	}
	for _, part := range strings.Split(s, "&") {
		v, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("rule line %d: malformed pair %q", lineNo, part)
		}
		pairs = append(pairs, ir.Pair{Var: v, Value: val})
	}
	return pairs, nil
}

func writeRules(w io.Writer, rules []ir.Rule) error {
	bw := bufio.NewWriter(w)
	for _, r := range rules {
		bw.WriteString(encodePairs(r.If))
		bw.WriteString("-")
		bw.WriteString(encodePairs(r.Then))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func readRules(r io.Reader) ([]ir.Rule, error) {
	rules := []ir.Rule{}
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		ifPart, thenPart, ok := strings.Cut(line, "-")
		if !ok {
			return nil, fmt.Errorf("rule line %d: missing '-' between IF and THEN blocks", lineNo)
		}
		ifs, err := decodePairs(ifPart, lineNo)
		if err != nil {
			return nil, err
		}
		thens, err := decodePairs(thenPart, lineNo)
		if err != nil {
			return nil, err
		}
		rules = append(rules, ir.Rule{If: ifs, Then: thens})
	}
	return rules, sc.Err()
}
