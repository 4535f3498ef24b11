// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"iter"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" suggestion.
const maxSuggestDistance = 3

// suggestCommand returns the subcommand name closest to unknown, or "".
func suggestCommand(unknown string, commands []*Command) string {
	names := func(yield func(string) bool) {
		for _, command := range commands {
			if !yield(command.Name) {
				return
			}
		}
	}
	return closest(unknown, names)
}

// suggestFlag returns the defined long flag closest to the first flag
// in args that flagSet rejects, as "--name", or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	name, found := unknownFlag(args, flagSet)
	if !found {
		return ""
	}
	var names []string
	flagSet.VisitAll(func(candidate *pflag.Flag) {
		names = append(names, candidate.Name)
	})
	if match := closest(name, slices.Values(names)); match != "" {
		return "--" + match
	}
	return ""
}

// unknownFlag finds the first flag in args that flagSet does not
// define. A single-dash argument is a shorthand run, so "-json" is
// unknown unless -j exists, and is matched against long names.
func unknownFlag(args []string, flagSet *pflag.FlagSet) (string, bool) {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if strings.HasPrefix(arg, "--") {
			if flagSet.Lookup(name) == nil {
				return name, true
			}
			continue
		}
		if flagSet.ShorthandLookup(name[:1]) == nil {
			return name, true
		}
	}
	return "", false
}

func closest(target string, candidates iter.Seq[string]) string {
	best, bestDistance := "", maxSuggestDistance+1
	for candidate := range candidates {
		if distance := levenshtein(target, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// levenshtein returns the rune edit distance between a and b using a
// single row.
func levenshtein(a, b string) int {
	long, short := []rune(a), []rune(b)
	if len(long) < len(short) {
		long, short = short, long
	}
	row := make([]int, len(short)+1)
	for column := range row {
		row[column] = column
	}
	for line, longRune := range long {
		diagonal := row[0]
		row[0] = line + 1
		for column, shortRune := range short {
			substitute := diagonal
			if longRune != shortRune {
				substitute++
			}
			diagonal = row[column+1]
			row[column+1] = min(row[column+1]+1, row[column]+1, substitute)
		}
	}
	return row[len(short)]
}
