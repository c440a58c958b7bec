// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package titles folds media titles into comparable keys and scores how
// close two titles are.
package titles

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var symbolReplacer = strings.NewReplacer(
	"&", " and ",
	"$", "s",
	"@", "a",
	"¢", "c",
)

var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20",
}

// foldAccents strips combining marks after canonical decomposition, so
// "Amélie" and "Amelie" fold to the same key.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// words lowercases s, folds accents and symbols, and splits it into
// alphanumeric words with number words replaced by digits.
func words(s string) []string {
	s = foldAccents(strings.ToLower(s))
	s = symbolReplacer.Replace(s)

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, "'", "")
		if f == "" {
			continue
		}
		if d, ok := numberWords[f]; ok {
			f = d
		}
		out = append(out, f)
	}
	return out
}

// Normalize folds a title into a compact matching key: lowercase, accents
// removed, "&" spelled out, number words as digits, a leading "the"
// dropped and everything that is not a letter or digit removed.
//
//	Normalize("The Fantastic Four")  // "fantastic4"
//	Normalize("Fantastic 4")         // "fantastic4"
//	Normalize("Amélie")              // "amelie"
func Normalize(title string) string {
	w := words(title)
	if len(w) > 1 && w[0] == "the" {
		w = w[1:]
	}
	return strings.Join(w, "")
}
