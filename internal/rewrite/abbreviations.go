package rewrite

import (
	"regexp"
	"strings"
)

// legalAbbreviations maps common Zimbabwean legal shorthand to its expanded
// form, so a query like "what does the SI say about masks" retrieves
// against the corpus's full-text vocabulary rather than the bare acronym.
var legalAbbreviations = map[string]string{
	"si":   "Statutory Instrument",
	"cpa":  "Criminal Procedure and Evidence Act",
	"lra":  "Labour Relations Act",
	"icc":  "Insolvency and Companies Act",
	"scz":  "Supreme Court of Zimbabwe",
	"cczw": "Constitutional Court of Zimbabwe",
	"ipc":  "Indigenisation and Economic Empowerment Act",
	"dr":   "Deeds Registries Act",
	"pvo":  "Private Voluntary Organisations Act",
	"zec":  "Zimbabwe Electoral Commission",
}

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

// expandAbbreviations replaces whole-word matches of known legal
// abbreviations with their expansion, case-insensitively, leaving the rest
// of the query untouched.
func expandAbbreviations(query string) string {
	return wordPattern.ReplaceAllStringFunc(query, func(word string) string {
		if expansion, ok := legalAbbreviations[strings.ToLower(word)]; ok {
			return expansion
		}
		return word
	})
}
