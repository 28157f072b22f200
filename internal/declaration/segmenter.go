package declaration

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	space     = `[\s\p{Zs}]`
	roleToken = `TITULAR|C[OÔ]NJUGE|DEP\d+`
)

var (
	// headerPattern matches "<n> ROLE dd/mm/yyyy " or "<n> ROLE - " at a line start.
	headerPattern = regexp.MustCompile(
		`(?im)^(?:\d+` + space + `+)?(` + roleToken + `)` + space + `+(\d{2}/\d{2}/\d{4}|-)` + space + `+`,
	)

	// boundaryPattern marks where the next record starts; the body stops before its newline.
	boundaryPattern = regexp.MustCompile(
		`(?i)\n(?:\d+` + space + `+)?(?:` + roleToken + `)\b`,
	)
)

// Segment splits extracted document text into records, in order of
// appearance. Text without any record header yields nil.
func Segment(text string) []RawRecord {
	text = prepare(text)

	var records []RawRecord
	for pos := 0; pos < len(text); {
		loc := headerPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		bodyStart := pos + loc[1]
		if bodyStart >= len(text) {
			break
		}

		// The body holds at least one character before a boundary can close it.
		_, first := utf8.DecodeRuneInString(text[bodyStart:])
		bodyEnd := len(text)
		if next := boundaryPattern.FindStringIndex(text[bodyStart+first:]); next != nil {
			bodyEnd = bodyStart + first + next[0]
		}

		records = append(records, RawRecord{
			Role:     CanonicalRole(text[pos+loc[2] : pos+loc[3]]),
			Date:     text[pos+loc[4] : pos+loc[5]],
			FreeText: NormalizeText(text[bodyStart:bodyEnd]),
		})
		pos = bodyEnd
	}

	return records
}

// prepare folds line endings and composes accents so "Ô" matches as one rune.
func prepare(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}

// CanonicalRole upper-cases a role token and strips its accents: "Cônjuge" -> "CONJUGE".
func CanonicalRole(token string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(token))
	if err != nil {
		folded = strings.TrimSpace(token)
	}
	return strings.ToUpper(folded)
}

// NormalizeText collapses newlines and whitespace runs into single spaces and trims the result.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
