package utils

import (
	"regexp"
	"strings"
)

// ContainsAny reports whether the lowercased text contains any of the
// keywords. Keyword checks run before any model call, so they must be
// cheap and deterministic.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// EqualsAny reports whether the trimmed lowercased text is exactly one of
// the candidates. Used for short confirmations like "yes" where a
// substring check would misfire.
func EqualsAny(text string, candidates []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.Trim(t, ".!?")
	for _, c := range candidates {
		if t == c {
			return true
		}
	}
	return false
}

// locationFiller are the words stripped from a location phrase before it is
// used as a text search term. "near tampines mrt" should search "tampines".
var locationFiller = []string{"near", "around", "at", "in", "area", "location", "mrt", "station", "the"}

// CleanLocationTerm strips filler words from a location preference and
// returns the remaining search term. Returns "" when nothing usable is
// left, which callers treat as "skip the text search stage".
func CleanLocationTerm(location string) string {
	words := strings.Fields(strings.ToLower(location))
	var kept []string
	for _, w := range words {
		w = strings.Trim(w, ",.!?")
		if w == "" || isFiller(w) {
			continue
		}
		kept = append(kept, w)
	}
	cleaned := strings.Join(kept, " ")
	if len(cleaned) <= 2 {
		return ""
	}
	return cleaned
}

func isFiller(word string) bool {
	for _, f := range locationFiller {
		if word == f {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// ExtractEmail returns the first email address in the text, or "".
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// roomRefPattern matches explicit room references like "room 5" or "r12".
var roomRefPattern = regexp.MustCompile(`(?i)\b(room\s+\d+|r\d+)\b`)

// HasRoomReference reports whether the message names a specific room.
func HasRoomReference(text string) bool {
	return roomRefPattern.MatchString(text)
}

// RoomReference returns the digits of the first room reference, or "".
func RoomReference(text string) string {
	m := roomRefPattern.FindString(text)
	if m == "" {
		return ""
	}
	return strings.TrimLeft(strings.ToLower(m), "rom ")
}

// NormalizeGender maps free-form gender words onto the stored values.
func NormalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "man", "guy", "gentleman":
		return "male"
	case "female", "f", "woman", "lady", "girl":
		return "female"
	}
	return ""
}
