// Package voice turns recognized speech into task mutations: it normalizes
// transcripts, classifies them into intents, dispatches them against the
// task store, and runs the continuous recognition session.
package voice

import (
	"regexp"
	"strings"
)

var (
	wakeWordRe    = regexp.MustCompile(`^(?:hey|ok|okay|hi|hello)[\s,.!?;:]+`)
	punctuationRe = regexp.MustCompile(`[.!?;:]`)
)

var numberWords = map[string]string{
	"zero":   "0",
	"one":    "1",
	"two":    "2",
	"three":  "3",
	"four":   "4",
	"five":   "5",
	"six":    "6",
	"seven":  "7",
	"eight":  "8",
	"nine":   "9",
	"ten":    "10",
	"first":  "1",
	"second": "2",
	"third":  "3",
}

// Normalize lowercases a transcript, drops a leading wake word, strips
// punctuation, collapses whitespace and maps small number words to digits.
//
// Commas survive as item separators written as ", " so that an add command
// can carry several tasks. Every other intent matches on the comma-free
// form returned by plain.
func Normalize(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	t = wakeWordRe.ReplaceAllString(t, "")
	t = punctuationRe.ReplaceAllString(t, " ")
	t = strings.ReplaceAll(t, ",", " , ")

	words := strings.Fields(t)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "," {
			// Drop leading and repeated separators.
			if len(out) == 0 || out[len(out)-1] == "," {
				continue
			}
			out = append(out, w)
			continue
		}
		if d, ok := numberWords[w]; ok {
			w = d
		}
		out = append(out, w)
	}
	for len(out) > 0 && out[len(out)-1] == "," {
		out = out[:len(out)-1]
	}

	return strings.ReplaceAll(strings.Join(out, " "), " ,", ",")
}

// plain removes the item separators from a normalized transcript.
func plain(norm string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(norm, ",", " ")), " ")
}
