package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type wordRange struct {
	start int
	end   int
}

// findWords splits text on spaces, returning rune ranges of each word.
func findWords(text []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range text {
		if r == ' ' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(text)})
	}
	return words
}

// wrapText breaks text into lines no wider than width display cells. Words
// longer than a line are split.
func wrapText(text string, width int) []string {
	runes := []rune(text)
	words := findWords(runes)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(wordStrings(runes, words), " ")}
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, w := range words {
		word := runes[w.start:w.end]
		wordWidth := runewidth.StringWidth(string(word))
		if lineWidth > 0 && lineWidth+1+wordWidth > width {
			flush()
		}
		if lineWidth > 0 {
			line.WriteRune(' ')
			lineWidth++
		}
		for _, r := range word {
			rw := runewidth.RuneWidth(r)
			if lineWidth+rw > width && lineWidth > 0 {
				flush()
			}
			line.WriteRune(r)
			lineWidth += rw
		}
	}
	if lineWidth > 0 {
		flush()
	}
	return lines
}

func wordStrings(runes []rune, words []wordRange) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, string(runes[w.start:w.end]))
	}
	return out
}
