package bubbletea

import (
	"strings"
	"unicode"

	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// wrapText word-wraps s to the given display width, measuring by terminal
// cell width rather than rune count so CJK product names and emoji in
// advice text wrap correctly.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}

	var out []string
	for _, para := range strings.Split(s, "\n") {
		for _, line := range wrapLine([]rune(para), width) {
			out = append(out, strings.TrimRight(string(line), " "))
		}
	}
	return out
}

func wrapLine(runes []rune, width int) [][]rune {
	var (
		lines  = [][]rune{{}}
		word   []rune
		row    int
		spaces int
	)

	for _, r := range runes {
		if unicode.IsSpace(r) {
			spaces++
		} else {
			word = append(word, r)
		}

		if spaces > 0 {
			if uniseg.StringWidth(string(lines[row]))+uniseg.StringWidth(string(word))+spaces > width {
				row++
				lines = append(lines, []rune{})
				lines[row] = append(lines[row], word...)
				lines[row] = append(lines[row], repeatSpaces(spaces)...)
			} else {
				lines[row] = append(lines[row], word...)
				lines[row] = append(lines[row], repeatSpaces(spaces)...)
			}
			spaces = 0
			word = nil
		} else if len(word) > 0 {
			// A single word wider than the line breaks unconditionally.
			lastCharLen := rw.RuneWidth(word[len(word)-1])
			if uniseg.StringWidth(string(word))+lastCharLen > width {
				if len(lines[row]) > 0 {
					row++
					lines = append(lines, []rune{})
				}
				lines[row] = append(lines[row], word...)
				word = nil
			}
		}
	}

	if uniseg.StringWidth(string(lines[row]))+uniseg.StringWidth(string(word)) > width {
		lines = append(lines, word)
	} else {
		lines[row] = append(lines[row], word...)
	}

	return lines
}

func repeatSpaces(n int) []rune {
	return []rune(strings.Repeat(" ", n))
}
