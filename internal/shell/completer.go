package shell

import (
	"strings"

	"trojan-manager/internal/command"
)

// completer offers case-insensitive completion of the command name. Only
// the first word of a line is completed.
type completer struct{}

func (completer) Do(line []rune, pos int) ([][]rune, int) {
	typed := strings.TrimLeft(string(line[:pos]), " ")
	if strings.ContainsRune(typed, ' ') {
		return nil, 0
	}

	var suffixes [][]rune
	for _, c := range command.Complete(typed) {
		suffixes = append(suffixes, []rune(c[len(typed):]))
	}
	return suffixes, len([]rune(typed))
}
