package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidCommand   = errors.New("invalid command")
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrQuit is returned by Dispatch for Exit and Quit. The caller ends
	// the process with status 0.
	ErrQuit = errors.New("quit requested")
)

// AmbiguousError is returned when a token is a prefix of several commands.
type AmbiguousError struct {
	Token      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous command %q matches %d commands", e.Token, len(e.Candidates))
}

// Commands is the closed set accepted by the dispatcher, in help order.
var Commands = []string{
	"CreateUserTable",
	"TruncateUserTable",
	"DropUserTable",
	"Verify",
	"AddUser",
	"DelUser",
	"Show",
	"SetQuota",
	"AddQuota",
	"ClearUsage",
	"Hash",
	"Help",
	"Exit",
	"Quit",
}

var usage = map[string]string{
	"CreateUserTable":   "CreateUserTable",
	"TruncateUserTable": "TruncateUserTable",
	"DropUserTable":     "DropUserTable",
	"Verify":            "Verify <hash>",
	"AddUser":           "AddUser <username> <password>",
	"DelUser":           "DelUser <username>",
	"Show":              "Show users|quota",
	"SetQuota":          "SetQuota <username> <quota>",
	"AddQuota":          "AddQuota <username> <quota>",
	"ClearUsage":        "ClearUsage [username]",
	"Hash":              "Hash <username> <password>",
	"Help":              "Help",
	"Exit":              "Exit / Quit",
}

// Complete returns, sorted, the commands whose lowercase form starts with
// the lowercase prefix. An empty prefix matches everything.
func Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)

	var matches []string
	for _, c := range Commands {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	return matches
}

// Resolve maps a typed token to its canonical command name. An exact
// case-insensitive match wins; otherwise the token must be a prefix of
// exactly one command.
func Resolve(token string) (string, error) {
	for _, c := range Commands {
		if strings.EqualFold(c, token) {
			return c, nil
		}
	}

	matches := Complete(token)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w %q", ErrInvalidCommand, token)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Token: token, Candidates: matches}
	}
}
