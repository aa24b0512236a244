package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind identifies a command variant. Commands are a closed enumeration
// dispatched through a single handler in the daemon; there is no
// string-keyed dynamic dispatch.
type Kind int

const (
	KindNone Kind = iota
	KindSetInterval
	KindSetIconSize
	KindSetMutedKeyword
	KindSetUnmutedKeyword
	KindSavePosition
	KindQuit
)

// Command is one user action sent from the UI to the daemon. Only the
// fields relevant to the Kind are populated.
type Command struct {
	Kind       Kind
	IntervalMS int     // KindSetInterval
	Size       int     // KindSetIconSize
	Keyword    string  // KindSetMutedKeyword, KindSetUnmutedKeyword
	X, Y       float64 // KindSavePosition
}

// Verbs used in the command file. One command per write; the file is
// cleared after a successful read.
const (
	verbInterval       = "interval"
	verbIconSize       = "iconsize"
	verbMutedKeyword   = "muted-keyword"
	verbUnmutedKeyword = "unmuted-keyword"
	verbPosition       = "position"
	verbQuit           = "quit"
)

// CommandPath returns the command file location.
func CommandPath() string {
	return filepath.Join(CacheDir(), "cmd.txt")
}

// Encode renders the command in its file form.
func (c Command) Encode() (string, error) {
	switch c.Kind {
	case KindSetInterval:
		return fmt.Sprintf("%s %d", verbInterval, c.IntervalMS), nil
	case KindSetIconSize:
		return fmt.Sprintf("%s %d", verbIconSize, c.Size), nil
	case KindSetMutedKeyword:
		return fmt.Sprintf("%s %s", verbMutedKeyword, c.Keyword), nil
	case KindSetUnmutedKeyword:
		return fmt.Sprintf("%s %s", verbUnmutedKeyword, c.Keyword), nil
	case KindSavePosition:
		return fmt.Sprintf("%s %g %g", verbPosition, c.X, c.Y), nil
	case KindQuit:
		return verbQuit, nil
	default:
		return "", fmt.Errorf("cannot encode command kind %d", c.Kind)
	}
}

// ParseCommand parses one command line. Unknown verbs and malformed
// arguments yield an error; callers treat that as "ignore".
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}

	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case verbInterval:
		ms, err := strconv.Atoi(rest)
		if err != nil || ms <= 0 {
			return Command{}, fmt.Errorf("invalid interval %q", rest)
		}
		return Command{Kind: KindSetInterval, IntervalMS: ms}, nil

	case verbIconSize:
		size, err := strconv.Atoi(rest)
		if err != nil || size <= 0 {
			return Command{}, fmt.Errorf("invalid icon size %q", rest)
		}
		return Command{Kind: KindSetIconSize, Size: size}, nil

	case verbMutedKeyword:
		if rest == "" {
			return Command{}, fmt.Errorf("empty muted keyword")
		}
		return Command{Kind: KindSetMutedKeyword, Keyword: rest}, nil

	case verbUnmutedKeyword:
		if rest == "" {
			return Command{}, fmt.Errorf("empty unmuted keyword")
		}
		return Command{Kind: KindSetUnmutedKeyword, Keyword: rest}, nil

	case verbPosition:
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("invalid position %q", rest)
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			return Command{}, fmt.Errorf("invalid position %q", rest)
		}
		return Command{Kind: KindSavePosition, X: x, Y: y}, nil

	case verbQuit:
		return Command{Kind: KindQuit}, nil

	default:
		return Command{}, fmt.Errorf("unknown command %q", verb)
	}
}

// WriteCommand writes a command to the command file for the daemon to
// pick up.
func WriteCommand(c Command) error {
	line, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(CacheDir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(CommandPath(), []byte(line), 0644)
}

// ReadCommand reads and clears the command file. Returns a KindNone
// command when the file is absent, empty, or holds something invalid —
// a garbled command is ignored, never fatal.
func ReadCommand() (Command, error) {
	data, err := os.ReadFile(CommandPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Command{}, nil
		}
		return Command{}, err
	}

	// Clear the file immediately to prevent re-execution.
	if err := os.WriteFile(CommandPath(), []byte(""), 0644); err != nil {
		return Command{}, err
	}

	cmd, err := ParseCommand(string(data))
	if err != nil {
		return Command{}, nil
	}
	return cmd, nil
}
