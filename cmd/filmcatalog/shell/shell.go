// Package shell is the interactive front end of filmcatalog: a line based
// command loop that edits filters, navigates pages and renders results.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/client"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/output"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/session"
	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

var errQuit = errors.New("quit")

var aliases = map[string]string{
	"?":    "help",
	"q":    "quit",
	"exit": "quit",
	"n":    "next",
	"p":    "prev",
}

// Prompter reads one line of user input. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type script struct {
	lines []string
}

// Script returns a Prompter that answers with lines, then io.EOF
func Script(lines []string) Prompter {
	return &script{lines: lines}
}

func (s *script) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *script) AppendHistory(string) {}

// Service is the part of the catalog client used outside of paging
type Service interface {
	Film(ctx context.Context, id string) (catalog.Film, error)
	Recommendations(ctx context.Context, q compiler.Query) ([]catalog.Recommendation, error)
	Superlatives(ctx context.Context) ([]catalog.SuperlativeCategory, error)
}

// Exporter persists data under a name prefix and returns where it went
type Exporter interface {
	WriteJSON(data interface{}, prefix string) (string, error)
}

type Options struct {
	Session  *session.Session
	Service  Service
	Exporter Exporter
	Out      io.Writer
	// Usernames and Genres populate completion and the fields listing
	Usernames []string
	Genres    []string
}

type Shell struct {
	session  *session.Session
	service  Service
	exporter Exporter
	out      io.Writer
	vocab    map[field.Vocabulary][]string
	expanded output.Expanded
	commands []*command

	superlatives []catalog.SuperlativeCategory
	folded       output.Expanded
	log      zerolog.Logger
}

type command struct {
	usage string
	short string
	run   func(ctx context.Context, args []string) error
}

func (c *command) name() string {
	name, _, _ := strings.Cut(c.usage, " ")
	return name
}

func New(opts Options, log zerolog.Logger) *Shell {
	sh := &Shell{
		session:  opts.Session,
		service:  opts.Service,
		exporter: opts.Exporter,
		out:      opts.Out,
		vocab: map[field.Vocabulary][]string{
			field.Usernames: opts.Usernames,
			field.Genres:    opts.Genres,
		},
		log: log.With().Str("component", "shell").Logger(),
	}
	sh.commands = sh.newCommands()
	return sh
}

func (sh *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *Shell) println(args ...interface{}) {
	fmt.Fprintln(sh.out, args...)
}

// Run reads commands from p until quit, end of input, or ctx is done. The
// first page is loaded before the first prompt.
func (sh *Shell) Run(ctx context.Context, p Prompter) error {
	res := sh.session.Resource().Name
	sh.printf("filmcatalog - browsing %s. Type 'help' for available commands.\n\n", res)
	if err := sh.fetch(ctx, sh.session.Refresh(ctx)); err != nil {
		return err
	}

	for ctx.Err() == nil {
		line, err := p.Prompt(res + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				sh.println("\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.AppendHistory(line)

		err = sh.Execute(ctx, line)
		if errors.Is(err, errQuit) {
			sh.println("Bye!")
			return nil
		}
		if err != nil {
			sh.printf("error: %v\n", err)
		}
	}
	return ctx.Err()
}

// Execute runs a single command line
func (sh *Shell) Execute(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	name := strings.ToLower(args[0])
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	for _, c := range sh.commands {
		if c.name() == name {
			sh.log.Debug().Str("command", c.name()).Strs("args", args[1:]).Msg("Executing command")
			return c.run(ctx, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q (type 'help' for commands)", name)
}

// Complete offers command names, field names, sort orders and vocabulary
// words for the word being typed.
func (sh *Shell) Complete(line string) []string {
	words := strings.Fields(line)
	trailing := strings.HasSuffix(line, " ")
	if len(words) == 0 || (len(words) == 1 && !trailing) {
		var prefix string
		if len(words) == 1 {
			prefix = strings.ToLower(words[0])
		}
		var out []string
		for _, c := range sh.commands {
			if strings.HasPrefix(c.name(), prefix) {
				out = append(out, c.name())
			}
		}
		return out
	}

	current := ""
	if !trailing {
		current = words[len(words)-1]
		words = words[:len(words)-1]
	}
	head := strings.Join(words, " ") + " "

	var candidates []string
	cat := sh.session.Catalog()
	switch strings.ToLower(words[0]) {
	case "add":
		if len(words) == 1 {
			candidates = cat.Names()
		} else if d, ok := cat.Lookup(words[1]); ok {
			switch {
			case d.Kind == field.Numeric && len(words) == 2:
				candidates = []string{"gte", "lte"}
			default:
				candidates = sh.vocab[d.Vocabulary]
			}
		}
	case "sort":
		if len(words) == 1 {
			for _, f := range cat.SortFields() {
				candidates = append(candidates, f.Field)
			}
		} else {
			candidates = []string{"asc", "desc"}
		}
	case "recommend":
		candidates = sh.vocab[field.Usernames]
	}

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(current)) {
			out = append(out, head+c)
		}
	}
	sort.Strings(out)
	return out
}

// newFlags returns a fresh flag set for one invocation of a command
func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// splitArgs splits a command line on whitespace, keeping quoted sections
// together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

func (sh *Shell) isFilms() bool {
	return sh.session.Resource().Name == client.Films.Name
}
