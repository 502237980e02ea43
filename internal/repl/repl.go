// Package repl is El's interactive shell. Input spanning multiple lines is
// collected until its brackets balance, then lexed, parsed, and run against
// a single long-lived interpreter, so definitions persist between entries.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/samber/lo"

	"el/internal/errors"
	"el/internal/interp"
	"el/internal/lexer"
	"el/internal/parser"
)

const (
	promptMain = "el> "
	promptCont = "... "
	historyFile = ".el_history"
)

var keywords = []string{
	"program", "var", "const", "function", "return", "if", "else", "while",
	"do", "for", "in", "break", "switch", "case", "default", "show",
	"and", "or", "not", "true", "false", "realistic",
	"theorem", "proof", "QED", "hypothesis", "test", "axiom",
	"integer", "real", "string", "boolean", "object", "array",
}

// REPL reads, evaluates, and prints until EOF or an exit command.
type REPL struct {
	interp  *interp.Interpreter
	out     io.Writer
	history string
}

func New(i *interp.Interpreter, out io.Writer) *REPL {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, historyFile)
	}
	return &REPL{interp: i, out: out, history: history}
}

// Run drives the prompt loop. It returns nil on a clean exit (EOF, Ctrl-C,
// or the exit command).
func (r *REPL) Run(version string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	if r.history != "" {
		if f, err := os.Open(r.history); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer r.saveHistory(line)

	fmt.Fprintf(r.out, "El %s (type 'exit' to leave)\n", version)

	for {
		input, ok := r.readEntry(line)
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			return nil
		}
		line.AppendHistory(trimmed)
		r.evalEntry(input)
	}
}

// readEntry collects one logical entry, prompting for continuation lines
// while brackets or a string remain open. The second result is false on EOF
// or interrupt.
func (r *REPL) readEntry(line *liner.State) (string, bool) {
	var sb strings.Builder
	prompt := promptMain
	for {
		text, err := line.Prompt(prompt)
		if err != nil {
			return "", false
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)

		input := sb.String()
		if complete, _ := entryComplete(input); complete {
			return input, true
		}
		prompt = promptCont
	}
}

// entryComplete reports whether input forms a lexically closed entry. An
// unterminated string or comment, or open brackets, mean more lines are
// coming.
func entryComplete(input string) (bool, error) {
	tokens, err := lexer.NewScanner(input).ScanTokens()
	if err != nil {
		if e, ok := err.(*errors.ElError); ok && strings.HasPrefix(e.Message, "unterminated") {
			return false, nil
		}
		// other lex errors surface when the entry is evaluated
		return true, err
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case lexer.TokenLParen, lexer.TokenLBrace, lexer.TokenLBracket:
			depth++
		case lexer.TokenRParen, lexer.TokenRBrace, lexer.TokenRBracket:
			depth--
		}
	}
	return depth <= 0, nil
}

// evalEntry runs one entry. Errors print and abort only this entry; the
// interpreter's state survives.
func (r *REPL) evalEntry(input string) {
	tokens, err := lexer.NewScannerWithFile(input, "repl").ScanTokens()
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	prog, err := parser.NewParserWithSource(tokens, input, "repl").Parse()
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	if err := r.interp.Run(prog); err != nil {
		fmt.Fprintln(r.out, err)
	}
}

// complete offers keyword and global-name completions for the word under
// the cursor.
func (r *REPL) complete(line string) []string {
	start := strings.LastIndexAny(line, " \t({[,;:") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	candidates := append(lo.Uniq(r.interp.Globals().Names()), keywords...)
	matches := lo.Filter(candidates, func(name string, _ int) bool {
		return strings.HasPrefix(name, prefix)
	})
	return lo.Map(matches, func(name string, _ int) string {
		return line[:start] + name
	})
}

func (r *REPL) saveHistory(line *liner.State) {
	if r.history == "" {
		return
	}
	f, err := os.Create(r.history)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
