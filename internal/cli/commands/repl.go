package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/leapstack-labs/dlist/internal/state"
	"github.com/leapstack-labs/dlist/pkg/linkedlist"
)

const replPrompt = "dlist> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Edit a list interactively",
		Long: `Start an interactive session on an empty list.

Each line is a step (insert <payload> <position>, append <payload>,
position <payload>, node <position>, verify, destroy) or a dot-command.
Violations are always reported and never end the session.

When stdin is not a terminal the lines are read from it as a script.`,
		Example: `  dlist repl
  printf 'append a\nappend b\n.show\n' | dlist repl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			r := newREPL(cmd, cmdCtx)

			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return r.interactive()
			}
			return r.script(cmd.InOrStdin())
		},
	}
}

type repl struct {
	ctx    context.Context
	cmdCtx *CommandContext
	out    io.Writer
	errOut io.Writer
	sess   *scenario.Session
}

func newREPL(cmd *cobra.Command, cmdCtx *CommandContext) *repl {
	r := &repl{
		ctx:    cmd.Context(),
		cmdCtx: cmdCtx,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	r.reset(linkedlist.Empty(linkedlist.NewArena[string](), r.listOptions()...))
	return r
}

func (r *repl) listOptions() []linkedlist.Option {
	return []linkedlist.Option{
		linkedlist.WithPolicy(linkedlist.PolicyReport),
		linkedlist.WithLogger(r.cmdCtx.Logger),
	}
}

func (r *repl) reset(l *linkedlist.List[string]) {
	r.sess = scenario.NewSession(l, nil)
}

func (r *repl) interactive() error {
	var historyFile string
	if !state.IsPostgresDSN(r.cmdCtx.Cfg.StatePath) {
		historyFile = filepath.Join(filepath.Dir(r.cmdCtx.Cfg.StatePath), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(r.out, "dlist REPL (type .help for commands, .quit to exit)")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if r.eval(line) {
			return nil
		}
	}
}

func (r *repl) script(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if r.eval(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// eval runs one line and reports whether the session should end.
func (r *repl) eval(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return r.dotCommand(line)
	}

	st, err := scenario.ParseStep(line)
	if err != nil {
		r.errorf("%v", err)
		return false
	}
	value, err := r.sess.Apply(st)
	if err != nil {
		r.errorf("%v", err)
		return false
	}
	if value == "" {
		value = "ok"
	}
	_, _ = fmt.Fprintln(r.out, value)
	return false
}

func (r *repl) dotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	renderer := r.cmdCtx.Renderer
	l := r.sess.List()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".show":
		renderer.Println(fmt.Sprintf("length %d, %s", l.Len(), renderer.Verdict(l.Verify())))
		renderer.Println(renderer.Chain(l.Payloads()))

	case ".len":
		_, _ = fmt.Fprintln(r.out, strconv.Itoa(l.Len()))

	case ".reset":
		r.reset(linkedlist.Empty(linkedlist.NewArena[string](), r.listOptions()...))
		_, _ = fmt.Fprintln(r.out, "ok")

	case ".save":
		if len(parts) < 2 {
			r.errorf("Usage: .save <name>")
			break
		}
		r.withStore(func(store state.Store) error {
			snap, err := store.SaveList(r.ctx, parts[1], l)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(r.out, "saved %s\n", snap.ID)
			return nil
		})

	case ".load":
		if len(parts) < 2 {
			r.errorf("Usage: .load <id>")
			break
		}
		r.withStore(func(store state.Store) error {
			loaded, _, err := store.LoadList(r.ctx, parts[1], r.listOptions()...)
			if err != nil {
				return err
			}
			r.reset(loaded)
			renderer.Println(renderer.Chain(loaded.Payloads()))
			return nil
		})

	default:
		r.errorf("Unknown command: %s (type .help for commands)", command)
	}
	return false
}

func (r *repl) withStore(fn func(store state.Store) error) {
	store, err := r.cmdCtx.OpenStore(r.ctx)
	if err != nil {
		r.errorf("%v", err)
		return
	}
	defer func() { _ = store.Close() }()
	if err := fn(store); err != nil {
		r.errorf("%v", err)
	}
}

func (r *repl) errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOut, "Error: "+format+"\n", args...)
}

func printREPLHelp(w io.Writer) {
	help := `
Steps:
  insert <payload> <position>  Insert after the node at position
  append <payload>             Insert after the tail
  position <payload>           Print the position of a payload's node
  node <position>              Print the payload at position
  verify                       Check the list's links
  destroy                      Release every node

Commands:
  .help           Show this help message
  .show           Print the list
  .len            Print the list length
  .reset          Start over with an empty list
  .save <name>    Save the list as a snapshot
  .load <id>      Replace the list with a saved snapshot
  .quit / .exit   Exit the REPL
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, op := range []scenario.Op{
		scenario.OpInsert, scenario.OpAppend, scenario.OpPosition,
		scenario.OpNode, scenario.OpVerify, scenario.OpDestroy,
	} {
		items = append(items, readline.PcItem(string(op)))
	}
	for _, dot := range []string{".help", ".show", ".len", ".reset", ".save", ".load", ".quit", ".exit"} {
		items = append(items, readline.PcItem(dot))
	}
	return readline.NewPrefixCompleter(items...)
}
