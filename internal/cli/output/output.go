// Package output renders CLI results as styled text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/leapstack-labs/dlist/internal/state"
)

// Mode is an output format.
type Mode string

// Output modes.
const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles holds the text-mode styles.
type Styles struct {
	Title   lipgloss.Style
	Node    lipgloss.Style
	Link    lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Title:   r.NewStyle().Bold(true),
		Node:    r.NewStyle().Foreground(lipgloss.Color("6")),
		Link:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Muted:   r.NewStyle().Faint(true),
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. noColor forces plain ASCII output.
func NewRenderer(out, errOut io.Writer, mode Mode, noColor bool) *Renderer {
	var lr *lipgloss.Renderer
	if noColor || mode != ModeText {
		lr = lipgloss.NewRenderer(out, termenv.WithProfile(termenv.Ascii))
	} else {
		lr = lipgloss.NewRenderer(out)
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: newStyles(lr)}
}

// Mode returns the output mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Styles returns the text-mode styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Println writes a line to stdout.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Warn writes a line to stderr.
func (r *Renderer) Warn(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Failure.Render("warning: ")+s)
}

// Chain formats payloads as a linked chain: [a] <-> [b] <-> [c].
func (r *Renderer) Chain(payloads []string) string {
	if len(payloads) == 0 {
		return r.styles.Muted.Render("(empty)")
	}
	parts := make([]string, len(payloads))
	for i, p := range payloads {
		parts[i] = r.styles.Node.Render("[" + p + "]")
	}
	return strings.Join(parts, r.styles.Link.Render(" <-> "))
}

// Verdict formats a boolean check result.
func (r *Renderer) Verdict(ok bool) string {
	if ok {
		return r.styles.Success.Render("valid")
	}
	return r.styles.Failure.Render("INVALID")
}

// Report renders a scenario report.
func (r *Renderer) Report(rep *scenario.Report) error {
	if r.mode == ModeJSON {
		return r.JSON(rep)
	}

	r.Println(r.styles.Title.Render(fmt.Sprintf("Scenario %s (policy %s)", rep.Name, rep.Policy)))
	if !rep.Created {
		r.Println("create: " + r.styles.Failure.Render(rep.CreateErr))
		return nil
	}

	if len(rep.Results) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Op", "Result", "Error"})
		title := cases.Title(language.English)
		for _, res := range rep.Results {
			result := res.Value
			if res.OK && result == "" {
				result = "ok"
			}
			t.AppendRow(table.Row{res.Step, title.String(string(res.Op)), result, res.Error})
		}
		t.Render()
	}

	r.Println(fmt.Sprintf("length %d, %s", rep.Length, r.Verdict(rep.Valid)))
	r.Println(r.Chain(rep.Payloads))
	return nil
}

// Snapshots renders a snapshot listing.
func (r *Renderer) Snapshots(snaps []*state.Snapshot) error {
	if r.mode == ModeJSON {
		if snaps == nil {
			snaps = []*state.Snapshot{}
		}
		return r.JSON(snaps)
	}
	if len(snaps) == 0 {
		r.Println("(no snapshots)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Length", "Created"})
	for _, s := range snaps {
		t.AppendRow(table.Row{s.ID, s.Name, s.Length, s.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
	return nil
}

// Snapshot renders a single snapshot and its payloads.
func (r *Renderer) Snapshot(snap *state.Snapshot, payloads []string, valid bool) error {
	if r.mode == ModeJSON {
		if payloads == nil {
			payloads = []string{}
		}
		return r.JSON(struct {
			*state.Snapshot
			Payloads []string `json:"payloads"`
			Valid    bool     `json:"valid"`
		}{snap, payloads, valid})
	}

	r.Println(r.styles.Title.Render(fmt.Sprintf("Snapshot %s (%s)", snap.Name, snap.ID)))
	r.Println(fmt.Sprintf("length %d, %s", snap.Length, r.Verdict(valid)))
	r.Println(r.Chain(payloads))
	return nil
}
