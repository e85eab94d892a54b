package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/leapstack-labs/dlist/pkg/linkedlist"
)

// Result records the outcome of one step.
type Result struct {
	Step  int    `json:"step"`
	Op    Op     `json:"op"`
	OK    bool   `json:"ok"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report is the outcome of a scenario run.
type Report struct {
	Name      string   `json:"name"`
	Policy    string   `json:"policy"`
	Created   bool     `json:"created"`
	CreateErr string   `json:"create_error,omitempty"`
	Results   []Result `json:"results"`
	Payloads  []string `json:"payloads"`
	Length    int      `json:"length"`
	Valid     bool     `json:"valid"`
	Destroyed bool     `json:"destroyed"`
}

// Runner executes scenarios under a fixed failure policy.
type Runner struct {
	Policy linkedlist.Policy
	Logger *slog.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(policy linkedlist.Policy, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{Policy: policy, Logger: logger}
}

// Build allocates the scenario's payloads, applies corruptions and creates
// the list. Under PolicyAbort a creation failure is recovered and returned
// as an error rather than crashing the caller.
func (r *Runner) Build(s *Scenario) (l *linkedlist.List[string], labels map[string]linkedlist.Handle, err error) {
	nodes := linkedlist.NewArena[string]()
	head, _ := linkedlist.Chain(nodes, s.Payloads...)

	labels = make(map[string]linkedlist.Handle, len(s.Payloads))
	handles := make([]linkedlist.Handle, 0, len(s.Payloads))
	for h := head; !h.IsZero(); h = nodes.Next(h) {
		p, _ := nodes.Payload(h)
		labels[p] = h
		handles = append(handles, h)
	}

	for _, c := range s.Corrupt {
		if c.BreakPrev != nil {
			nodes.SetPrev(handles[*c.BreakPrev], linkedlist.Handle{})
		}
		if c.BreakNext != nil {
			nodes.SetNext(handles[*c.BreakNext], linkedlist.Handle{})
		}
	}

	err = r.guard(func() error {
		var cerr error
		l, cerr = linkedlist.New(nodes, s.DeclaredLength(), head,
			linkedlist.WithPolicy(r.Policy), linkedlist.WithLogger(r.Logger))
		return cerr
	})
	return l, labels, err
}

// Run builds the list and executes every step.
//
// Reportable failures are recorded in the step results. Under PolicyAbort a
// fatal violation stops the run and is returned as an error.
func (r *Runner) Run(s *Scenario) (*Report, error) {
	_, report, err := r.Execute(s)
	return report, err
}

// Execute is Run that also returns the resulting list. The list is nil when
// creation failed.
func (r *Runner) Execute(s *Scenario) (*linkedlist.List[string], *Report, error) {
	report := &Report{Name: s.Name, Policy: r.Policy.String(), Results: []Result{}}
	logger := r.Logger.With("scenario", s.Name)

	l, labels, err := r.Build(s)
	if err != nil {
		if r.Policy == linkedlist.PolicyAbort {
			return nil, report, fmt.Errorf("create: %w", err)
		}
		report.CreateErr = err.Error()
		logger.Warn("list creation failed", "error", err)
		return nil, report, nil
	}
	report.Created = true
	sess := NewSession(l, labels)

	for i, st := range s.Steps {
		res := Result{Step: i, Op: st.Op}
		var value string
		serr := r.guard(func() error {
			var e error
			value, e = sess.Apply(st)
			return e
		})
		res.Value = value
		if serr != nil {
			var le *linkedlist.Error
			if r.Policy == linkedlist.PolicyAbort && errors.As(serr, &le) && le.Kind.Fatal() {
				report.Results = append(report.Results, Result{Step: i, Op: st.Op, Error: serr.Error()})
				summarize(report, l)
				return l, report, fmt.Errorf("step %d (%s): %w", i, st.Op, serr)
			}
			res.Error = serr.Error()
		} else {
			res.OK = true
		}
		logger.Debug("step", "index", i, "op", st.Op, "ok", res.OK, "value", res.Value)
		report.Results = append(report.Results, res)

		if st.Op == OpDestroy && res.OK {
			report.Destroyed = true
		}
	}

	summarize(report, l)
	return l, report, nil
}

func summarize(report *Report, l *linkedlist.List[string]) {
	report.Payloads = l.Payloads()
	report.Length = l.Len()
	report.Valid = l.Verify()
}

// Session applies steps to one list, remembering which node each inserted
// payload was given. A payload names at most one node of the list at a time.
type Session struct {
	list   *linkedlist.List[string]
	labels map[string]linkedlist.Handle
}

// NewSession wraps l. labels maps payloads to the nodes already in l and may
// be nil.
func NewSession(l *linkedlist.List[string], labels map[string]linkedlist.Handle) *Session {
	if labels == nil {
		labels = make(map[string]linkedlist.Handle)
		for _, h := range l.All() {
			p, _ := l.Arena().Payload(h)
			labels[p] = h
		}
	}
	return &Session{list: l, labels: labels}
}

// List returns the session's list.
func (s *Session) List() *linkedlist.List[string] {
	return s.list
}

// Apply performs st and returns its printable result.
func (s *Session) Apply(st Step) (string, error) {
	l := s.list
	switch st.Op {
	case OpInsert, OpAppend:
		if h, ok := s.labels[st.Payload]; ok {
			if _, in := l.Position(h); in {
				return "", fmt.Errorf("%w: %q is already in the list", ErrDuplicatePayload, st.Payload)
			}
		}
		node := l.Arena().Alloc(st.Payload, linkedlist.Handle{}, linkedlist.Handle{})
		var err error
		if st.Op == OpAppend {
			err = l.Append(node)
		} else {
			err = l.Insert(node, st.Position)
		}
		if err != nil {
			// the node never joined the list, give its slot back
			_ = l.Arena().Release(node, true)
			return "", err
		}
		s.labels[st.Payload] = node
		pos, _ := l.Position(node)
		return strconv.Itoa(pos), nil

	case OpPosition:
		h, ok := s.labels[st.Payload]
		if !ok {
			return "not found", nil
		}
		pos, found := l.Position(h)
		if !found {
			return "not found", nil
		}
		return strconv.Itoa(pos), nil

	case OpNode:
		h, err := l.NodeAt(st.Position)
		if err != nil {
			return "", err
		}
		p, _ := l.Arena().Payload(h)
		return p, nil

	case OpVerify:
		return strconv.FormatBool(l.Verify()), nil

	case OpDestroy:
		return "", l.Destroy()
	}
	return "", fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, st.Op)
}

// guard converts a policy panic into an error.
func (r *Runner) guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			le, ok := rec.(*linkedlist.Error)
			if !ok {
				panic(rec)
			}
			err = le
		}
	}()
	return fn()
}
