package tracker

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Workflow events. Each board move is expressed as one of these.
const (
	EventStart   = "start"
	EventSubmit  = "submit"
	EventApprove = "approve"
	EventStop    = "stop"
	EventReject  = "reject"
	EventReopen  = "reopen"
)

// statekit state IDs. Kept separate from the display statuses because those
// contain spaces.
const (
	stateTodo       = "todo"
	stateInProgress = "in_progress"
	stateInReview   = "in_review"
	stateDone       = "done"
)

var stateByStatus = map[IssueStatus]string{
	StatusTodo:       stateTodo,
	StatusInProgress: stateInProgress,
	StatusInReview:   stateInReview,
	StatusDone:       stateDone,
}

var statusByState = map[string]IssueStatus{
	stateTodo:       StatusTodo,
	stateInProgress: StatusInProgress,
	stateInReview:   StatusInReview,
	stateDone:       StatusDone,
}

// moves maps from -> to onto the event that performs the move.
var moves = map[IssueStatus]map[IssueStatus]string{
	StatusTodo: {
		StatusInProgress: EventStart,
	},
	StatusInProgress: {
		StatusInReview: EventSubmit,
		StatusTodo:     EventStop,
	},
	StatusInReview: {
		StatusDone:       EventApprove,
		StatusInProgress: EventReject,
	},
	StatusDone: {
		StatusTodo: EventReopen,
	},
}

// EventFor returns the workflow event that moves an issue from one status to another.
func EventFor(from, to IssueStatus) (string, bool) {
	targets, ok := moves[from]
	if !ok {
		return "", false
	}
	ev, ok := targets[to]
	return ev, ok
}

// NextStatuses returns the statuses reachable in one move, in board order.
func NextStatuses(from IssueStatus) []IssueStatus {
	var out []IssueStatus
	for _, s := range AllIssueStatuses() {
		if _, ok := EventFor(from, s); ok {
			out = append(out, s)
		}
	}
	return out
}

type workflowContext struct {
	IssueID string
	Guard   func(issueID, event string) bool
}

// StatusMachine drives a single issue through the board workflow.
type StatusMachine struct {
	issueID     string
	interpreter *statekit.Interpreter[workflowContext]
}

// NewStatusMachine builds a machine positioned at the issue's current status.
// A nil guard allows every structurally valid move.
func NewStatusMachine(issueID string, current IssueStatus, guard func(issueID, event string) bool) (*StatusMachine, error) {
	initial, ok := stateByStatus[current]
	if !ok {
		return nil, fmt.Errorf("unknown issue status %q", current)
	}
	if guard == nil {
		guard = func(string, string) bool { return true }
	}

	builder := statekit.NewMachine[workflowContext]("issue-workflow").
		WithInitial(statekit.StateID(initial)).
		WithContext(workflowContext{IssueID: issueID, Guard: guard}).
		WithGuard("allowed", func(ctx workflowContext, e statekit.Event) bool {
			return ctx.Guard(ctx.IssueID, string(e.Type))
		})

	builder.State(stateTodo).
		On(EventStart).Target(stateInProgress).Guard("allowed").
		Done()

	builder.State(stateInProgress).
		On(EventSubmit).Target(stateInReview).Guard("allowed").
		On(EventStop).Target(stateTodo).Guard("allowed").
		Done()

	builder.State(stateInReview).
		On(EventApprove).Target(stateDone).Guard("allowed").
		On(EventReject).Target(stateInProgress).Guard("allowed").
		Done()

	builder.State(stateDone).
		On(EventReopen).Target(stateTodo).Guard("allowed").
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build issue workflow: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StatusMachine{issueID: issueID, interpreter: interpreter}, nil
}

// Current returns the status the machine is in.
func (m *StatusMachine) Current() IssueStatus {
	return statusByState[string(m.interpreter.State().Value)]
}

// MoveTo performs the move to target, or returns a *TransitionError.
func (m *StatusMachine) MoveTo(target IssueStatus) error {
	before := m.Current()
	ev, ok := EventFor(before, target)
	if !ok {
		return &TransitionError{IssueID: m.issueID, From: before, To: target}
	}

	m.interpreter.Send(statekit.Event{Type: statekit.EventType(ev)})
	if m.Current() != target {
		// guard rejected the event
		return &TransitionError{IssueID: m.issueID, From: before, To: target}
	}
	return nil
}
