package scenario

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MarkoPoloResearchLab/dashcheck/internal/model"
)

// EditState is the state of the dashboard edit session.
type EditState int

const (
	EditStateViewing EditState = iota
	EditStateEditing
	EditStateSaving
	EditStateCancelling
)

var editStateNames = map[EditState]string{
	EditStateViewing:    "viewing",
	EditStateEditing:    "editing",
	EditStateSaving:     "saving",
	EditStateCancelling: "cancelling",
}

func (state EditState) String() string {
	name, known := editStateNames[state]
	if !known {
		return fmt.Sprintf("edit-state(%d)", int(state))
	}
	return name
}

var allowedTransitions = map[EditState][]EditState{
	EditStateViewing:    {EditStateEditing},
	EditStateEditing:    {EditStateSaving, EditStateCancelling},
	EditStateSaving:     {EditStateViewing, EditStateEditing},
	EditStateCancelling: {EditStateViewing},
}

// CanTransition reports whether the edit session may move from one state to another.
func CanTransition(from EditState, to EditState) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StagedWidget is a copied widget held by the session until it is pasted.
type StagedWidget struct {
	sequence   int
	SourceView ViewKind
	Snapshot   model.WidgetSnapshot
}

// Header returns the header the staged widget renders with.
func (staged StagedWidget) Header() string {
	return staged.Snapshot.Header
}

// PendingOperation is an edit applied in the current edit session and not yet saved.
type PendingOperation struct {
	Action model.Action
	Widget string
}

// Session is the state shared by sequential scenarios driven through one browser session.
type Session struct {
	ID                uuid.UUID
	CurrentWidgetName string

	view          View
	state         EditState
	staged        *StagedWidget
	copySequence  int
	committedHash string
	pending       []PendingOperation
}

// NewSession starts a session in the viewing state.
func NewSession() *Session {
	return &Session{ID: uuid.New(), state: EditStateViewing}
}

// State returns the current edit state.
func (session *Session) State() EditState {
	return session.state
}

// View returns the dashboard the session is on.
func (session *Session) View() View {
	return session.view
}

// Staged returns the most recently copied widget.
func (session *Session) Staged() (StagedWidget, bool) {
	if session.staged == nil {
		return StagedWidget{}, false
	}
	return *session.staged, true
}

// CommittedHash returns the configuration hash recorded when the edit session began.
func (session *Session) CommittedHash() string {
	return session.committedHash
}

// Pending returns the operations applied since the edit session began.
func (session *Session) Pending() []PendingOperation {
	return append([]PendingOperation(nil), session.pending...)
}

// ResolveTarget returns name, or the current widget name when name is blank.
func (session *Session) ResolveTarget(name string) string {
	if name == "" {
		return session.CurrentWidgetName
	}
	return name
}

func (session *Session) transition(to EditState) error {
	if !CanTransition(session.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.state, to)
	}
	session.state = to
	return nil
}

func (session *Session) stage(sourceView ViewKind, snapshot model.WidgetSnapshot) StagedWidget {
	session.copySequence++
	staged := StagedWidget{sequence: session.copySequence, SourceView: sourceView, Snapshot: snapshot}
	session.staged = &staged
	return staged
}

func (session *Session) checkStaged(staged StagedWidget) error {
	if session.staged == nil || session.staged.sequence != staged.sequence || staged.sequence == 0 {
		return ErrStaleStagedWidget
	}
	return nil
}
