package sheet

import "time"

// Role says who authored a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is the part of a host message the session cares about.
type Message struct {
	Role    Role
	Content string
}

// TurnResult is what a lifecycle hook hands back to the host. Error is a pass-through slot
// that this package never fills.
type TurnResult struct {
	Directive string
	State     State
	Error     string
}

// View is the rendered sheet.
type View struct {
	Identity []Row     `json:"identity"`
	Sections []Section `json:"sections"`
}

// Session owns the character state of one chat. It is not safe for concurrent use; hosts
// call its hooks one at a time.
type Session struct {
	state State
	opts  []HydrateOption
}

// Open builds a session from persisted state and the texts active in this turn.
func Open(persisted State, src Sources, opts ...HydrateOption) *Session {
	return &Session{
		state: Hydrate(ApplySources(persisted, src), opts...),
		opts:  opts,
	}
}

// State returns a copy of the current state.
func (s *Session) State() State { return s.state.Clone() }

// BeforePrompt runs ahead of the model's reply. User messages get the directive.
func (s *Session) BeforePrompt(msg Message) TurnResult {
	res := TurnResult{State: s.State()}
	if msg.Role == RoleUser {
		res.Directive = Directive(s.state)
	}
	return res
}

// AfterPrompt runs after the model's reply. The sheet is only updated through SetState.
func (s *Session) AfterPrompt(Message) TurnResult {
	return TurnResult{State: s.State()}
}

// SetState replaces the state with an externally updated one, re-hydrating it. The
// original snapshot is kept when the incoming state carries none.
func (s *Session) SetState(persisted State) {
	next := persisted.Clone()
	if next.PreviousState == nil && s.state.PreviousState != nil {
		prev := s.state.PreviousState.Clone()
		next.PreviousState = &prev
	}
	s.state = Hydrate(next, s.opts...)
}

// Changes lists what differs between the snapshot and the current state.
func (s *Session) Changes() []Change {
	if s.state.PreviousState == nil {
		return nil
	}
	return Diff(*s.state.PreviousState, s.state)
}

// Render projects the current state. now stands in for a missing world date or time.
func (s *Session) Render(now time.Time) View {
	return View{
		Identity: ProjectIdentity(s.state, now),
		Sections: Project(s.state),
	}
}
