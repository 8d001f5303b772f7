package rules

import (
	"go.uber.org/zap"
)

// Step values returned by a StepFunc. Any positive value means "resume me at
// this step"; StepDone and StepAbort are terminal.
const (
	StepAbort = 0
	StepDone  = -1
	StepStart = 1
)

// TaskID is a handle into the scheduler arena. Handles of discarded nodes are
// recycled, so a TaskID is only meaningful while its node is live.
type TaskID int

// NoTask is the parent of the root node.
const NoTask TaskID = -1

// Payload is the free-form record a task carries across its own steps.
type Payload map[string]any

// Clone returns a shallow copy of the payload. A nil payload clones to an
// empty one.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Int reads an integer field, reporting whether it was present.
func (p Payload) Int(key string) (int, bool) {
	v, ok := p[key].(int)
	return v, ok
}

// Float reads a float field, reporting whether it was present.
func (p Payload) Float(key string) (float64, bool) {
	v, ok := p[key].(float64)
	return v, ok
}

// Bool reads a boolean field. Missing fields read as false.
func (p Payload) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// StepFunc is the behaviour of a task node. It receives the engine state, the
// node's payload and the step to execute, and returns the next step.
type StepFunc[S any] func(state S, payload Payload, step int) int

type taskNode[S any] struct {
	step     int
	children []TaskID
	fn       StepFunc[S]
	parent   TaskID
	payload  Payload
	kind     string
	depth    int
}

// StepTrace describes one executed step. It is handed to the trace hook after
// the step function returns.
type StepTrace struct {
	Seq   uint64
	Task  TaskID
	Type  string
	Depth int
	Step  int
	Next  int
}

// TaskDump is the read-only, recursive view of the task tree used for
// diagnostics.
type TaskDump struct {
	Step     int        `json:"step"`
	Type     string     `json:"type"`
	Depth    int        `json:"depth"`
	Payload  Payload    `json:"payload,omitempty"`
	Current  bool       `json:"current,omitempty"`
	Children []TaskDump `json:"children"`
}

// Scheduler is a resumable depth-first walker over a tree of step tasks.
//
// Each call to Advance performs exactly one step of one task. A step function
// may enqueue children through AddChild; those children are drained, FIFO,
// before the node's own next step runs. Nodes live in an arena and refer to
// their parent by handle, children own their subtree.
//
// The scheduler is single threaded and holds no locks.
type Scheduler[S any] struct {
	state      S
	nodes      []taskNode[S]
	free       []TaskID
	root       TaskID
	current    TaskID
	terminated bool
	seq        uint64

	logger *zap.Logger
	trace  func(StepTrace)
}

// NewScheduler creates a scheduler whose root task runs fn.
func NewScheduler[S any](state S, fn StepFunc[S], kind string) *Scheduler[S] {
	s := &Scheduler[S]{
		state: state,
		nodes: make([]taskNode[S], 0, 64),
	}
	s.root = s.alloc(taskNode[S]{
		step:    StepStart,
		fn:      fn,
		parent:  NoTask,
		payload: Payload{},
		kind:    kind,
		depth:   0,
	})
	s.current = s.root
	return s
}

// SetLogger attaches a logger used for per-step debug tracing.
func (s *Scheduler[S]) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetTraceHook registers a callback invoked after every executed step.
func (s *Scheduler[S]) SetTraceHook(hook func(StepTrace)) {
	s.trace = hook
}

func (s *Scheduler[S]) alloc(node taskNode[S]) TaskID {
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		s.nodes[id] = node
		return id
	}
	s.nodes = append(s.nodes, node)
	return TaskID(len(s.nodes) - 1)
}

// release returns a node and its whole subtree to the free list.
func (s *Scheduler[S]) release(id TaskID) {
	node := &s.nodes[id]
	for _, child := range node.children {
		s.release(child)
	}
	*node = taskNode[S]{}
	s.free = append(s.free, id)
}

// AddChild enqueues a new task as the last child of the current node and
// returns its handle.
func (s *Scheduler[S]) AddChild(fn StepFunc[S], payload Payload, kind string) TaskID {
	if payload == nil {
		payload = Payload{}
	}
	parent := s.current
	id := s.alloc(taskNode[S]{
		step:    StepStart,
		fn:      fn,
		parent:  parent,
		payload: payload,
		kind:    kind,
		depth:   s.nodes[parent].depth + 1,
	})
	// alloc may have grown the arena; index again rather than hold a pointer.
	s.nodes[parent].children = append(s.nodes[parent].children, id)
	return id
}

// Advance performs one unit of work and reports whether the whole tree has
// finished. Calling it on a terminated or stalled tree is a no-op.
func (s *Scheduler[S]) Advance() bool {
	for {
		if s.terminated {
			return true
		}
		node := &s.nodes[s.current]
		if node.step == StepAbort {
			return false
		}

		if len(node.children) > 0 {
			first := node.children[0]
			if s.nodes[first].step <= StepDone {
				node.children = node.children[1:]
				s.release(first)
				continue
			}
			s.current = first
			continue
		}

		if node.step > 0 {
			s.execute(s.current)
			return false
		}

		if node.parent == NoTask {
			s.terminated = true
			return true
		}
		s.current = node.parent
	}
}

func (s *Scheduler[S]) execute(id TaskID) {
	node := s.nodes[id]
	s.seq++
	seq := s.seq

	next := node.fn(s.state, node.payload, node.step)
	if next < StepDone {
		next = StepDone
	}
	// The step function may have grown the arena through AddChild.
	s.nodes[id].step = next

	if s.logger != nil {
		s.logger.Debug("task step",
			zap.Uint64("seq", seq),
			zap.String("task", node.kind),
			zap.Int("step", node.step),
			zap.Int("next", next),
			zap.Int("depth", node.depth),
		)
	}
	if s.trace != nil {
		s.trace(StepTrace{
			Seq:   seq,
			Task:  id,
			Type:  node.kind,
			Depth: node.depth,
			Step:  node.step,
			Next:  next,
		})
	}
}

// Terminated reports whether the root task has completed.
func (s *Scheduler[S]) Terminated() bool {
	return s.terminated
}

// Stalled reports whether the cursor sits on an aborted task. A stalled tree
// never makes progress again.
func (s *Scheduler[S]) Stalled() bool {
	return !s.terminated && s.nodes[s.current].step == StepAbort
}

// Current returns the handle of the node under the cursor.
func (s *Scheduler[S]) Current() TaskID {
	return s.current
}

// CurrentType returns the type tag of the node under the cursor.
func (s *Scheduler[S]) CurrentType() string {
	return s.nodes[s.current].kind
}

// CurrentDepth returns the depth of the node under the cursor.
func (s *Scheduler[S]) CurrentDepth() int {
	return s.nodes[s.current].depth
}

// CurrentStep returns the step counter of the node under the cursor.
func (s *Scheduler[S]) CurrentStep() int {
	return s.nodes[s.current].step
}

// Executed returns the number of steps executed so far.
func (s *Scheduler[S]) Executed() uint64 {
	return s.seq
}

// Live returns the number of nodes currently held in the arena.
func (s *Scheduler[S]) Live() int {
	return len(s.nodes) - len(s.free)
}

// Dump returns the tree rooted at the root task.
func (s *Scheduler[S]) Dump() TaskDump {
	return s.dump(s.root)
}

func (s *Scheduler[S]) dump(id TaskID) TaskDump {
	node := s.nodes[id]
	d := TaskDump{
		Step:     node.step,
		Type:     node.kind,
		Depth:    node.depth,
		Payload:  node.payload,
		Current:  id == s.current,
		Children: make([]TaskDump, 0, len(node.children)),
	}
	for _, child := range node.children {
		d.Children = append(d.Children, s.dump(child))
	}
	return d
}
