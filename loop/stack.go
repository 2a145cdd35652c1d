package loop

import "errors"

// ErrEmptyStack is the error popping an empty Stack.
var ErrEmptyStack = errors.New("stack: empty")

// Stack is a stack of loop Info, tracking the chain of loops enclosing
// the traversal position during nest construction.
type Stack struct {
	s []*Info
}

// NewStack returns a new empty Stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push adds an Info to the top of the stack.
func (s *Stack) Push(l *Info) {
	s.s = append(s.s, l)
}

// Pop removes and returns the Info at the top of the stack.
func (s *Stack) Pop() (*Info, error) {
	if len(s.s) == 0 {
		return nil, ErrEmptyStack
	}
	l := s.s[len(s.s)-1]
	s.s = s.s[:len(s.s)-1]
	return l, nil
}

// Top returns the Info at the top of the stack without removing it, or
// nil if the stack is empty.
func (s *Stack) Top() *Info {
	if len(s.s) == 0 {
		return nil
	}
	return s.s[len(s.s)-1]
}

// IsEmpty returns true if the stack has no Info.
func (s *Stack) IsEmpty() bool {
	return len(s.s) == 0
}

// Size returns the number of Info in the stack.
func (s *Stack) Size() int {
	return len(s.s)
}
