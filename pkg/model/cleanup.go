package model

// CleanupStack collects the teardown commands for the service containers
// of one build.
//
// Commands are pushed as services start and must be executed in Unwind
// order, which tears the most recently started container down first.
type CleanupStack struct {
	cmds []string
}

func NewCleanupStack() *CleanupStack {
	return &CleanupStack{}
}

func (s *CleanupStack) Push(cmds ...string) {
	s.cmds = append(s.cmds, cmds...)
}

// PushAll pushes every command of other, bottom first.
func (s *CleanupStack) PushAll(other *CleanupStack) {
	if other == nil {
		return
	}
	s.Push(other.cmds...)
}

func (s *CleanupStack) Len() int {
	return len(s.cmds)
}

// Pushed returns the commands in the order they were pushed.
func (s *CleanupStack) Pushed() []string {
	return append([]string{}, s.cmds...)
}

// Unwind returns the commands top first, the order they must run in.
func (s *CleanupStack) Unwind() []string {
	res := make([]string, len(s.cmds))
	for i, cmd := range s.cmds {
		res[len(s.cmds)-1-i] = cmd
	}
	return res
}

// Drain unwinds the stack and leaves it empty.
func (s *CleanupStack) Drain() []string {
	res := s.Unwind()
	s.cmds = nil
	return res
}
