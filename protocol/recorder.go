package protocol

import "sync"

// Recorder is an in-memory Southbound that keeps every command it is
// given. Err, when set, is returned from Send after recording.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	Err      error
}

func (r *Recorder) Send(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.Err
}

func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

func (r *Recorder) Rules() []InstallRule {
	var rules []InstallRule
	for _, c := range r.Commands() {
		if rule, ok := c.(InstallRule); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

func (r *Recorder) Forwards() []ForwardPacket {
	var fwd []ForwardPacket
	for _, c := range r.Commands() {
		if f, ok := c.(ForwardPacket); ok {
			fwd = append(fwd, f)
		}
	}
	return fwd
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
