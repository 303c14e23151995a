package vm

import "sync"

// CallStackManager tracks the chain of live CallFrames, adapted from the
// teacher's sync.Mutex-guarded push/pop idiom (vm/call_stack.go). The
// teacher's UpdateGlobalBindings/Copy methods existed to propagate PHP
// `global $x` bindings across frames by slot; Lumen frames instead resolve
// LOAD_GLOBAL/STORE_GLOBAL directly against a frame's Module, so neither
// method has a role here.
type CallStackManager struct {
	frames []*CallFrame
	mu     sync.Mutex
}

func NewCallStackManager() *CallStackManager {
	return &CallStackManager{frames: make([]*CallFrame, 0, 8)}
}

func (cs *CallStackManager) PushFrame(frame *CallFrame) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.frames = append(cs.frames, frame)
}

// PopFrame removes and returns the current call frame, or (nil, false) when
// the stack is empty.
func (cs *CallStackManager) PopFrame() (*CallFrame, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.frames) == 0 {
		return nil, false
	}
	idx := len(cs.frames) - 1
	frame := cs.frames[idx]
	cs.frames = cs.frames[:idx]
	return frame, true
}

func (cs *CallStackManager) CurrentFrame() (*CallFrame, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.frames) == 0 {
		return nil, false
	}
	return cs.frames[len(cs.frames)-1], true
}

func (cs *CallStackManager) Depth() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.frames)
}

func (cs *CallStackManager) IsEmpty() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.frames) == 0
}

// GetFrames returns a bottom-to-top copy, used to render a traceback.
func (cs *CallStackManager) GetFrames() []*CallFrame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	frames := make([]*CallFrame, len(cs.frames))
	copy(frames, cs.frames)
	return frames
}

func (cs *CallStackManager) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.frames = cs.frames[:0]
}
