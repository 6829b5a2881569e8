package hotkey

type FakeSignal struct {
	presses chan struct{}
	closed  bool
}

func NewFake() *FakeSignal {
	return &FakeSignal{presses: make(chan struct{}, 1)}
}

func (f *FakeSignal) Presses() <-chan struct{} { return f.presses }

func (f *FakeSignal) Close() { f.closed = true }

func (f *FakeSignal) Closed() bool { return f.closed }

// SimPress emits one press, dropping it if the previous one is unread.
func (f *FakeSignal) SimPress() {
	select {
	case f.presses <- struct{}{}:
	default:
	}
}
