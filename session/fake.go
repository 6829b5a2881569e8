package session

import (
	"fmt"
	"sync"
)

// RecordingNotifier captures every notification for assertions in tests.
type RecordingNotifier struct {
	mu      sync.Mutex
	events  []string
	results []Result
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) add(ev string) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *RecordingNotifier) EnteredRecording(language string) {
	n.add("recording:" + language)
}

func (n *RecordingNotifier) EnteredTranscribing(language string) {
	n.add("transcribing:" + language)
}

func (n *RecordingNotifier) ReturnedIdle(reason Reason, err error) {
	n.add("idle:" + string(reason))
}

func (n *RecordingNotifier) Result(res Result) {
	n.mu.Lock()
	n.results = append(n.results, res)
	n.mu.Unlock()
	n.add(fmt.Sprintf("result:%s", res.Text))
}

func (n *RecordingNotifier) LanguageChanged(language string) {
	n.add("lang:" + language)
}

// Events returns a snapshot of everything seen so far.
func (n *RecordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	copy(out, n.events)
	return out
}

// Results returns a snapshot of delivered results.
func (n *RecordingNotifier) Results() []Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Result, len(n.results))
	copy(out, n.results)
	return out
}

// Count reports how many recorded events equal ev.
func (n *RecordingNotifier) Count(ev string) int {
	count := 0
	for _, e := range n.Events() {
		if e == ev {
			count++
		}
	}
	return count
}
