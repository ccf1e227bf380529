package workspace

import (
	"sync"
	"time"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message for the user, shown once and discarded.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// notices buffers the most recent messages until the UI drains them.
type notices struct {
	mu    sync.Mutex
	items []Notice
	max   int
	now   func() time.Time
	sink  func(Notice)
}

func newNotices(max int) *notices {
	return &notices{max: max, now: time.Now}
}

func (n *notices) Success(msg string) { n.push(NoticeSuccess, msg) }
func (n *notices) Error(msg string)   { n.push(NoticeError, msg) }

func (n *notices) push(kind NoticeKind, msg string) {
	n.mu.Lock()
	note := Notice{Kind: kind, Message: msg, At: n.now()}
	n.items = append(n.items, note)
	if len(n.items) > n.max {
		n.items = n.items[len(n.items)-n.max:]
	}
	sink := n.sink
	n.mu.Unlock()

	if sink != nil {
		sink(note)
	}
}

func (n *notices) drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
