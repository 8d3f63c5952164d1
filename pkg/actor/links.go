package actor

import "sync"

// attachmentToken identifies a registered attachment so it can be
// removed again via Detach.
type attachmentToken uint64

// linkState holds the bidirectional link set and the one-shot exit
// callback list for a single actor. It is guarded by its own mutex,
// never the actor's broader lifecycle lock, matching the teacher's
// discipline of keeping per-actor auxiliary state narrowly locked
// (spec §4.5: the lock is never held while a callback runs).
type linkState struct {
	mu sync.Mutex

	links       map[ActorID]struct{}
	attachments map[attachmentToken]func(ExitReason)
	nextToken   attachmentToken
}

func newLinkState() *linkState {
	return &linkState{
		links:       make(map[ActorID]struct{}),
		attachments: make(map[attachmentToken]func(ExitReason)),
	}
}

func (l *linkState) addLink(id ActorID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links[id] = struct{}{}
}

func (l *linkState) removeLink(id ActorID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.links, id)
}

// snapshotLinks returns the linked peer ids at the moment of exit, used
// to fan out linked-down notifications without holding the lock during
// delivery.
func (l *linkState) snapshotLinks() []ActorID {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ActorID, 0, len(l.links))
	for id := range l.links {
		out = append(out, id)
	}
	return out
}

func (l *linkState) attach(cb func(ExitReason)) attachmentToken {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextToken++
	tok := l.nextToken
	l.attachments[tok] = cb
	return tok
}

func (l *linkState) detach(tok attachmentToken) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attachments, tok)
}

// drainAttachments removes and returns every registered callback, so the
// caller can invoke them outside the lock exactly once each (invariant
// 4: every attachment is notified exactly once).
func (l *linkState) drainAttachments() []func(ExitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]func(ExitReason), 0, len(l.attachments))
	for _, cb := range l.attachments {
		out = append(out, cb)
	}
	l.attachments = make(map[attachmentToken]func(ExitReason))
	return out
}
