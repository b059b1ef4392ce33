// Package signal is the typed publish/subscribe layer a session uses to
// connect its state machines.
//
// Publication is synchronous: Publish returns only after every listener ran,
// so a listener observes a signal before anything the publisher does next.
// Topics are owned by one session and are not safe for concurrent use.
package signal

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	// Unsubscribe detaches the listener. Safe to call more than once and from
	// inside a listener.
	Unsubscribe()
}

type subscriber[T any] struct {
	fn     func(T)
	active bool
	topic  *Topic[T]
}

func (s *subscriber[T]) Unsubscribe() {
	if !s.active {
		return
	}
	s.active = false
	s.topic.remove(s)
}

// Topic fans a value of type T out to its listeners in subscription order.
// The zero value is ready to use.
type Topic[T any] struct {
	subs []*subscriber[T]
}

// Subscribe registers fn for every future Publish.
//
// Precondition: fn must not be nil.
// Postcondition: fn is called on each Publish until the returned Subscription is unsubscribed.
func (t *Topic[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		panic("signal.Topic.Subscribe: fn must not be nil")
	}
	s := &subscriber[T]{fn: fn, active: true, topic: t}
	t.subs = append(t.subs, s)
	return s
}

// Publish delivers v to every listener subscribed when Publish was called.
// Listeners removed during delivery are skipped; listeners added during
// delivery see only later publications.
func (t *Topic[T]) Publish(v T) {
	if len(t.subs) == 0 {
		return
	}
	snapshot := make([]*subscriber[T], len(t.subs))
	copy(snapshot, t.subs)
	for _, s := range snapshot {
		if s.active {
			s.fn(v)
		}
	}
}

// Len returns the number of attached listeners.
func (t *Topic[T]) Len() int {
	return len(t.subs)
}

func (t *Topic[T]) remove(target *subscriber[T]) {
	for i, s := range t.subs {
		if s == target {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}

// Once subscribes fn for a single delivery.
//
// Postcondition: fn runs at most once; the returned Subscription cancels it if it has not run.
func Once[T any](t *Topic[T], fn func(T)) Subscription {
	var sub Subscription
	sub = t.Subscribe(func(v T) {
		sub.Unsubscribe()
		fn(v)
	})
	return sub
}

// Group ties a set of subscriptions to the lifetime of one component.
// Close detaches all of them at once.
type Group struct {
	subs []Subscription
}

// Add records sub and returns it.
func (g *Group) Add(sub Subscription) Subscription {
	g.subs = append(g.subs, sub)
	return sub
}

// Close unsubscribes everything added so far.
//
// Postcondition: No listener added through g remains attached.
func (g *Group) Close() {
	for _, s := range g.subs {
		s.Unsubscribe()
	}
	g.subs = nil
}

// On subscribes fn to t and records the subscription in g.
func On[T any](g *Group, t *Topic[T], fn func(T)) Subscription {
	return g.Add(t.Subscribe(fn))
}
