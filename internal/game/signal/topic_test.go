package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/quizboss/internal/game/signal"
)

func TestTopic_DeliversInSubscriptionOrder(t *testing.T) {
	var topic signal.Topic[int]
	var got []string
	topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })
	topic.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestTopic_Unsubscribe(t *testing.T) {
	var topic signal.Topic[string]
	calls := 0
	sub := topic.Subscribe(func(string) { calls++ })
	topic.Publish("x")
	sub.Unsubscribe()
	sub.Unsubscribe()
	topic.Publish("y")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, topic.Len())
}

func TestTopic_UnsubscribeDuringPublishSkipsLaterListener(t *testing.T) {
	var topic signal.Topic[int]
	var second signal.Subscription
	secondCalls := 0
	topic.Subscribe(func(int) { second.Unsubscribe() })
	second = topic.Subscribe(func(int) { secondCalls++ })
	topic.Publish(1)
	assert.Equal(t, 0, secondCalls)
}

func TestTopic_SubscribeDuringPublishSeesOnlyLaterValues(t *testing.T) {
	var topic signal.Topic[int]
	var late []int
	added := false
	topic.Subscribe(func(int) {
		if !added {
			added = true
			topic.Subscribe(func(v int) { late = append(late, v) })
		}
	})
	topic.Publish(1)
	topic.Publish(2)
	assert.Equal(t, []int{2}, late)
}

func TestOnce(t *testing.T) {
	var topic signal.Topic[int]
	var got []int
	signal.Once(&topic, func(v int) { got = append(got, v) })
	topic.Publish(7)
	topic.Publish(8)
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 0, topic.Len())
}

func TestGroup_CloseDetachesAll(t *testing.T) {
	bus := signal.NewBus()
	var g signal.Group
	calls := 0
	signal.On(&g, &bus.GameStarted, func(signal.GameStarted) { calls++ })
	signal.On(&g, &bus.GameWon, func(signal.GameWon) { calls++ })

	bus.GameStarted.Publish(signal.GameStarted{})
	g.Close()
	bus.GameStarted.Publish(signal.GameStarted{})
	bus.GameWon.Publish(signal.GameWon{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.GameStarted.Len())
	assert.Equal(t, 0, bus.GameWon.Len())
}

// Property: after any interleaving of subscribe/unsubscribe, a publish reaches
// exactly the listeners still subscribed.
func TestPropertyTopic_ReachesExactlyActiveListeners(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var topic signal.Topic[int]
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		hits := make([]int, n)
		subs := make([]signal.Subscription, n)
		for i := 0; i < n; i++ {
			i := i
			subs[i] = topic.Subscribe(func(int) { hits[i]++ })
		}
		removed := make([]bool, n)
		for i := 0; i < n; i++ {
			if rapid.Bool().Draw(rt, "remove") {
				subs[i].Unsubscribe()
				removed[i] = true
			}
		}
		topic.Publish(0)
		for i := 0; i < n; i++ {
			if removed[i] {
				assert.Equal(rt, 0, hits[i])
			} else {
				assert.Equal(rt, 1, hits[i])
			}
		}
	})
}
