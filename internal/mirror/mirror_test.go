package mirror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlab/kaleido/internal/agent"
)

// capture returns an observer that appends every received snapshot.
func capture(dst *[]Snapshot) Observer {
	return ObserverFunc(func(s Snapshot) error {
		*dst = append(*dst, s)
		return nil
	})
}

func TestUpdate_BroadcastsPostMutationCopies(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(map[string]any{"value": 0}))

	var captured []Snapshot
	require.NoError(t, m.Subscribe(capture(&captured)))

	require.NoError(t, m.Update("value", 1))
	require.NoError(t, m.Update("another_value", 42))

	require.Len(t, captured, 2)
	assert.Equal(t, Snapshot{"value": 1}, captured[0])
	assert.Equal(t, Snapshot{"value": 1, "another_value": 42}, captured[1])
}

func TestUpdate_OneNotificationPerObserverPerCall(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	counts := make([]int, 3)
	for i := range counts {
		i := i
		require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
			counts[i]++
			return nil
		})))
	}

	require.NoError(t, m.Update("x", 1.0))
	require.NoError(t, m.Update("x", 2.0))

	for i, n := range counts {
		assert.Equal(t, 2, n, "observer %d", i)
	}
}

func TestUpdate_RegistrationOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
			order = append(order, name)
			return nil
		})))
	}

	require.NoError(t, m.Update("k", true))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestUpdate_SnapshotIsDefensiveCopy(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	var captured []Snapshot
	require.NoError(t, m.Subscribe(capture(&captured)))

	require.NoError(t, m.Update("nested", map[string]any{"inner": 1}))

	// Mutating the received snapshot must not leak into the mirror.
	captured[0]["nested"].(map[string]any)["inner"] = 999
	captured[0]["new"] = "sneaky"

	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{"nested": map[string]any{"inner": 1}}, state)
}

func TestUpdate_SourceValueIsCopied(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	src := map[string]any{"inner": 1}
	require.NoError(t, m.Update("nested", src))
	src["inner"] = 999

	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, 1, state["nested"].(map[string]any)["inner"])
}

func TestStart_SeedDoesNotBroadcast(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(map[string]any{"seeded": true}))

	var captured []Snapshot
	require.NoError(t, m.Subscribe(capture(&captured)))
	assert.Empty(t, captured)

	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{"seeded": true}, state)
}

func TestSubscribe_NoRetroactiveDelivery(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))
	require.NoError(t, m.Update("early", 1))

	var captured []Snapshot
	require.NoError(t, m.Subscribe(capture(&captured)))
	assert.Empty(t, captured)

	require.NoError(t, m.Update("late", 2))
	require.Len(t, captured, 1)
	assert.Equal(t, Snapshot{"early": 1, "late": 2}, captured[0])
}

func TestUpdate_ObserverFailureDoesNotStopDelivery(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	var delivered []string
	require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
		delivered = append(delivered, "a")
		return errors.New("observer a broke")
	})))
	require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
		delivered = append(delivered, "b")
		return nil
	})))
	require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
		delivered = append(delivered, "c")
		return errors.New("observer c broke")
	})))

	err := m.Update("x", 1)
	require.Error(t, err)

	// All three observers were attempted despite two failures.
	assert.Equal(t, []string{"a", "b", "c"}, delivered)

	var be *BroadcastError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "x", be.Key)
	assert.Len(t, be.Errs, 2)
	assert.Contains(t, be.Errs[0].Error(), "observer 0")
	assert.Contains(t, be.Errs[1].Error(), "observer 2")

	// The mutation itself is not rolled back.
	state, stateErr := m.State()
	require.NoError(t, stateErr)
	assert.Equal(t, Snapshot{"x": 1}, state)
}

func TestUpdate_ObserverPanicBecomesError(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	var afterPanic bool
	require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
		panic("boom")
	})))
	require.NoError(t, m.Subscribe(ObserverFunc(func(Snapshot) error {
		afterPanic = true
		return nil
	})))

	err := m.Update("x", 1)
	require.Error(t, err)
	assert.True(t, afterPanic)
	assert.Contains(t, err.Error(), "1 observer(s) failed")
}

func TestLifecycle_Guards(t *testing.T) {
	m := New()

	// Everything but Start is rejected while created.
	assert.True(t, agent.IsLifecycleError(m.Update("x", 1)))
	assert.True(t, agent.IsLifecycleError(m.Subscribe(ObserverFunc(func(Snapshot) error { return nil }))))
	_, err := m.State()
	assert.True(t, agent.IsLifecycleError(err))
	assert.True(t, agent.IsLifecycleError(m.Stop()))

	require.NoError(t, m.Start(nil))
	require.NoError(t, m.Update("x", 1))
	require.NoError(t, m.Stop())

	// After stop: mutations rejected, state still readable.
	assert.True(t, agent.IsLifecycleError(m.Update("x", 2)))
	assert.True(t, agent.IsLifecycleError(m.Subscribe(ObserverFunc(func(Snapshot) error { return nil }))))
	assert.True(t, agent.IsLifecycleError(m.Stop()))

	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{"x": 1}, state)
}

func TestStop_DiscardsObservers(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	var captured []Snapshot
	require.NoError(t, m.Subscribe(capture(&captured)))
	require.NoError(t, m.Stop())

	// No further deliveries are possible; the failed update proves the
	// mutation path is closed, not just the observer list.
	require.Error(t, m.Update("x", 1))
	assert.Empty(t, captured)
}

func TestKeys_InsertionOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	require.NoError(t, m.Update("zebra", 1))
	require.NoError(t, m.Update("apple", 2))
	require.NoError(t, m.Update("zebra", 3)) // re-update keeps position

	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple"}, keys)
}

func TestDoubleSubscribeSameObserver(t *testing.T) {
	m := New()
	require.NoError(t, m.Start(nil))

	count := 0
	obs := ObserverFunc(func(Snapshot) error {
		count++
		return nil
	})
	require.NoError(t, m.Subscribe(obs))
	require.NoError(t, m.Subscribe(obs))

	require.NoError(t, m.Update("x", 1))
	assert.Equal(t, 2, count)
}

func TestBroadcastError_Message(t *testing.T) {
	be := &BroadcastError{Key: "u_r", Errs: []error{fmt.Errorf("observer 1: boom")}}
	assert.Equal(t, `broadcast for key "u_r": 1 observer(s) failed`, be.Error())
}
