package linkedlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_AllocStoresFieldsVerbatim(t *testing.T) {
	nodes := NewArena[string]()
	a := nodes.Alloc("a", Handle{}, Handle{})
	b := nodes.Alloc("b", a, Handle{})

	assert.Equal(t, a, nodes.Prev(b))
	// no automatic linkage
	assert.True(t, nodes.Next(a).IsZero())

	payload, ok := nodes.Payload(b)
	require.True(t, ok)
	assert.Equal(t, "b", payload)
	assert.Equal(t, 2, nodes.Len())
}

func TestArena_Release(t *testing.T) {
	tests := []struct {
		name    string
		release int // index into the chain a, b, c
		want    []string
	}{
		{name: "head", release: 0, want: []string{"b", "c"}},
		{name: "middle", release: 1, want: []string{"a", "c"}},
		{name: "tail", release: 2, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := NewArena[string]()
			head, _ := Chain(nodes, "a", "b", "c")
			handles := []Handle{head, nodes.Next(head), nodes.Next(nodes.Next(head))}

			require.NoError(t, nodes.Release(handles[tt.release], false))
			assert.False(t, nodes.Live(handles[tt.release]))

			newHead := head
			if tt.release == 0 {
				newHead = handles[1]
			}
			l, err := New(nodes, 2, newHead, WithPolicy(PolicyReport))
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Payloads())
		})
	}
}

func TestArena_ReleaseLoneNode(t *testing.T) {
	nodes := NewArena[string]()
	lone := nodes.Alloc("x", Handle{}, Handle{})

	err := nodes.Release(lone, false)
	assert.ErrorIs(t, err, ErrUnlinkedNode)
	assert.True(t, nodes.Live(lone), "node must not be freed")

	require.NoError(t, nodes.Release(lone, true))
	assert.False(t, nodes.Live(lone))
	assert.Equal(t, 0, nodes.Len())
}

func TestArena_ReleaseInvalidHandle(t *testing.T) {
	nodes := NewArena[string]()

	err := nodes.Release(Handle{}, true)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	h := nodes.Alloc("x", Handle{}, Handle{})
	require.NoError(t, nodes.Release(h, true))
	assert.ErrorIs(t, nodes.Release(h, true), ErrInvalidArgument, "double release")
}

func TestArena_SlotReuseInvalidatesOldHandles(t *testing.T) {
	nodes := NewArena[string]()
	old := nodes.Alloc("old", Handle{}, Handle{})
	require.NoError(t, nodes.Release(old, true))

	fresh := nodes.Alloc("fresh", Handle{}, Handle{})
	assert.NotEqual(t, old, fresh)
	assert.False(t, nodes.Live(old))
	assert.True(t, nodes.Live(fresh))

	_, ok := nodes.Payload(old)
	assert.False(t, ok)
	assert.False(t, nodes.SetNext(old, fresh))
	assert.False(t, nodes.SetPrev(old, fresh))
}

func TestArena_ReleaseHeadLeavesValidChain(t *testing.T) {
	nodes := NewArena[string]()
	head, n := Chain(nodes, "a", "b", "c", "d")

	for n > 0 {
		next := nodes.Next(head)
		require.NoError(t, nodes.Release(head, n == 1))
		head = next
		n--

		rest, err := New(nodes, n, head, WithPolicy(PolicyReport))
		require.NoError(t, err, "chain of %d after releasing its head", n)
		assert.Equal(t, n, rest.Len())
	}
	assert.Equal(t, 0, nodes.Len())
}

func TestArena_ForeignHandles(t *testing.T) {
	a := NewArena[string]()
	b := NewArena[string]()
	ha := a.Alloc("a", Handle{}, Handle{})
	hb := b.Alloc("b", Handle{}, Handle{})

	assert.True(t, a.Owns(ha))
	assert.False(t, a.Owns(hb))
	assert.False(t, a.Live(hb))
	_, ok := a.Payload(hb)
	assert.False(t, ok)
	assert.False(t, a.SetNext(hb, ha))
	assert.ErrorIs(t, a.Release(hb, true), ErrInvalidArgument)
	assert.True(t, b.Live(hb))

	var zero Arena[string]
	hz := zero.Alloc("z", Handle{}, Handle{})
	assert.True(t, zero.Live(hz))
	assert.False(t, a.Live(hz))
}

func TestHandle_String(t *testing.T) {
	assert.Equal(t, "<nil>", Handle{}.String())

	nodes := NewArena[int]()
	assert.Equal(t, "#0.1", nodes.Alloc(1, Handle{}, Handle{}).String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "out-of-range", KindOutOfRange.String())
	assert.True(t, KindInvariant.Fatal())
	assert.False(t, KindUnlinked.Fatal())
	assert.Equal(t, Kind(0), KindOf(assert.AnError))
}
