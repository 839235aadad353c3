package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutline(t *testing.T) {
	o := NewOutline()
	require.NotNil(t, o)
	assert.Empty(t, o.nodes)
}

func TestOutlineAddNode(t *testing.T) {
	o := NewOutline()

	o.AddNode("a")
	assert.Len(t, o.nodes, 1)
	assert.True(t, o.Has("a"))

	o.AddNode("a") // idempotent
	assert.Len(t, o.nodes, 1)
	assert.Equal(t, []string{"a"}, o.ids)

	o.AddNode("b")
	assert.Len(t, o.nodes, 2)
}

func TestOutlineAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		o := NewOutline()
		o.AddNode("a")
		o.AddNode("b")

		require.NoError(t, o.AddEdge("a", "b")) // b depends on a

		require.Len(t, o.nodes["b"].deps, 1)
		assert.Equal(t, "a", o.nodes["b"].deps[0].id)
		assert.Empty(t, o.nodes["a"].deps)
	})

	t.Run("error cases", func(t *testing.T) {
		o := NewOutline()
		o.AddNode("a")

		assert.ErrorContains(t, o.AddEdge("dne", "a"), "source node not found")
		assert.ErrorContains(t, o.AddEdge("a", "dne"), "destination node not found")

		var cycleErr *CycleError
		require.ErrorAs(t, o.AddEdge("a", "a"), &cycleErr)
		assert.Equal(t, []string{"a", "a"}, cycleErr.Path)
	})
}

func TestOutlineOrder(t *testing.T) {
	t.Run("dependencies come first", func(t *testing.T) {
		o := NewOutline()
		for _, id := range []string{"all", "lib", "a.o", "a.c"} {
			o.AddNode(id)
		}
		require.NoError(t, o.AddEdge("lib", "all"))
		require.NoError(t, o.AddEdge("a.o", "lib"))
		require.NoError(t, o.AddEdge("a.c", "a.o"))

		order, err := o.Order()
		require.NoError(t, err)
		assert.Equal(t, []string{"a.c", "a.o", "lib", "all"}, order)
	})

	t.Run("diamond is ordered once", func(t *testing.T) {
		o := NewOutline()
		for _, id := range []string{"top", "left", "right", "base"} {
			o.AddNode(id)
		}
		require.NoError(t, o.AddEdge("left", "top"))
		require.NoError(t, o.AddEdge("right", "top"))
		require.NoError(t, o.AddEdge("base", "left"))
		require.NoError(t, o.AddEdge("base", "right"))

		order, err := o.Order()
		require.NoError(t, err)
		assert.Equal(t, []string{"base", "left", "right", "top"}, order)
	})
}

func TestOutlineOrderCycles(t *testing.T) {
	t.Run("empty outline has no cycles", func(t *testing.T) {
		order, err := NewOutline().Order()
		assert.NoError(t, err)
		assert.Empty(t, order)
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		o := NewOutline()
		for _, id := range []string{"a", "b", "c", "d"} {
			o.AddNode(id)
		}
		require.NoError(t, o.AddEdge("a", "b"))
		require.NoError(t, o.AddEdge("b", "c"))
		require.NoError(t, o.AddEdge("a", "c"))
		require.NoError(t, o.AddEdge("c", "d"))
		_, err := o.Order()
		assert.NoError(t, err)
	})

	t.Run("longer cycle is detected with its path", func(t *testing.T) {
		o := NewOutline()
		for _, id := range []string{"a", "b", "c"} {
			o.AddNode(id)
		}
		require.NoError(t, o.AddEdge("a", "b"))
		require.NoError(t, o.AddEdge("b", "c"))
		require.NoError(t, o.AddEdge("c", "a"))

		_, err := o.Order()
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.ErrorContains(t, err, "cycle detected")
		assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
		assert.Len(t, cycleErr.Path, 4)
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		o := NewOutline()
		for _, id := range []string{"a", "b", "x", "y", "z"} {
			o.AddNode(id)
		}
		require.NoError(t, o.AddEdge("a", "b"))
		require.NoError(t, o.AddEdge("x", "y"))
		require.NoError(t, o.AddEdge("y", "z"))
		require.NoError(t, o.AddEdge("z", "y"))

		_, err := o.Order()
		assert.ErrorContains(t, err, "cycle detected")
		assert.ErrorContains(t, err, "y -> z -> y")
	})
}
