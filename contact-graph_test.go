package dtnsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanFollow(t *testing.T) {
	tests := []struct {
		name string
		a, b ContactID
		want bool
	}{
		{"chained", mkContact("n1", "n2", 10, 20), mkContact("n2", "n3", 20, 30), true},
		{"not adjacent", mkContact("n1", "n2", 10, 20), mkContact("n3", "n4", 20, 30), false},
		{"straight back", mkContact("n1", "n2", 10, 20), mkContact("n2", "n1", 10, 20), false},
		{"closed before opening", mkContact("n1", "n2", 10, 20), mkContact("n2", "n3", 0, 10), false},
		{"overlapping", mkContact("n1", "n2", 10, 20), mkContact("n2", "n3", 0, 11), true},
		{"into terminal", mkContact("n1", "n2", 10, 20), NodeVertex("n2"), true},
		{"out of root", NodeVertex("n1"), mkContact("n1", "n2", 10, 20), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canFollow(tt.a, tt.b))
		})
	}
}

func TestContactGraphBuild(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	assert.Equal(t, 8, cg.Len())
	require.NoError(t, cg.CheckConsistency())

	// latest closing contact first
	assert.Equal(t, []ContactID{mkContact("node1", "node3", 40, 50), mkContact("node1", "node2", 10, 20)},
		cg.Successors(NodeVertex("node1")))
	assert.Equal(t, []ContactID{NodeVertex("node4")}, cg.Successors(mkContact("node2", "node4", 20, 30)))
	assert.Equal(t, []ContactID{mkContact("node3", "node4", 70, 80), mkContact("node2", "node4", 20, 30)},
		cg.Predecessors(NodeVertex("node4")))
	assert.Nil(t, cg.Successors(mkContact("node9", "node4", 0, 1)))
}

func TestContactGraphDuplicatePlanContactsCollapse(t *testing.T) {
	plan := diamondPlan()
	plan.AddContact("node1", "node2", 10, 20, &ContactOpts{OneWay: true})
	cg := CreateContactGraph(plan, LexicalOrder)
	assert.Equal(t, 8, cg.Len())
}

func TestContactGraphAddContact(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	shortcut := mkContact("node2", "node3", 15, 45)
	require.NoError(t, cg.AddContact(shortcut))
	require.NoError(t, cg.CheckConsistency())

	assert.Contains(t, cg.Successors(mkContact("node1", "node2", 10, 20)), shortcut)
	assert.Contains(t, cg.Predecessors(mkContact("node3", "node4", 70, 80)), shortcut)

	// an incrementally added contact ends up exactly where a rebuild puts it
	plan := diamondPlan()
	plan.AddContact("node2", "node3", 15, 45, &ContactOpts{OneWay: true})
	rebuilt := CreateContactGraph(plan, LexicalOrder)
	for _, v := range rebuilt.Vertices() {
		assert.Equal(t, rebuilt.Successors(v), cg.Successors(v), "successors of %v", v)
		assert.Equal(t, rebuilt.Predecessors(v), cg.Predecessors(v), "predecessors of %v", v)
	}

	err := cg.AddContact(shortcut)
	assert.True(t, HasCode(err, ErrInvalidArgument))
	err = cg.AddContact(ContactID{From: "node1", To: "node2", Start: 5, End: 1, Datarate: 1})
	assert.True(t, HasCode(err, ErrInvalidArgument))
}

func TestContactGraphRemoveContact(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	gone := mkContact("node2", "node4", 20, 30)
	require.NoError(t, cg.RemoveContact(gone))
	require.NoError(t, cg.CheckConsistency())
	assert.False(t, cg.Contains(gone))
	assert.Equal(t, []ContactID{NodeVertex("node2")}, cg.Successors(mkContact("node1", "node2", 10, 20)))
	assert.NotContains(t, cg.Predecessors(NodeVertex("node4")), gone)

	assert.True(t, HasCode(cg.RemoveContact(gone), ErrNotFound))
	assert.True(t, HasCode(cg.RemoveContact(NodeVertex("node1")), ErrInvalidArgument))
}

func TestContactGraphRemoveTopologyNode(t *testing.T) {
	cg := CreateContactGraph(ringPlan(true), LexicalOrder)
	before := cg.Len()
	removed, err := cg.RemoveTopologyNode("node2")
	require.NoError(t, err)
	// node1<->node2, node2<->node6 and the sentinel
	assert.Equal(t, 5, removed)
	assert.Equal(t, before-5, cg.Len())
	require.NoError(t, cg.CheckConsistency())
	for _, v := range cg.Vertices() {
		assert.NotEqual(t, "node2", v.From)
		assert.NotEqual(t, "node2", v.To)
	}

	_, err = cg.RemoveTopologyNode("node2")
	assert.True(t, HasCode(err, ErrNotFound))
}

func TestContactGraphRemoveExpired(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	assert.Equal(t, 2, cg.RemoveExpired(35))
	assert.Equal(t, 6, cg.Len())
	require.NoError(t, cg.CheckConsistency())
	assert.True(t, cg.Contains(NodeVertex("node2")))
	assert.True(t, cg.Contains(mkContact("node1", "node3", 40, 50)))

	cg.Reinitialize(diamondPlan())
	assert.Equal(t, 8, cg.Len())
}
