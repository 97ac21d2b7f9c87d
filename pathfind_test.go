package dtnsim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPathSameNode(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	path, dist := FindPath(cg, "node1", "node1", 12, nil)
	assert.NotNil(t, path)
	assert.Empty(t, path)
	assert.Equal(t, 0.0, dist)
}

func TestFindPathUnreachable(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)

	path, dist := FindPath(cg, "node4", "node1", 0, nil)
	assert.Nil(t, path)
	assert.True(t, math.IsInf(dist, 1))

	path, dist = FindPath(cg, "node1", "nowhere", 0, nil)
	assert.Nil(t, path)
	assert.True(t, math.IsInf(dist, 1))
}

func TestFindPathEarliestArrival(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)

	path, dist := FindPath(cg, "node1", "node4", 0, nil)
	assert.Equal(t, []ContactID{NodeVertex("node1"), mkContact("node1", "node2", 10, 20),
		mkContact("node2", "node4", 20, 30), NodeVertex("node4")}, path)
	assert.Equal(t, 20.0, dist)

	// once node1->node2 has closed only the slow branch remains
	path, dist = FindPath(cg, "node1", "node4", 25, nil)
	require.Len(t, path, 4)
	assert.Equal(t, "node3", path[1].To)
	assert.Equal(t, 70.0, dist)
}

func TestFindPathSuppression(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)

	opts := &SearchOptions{SuppressedContacts: map[ContactID]bool{mkContact("node1", "node2", 10, 20): true}}
	_, dist := FindPath(cg, "node1", "node4", 0, opts)
	assert.Equal(t, 70.0, dist)

	opts = &SearchOptions{SuppressedNodes: []string{"node2"}}
	path, dist := FindPath(cg, "node1", "node4", 0, opts)
	assert.Equal(t, 70.0, dist)
	for _, v := range path {
		assert.NotEqual(t, "node2", v.To)
	}

	opts = &SearchOptions{SuppressedNodes: []string{"node2", "node3"}}
	path, _ = FindPath(cg, "node1", "node4", 0, opts)
	assert.Nil(t, path)
}

func TestFindPathLookahead(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	suppressed := map[ContactID]bool{mkContact("node1", "node2", 10, 20): true}

	path, _ := FindPath(cg, "node1", "node4", 0,
		&SearchOptions{SuppressedContacts: suppressed, Windowed: true, Lookahead: 30})
	assert.Nil(t, path)

	_, dist := FindPath(cg, "node1", "node4", 0,
		&SearchOptions{SuppressedContacts: suppressed, Windowed: true, Lookahead: 71})
	assert.Equal(t, 70.0, dist)
}

// twinPlan offers two routes that are equal in every respect but the relay node
func twinPlan() *ContactPlan {
	cp := CreateContactPlan(1000, 0)
	oneWay := &ContactOpts{OneWay: true}
	cp.AddContact("src", "relayB", 0, 10, oneWay)
	cp.AddContact("src", "relayA", 0, 10, oneWay)
	cp.AddContact("relayA", "dst", 0, 10, oneWay)
	cp.AddContact("relayB", "dst", 0, 10, oneWay)
	return cp
}

func TestFindPathTieBreakFollowsNodeOrder(t *testing.T) {
	for i := 0; i < 10; i++ {
		path, _ := FindPath(CreateContactGraph(twinPlan(), LexicalOrder), "src", "dst", 0, nil)
		require.Len(t, path, 4)
		assert.Equal(t, "relayA", path[1].To)
	}

	path, _ := FindPath(CreateContactGraph(twinPlan(), ReverseLexicalOrder), "src", "dst", 0, nil)
	require.Len(t, path, 4)
	assert.Equal(t, "relayB", path[1].To)

	// the order in the options overrides the graph's
	path, _ = FindPath(CreateContactGraph(twinPlan(), LexicalOrder), "src", "dst", 0,
		&SearchOptions{Order: ReverseLexicalOrder})
	assert.Equal(t, "relayB", path[1].To)
}

func TestFindPathPrefersFewerHops(t *testing.T) {
	cp := twinPlan()
	cp.AddContact("src", "dst", 0, 10, &ContactOpts{OneWay: true})
	path, dist := FindPath(CreateContactGraph(cp, LexicalOrder), "src", "dst", 0, nil)
	assert.Equal(t, 0.0, dist)
	assert.Len(t, path, 3)
}

func TestFindPathRing(t *testing.T) {
	cg := CreateContactGraph(ringPlan(true), LexicalOrder)
	path, dist := FindPath(cg, "node1", "node8", 0, nil)
	assert.Equal(t, 30.0, dist)
	rt := NewRoute(path)
	require.NotNil(t, rt)
	assert.Equal(t, "node2", rt.NextHop)
	assert.Equal(t, 3, rt.HopCount)
}
