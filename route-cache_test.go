package dtnsim

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCacheLoadAllDiamond(t *testing.T) {
	cg := CreateContactGraph(diamondPlan(), LexicalOrder)
	rc := CreateRouteCache("node1", cg, LexicalOrder)

	require.Equal(t, 2, rc.LoadAll("node4", 0))
	assert.True(t, rc.Exhausted("node4"))

	routes := rc.Routes("node4")
	assert.Equal(t, 20.0, routes[0].EDT)
	assert.Equal(t, 70.0, routes[1].EDT)
	assert.Equal(t, 10000.0, routes[0].Capacity)
	assert.Equal(t, 10000.0, routes[1].Capacity)

	lines := make([]string, len(routes))
	for idx, rt := range routes {
		lines[idx] = rt.String()
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "diamond_routes", []byte(strings.Join(lines, "\n")+"\n"))

	// nothing more to find
	assert.Nil(t, rc.Refill("node4", 0, false))
	assert.Equal(t, 2, rc.LoadAll("node4", 0))
}

func TestRouteCacheRing(t *testing.T) {
	cg := CreateContactGraph(ringPlan(true), LexicalOrder)

	rc := CreateRouteCache("node1", cg, LexicalOrder)
	require.Equal(t, 2, rc.LoadAll("node8", 0))
	routes := rc.Routes("node8")
	assert.Equal(t, "node2", routes[0].NextHop)
	assert.Equal(t, 30.0, routes[0].EDT)
	assert.Equal(t, "node3", routes[1].NextHop)
	assert.Equal(t, 40.0, routes[1].EDT)
	assert.Equal(t, 3, routes[0].HopCount)
	assert.Equal(t, 3, routes[1].HopCount)

	// by t=50 the node2 branch has closed
	late := CreateRouteCache("node1", cg, LexicalOrder)
	require.Equal(t, 1, late.LoadAll("node8", 50))
	assert.Equal(t, "node3", late.Routes("node8")[0].NextHop)
}

func TestRouteCacheUnknownDestination(t *testing.T) {
	rc := CreateRouteCache("node1", CreateContactGraph(diamondPlan(), LexicalOrder), LexicalOrder)
	assert.Nil(t, rc.Routes("node4"))
	assert.False(t, rc.Exhausted("node4"))
	assert.Equal(t, AvgDeliveryTime{}, rc.DeliveryTime("node4"))
	assert.Equal(t, 0, rc.LoadAll("ghost", 0))
	assert.True(t, rc.Exhausted("ghost"))
}

func TestRouteCacheWindowedRefill(t *testing.T) {
	rc := CreateRouteCache("node1", CreateContactGraph(diamondPlan(), LexicalOrder), LexicalOrder)

	first := rc.Refill("node4", 0, true)
	require.NotNil(t, first)
	adt := rc.DeliveryTime("node4")
	assert.Equal(t, 1, adt.Count)
	assert.Equal(t, 20.0, adt.Mean)
	assert.Equal(t, 1, adt.WindowHit)

	// the window is now 1.2 * 20 = 24ms, too short for the node3 branch, so the
	// search falls back to the whole graph
	second := rc.Refill("node4", 0, true)
	require.NotNil(t, second)
	assert.Equal(t, "node3", second.NextHop)
	adt = rc.DeliveryTime("node4")
	assert.Equal(t, 2, adt.Count)
	assert.Equal(t, 45.0, adt.Mean)
	assert.Equal(t, 1, adt.WindowMiss)

	assert.Nil(t, rc.Refill("node4", 0, true))
	assert.True(t, rc.Exhausted("node4"))
}

func TestRouteCacheReset(t *testing.T) {
	rc := CreateRouteCache("node1", CreateContactGraph(diamondPlan(), LexicalOrder), LexicalOrder)
	rc.LoadAll("node4", 0)
	rc.Reset()
	assert.Nil(t, rc.Routes("node4"))
	assert.False(t, rc.Exhausted("node4"))
	assert.Equal(t, 2, rc.LoadAll("node4", 0))
}

func TestCandidateSetKeepsBestPerNextHop(t *testing.T) {
	cs := newCandidateSet(LexicalOrder)
	slow := neighborFor(NewRoute([]ContactID{mkContact("n", "b", 0, 10), mkContact("b", "d", 8, 10)}))
	fast := neighborFor(NewRoute([]ContactID{mkContact("n", "b", 0, 10), mkContact("b", "d", 2, 10)}))
	other := neighborFor(NewRoute([]ContactID{mkContact("n", "c", 0, 10), mkContact("c", "d", 5, 10)}))

	cs.offer(slow)
	cs.offer(other)
	cs.offer(fast)
	assert.Equal(t, 2, cs.Len())
	assert.Equal(t, []*Neighbor{fast, other}, cs.ranked())
	assert.Same(t, fast, cs.best())

	// a worse route through a known next hop changes nothing
	cs.offer(slow)
	assert.Same(t, fast, cs.best())
	assert.Empty(t, newCandidateSet(LexicalOrder).ranked())
	assert.Nil(t, newCandidateSet(LexicalOrder).best())
}
