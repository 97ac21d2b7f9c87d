package dtnsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchGenerator(t *testing.T) {
	bg := CreateBatchGenerator("burst", PacketTemplate{Size: 1000, TTL: 500}, 2,
		[]string{"node1", "node8"}, []string{"node8"}, []float64{5, 0, 5})
	assert.Equal(t, []float64{0, 5}, bg.Times)
	assert.Equal(t, "burst", bg.Name())

	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	dm := CreateDeliveryMonitor()
	sim.RegisterMonitor(dm)
	sim.RegisterGenerator(bg)
	require.NoError(t, sim.Run(200))

	// node8 -> node8 is not a pair
	assert.Equal(t, 4, bg.Generated())
	recs := dm.Records()
	require.Len(t, recs, 4)
	assert.Equal(t, []float64{0, 0, 5, 5},
		[]float64{recs[0].CreatedAt, recs[1].CreatedAt, recs[2].CreatedAt, recs[3].CreatedAt})
	for idx, rec := range recs {
		assert.Equal(t, idx, rec.ID)
		assert.True(t, rec.Delivered)
	}
}

func TestPacketTemplateDeadline(t *testing.T) {
	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	tmpl := PacketTemplate{Size: 10, TTL: 25, Critical: true, ReturnToSender: true}
	pkt := tmpl.create(sim, "node1", "node8", 5)
	assert.Equal(t, 30.0, pkt.Deadline)
	assert.True(t, pkt.Critical)
	assert.True(t, pkt.ReturnToSender)

	unlimited := PacketTemplate{Size: 10}
	assert.Equal(t, CreatePacket(0, "", "", 0, 0).Deadline, unlimited.create(sim, "node1", "node8", 5).Deadline)
}

func TestContinuousGenerator(t *testing.T) {
	cg := CreateContinuousGenerator("steady", PacketTemplate{Size: 1000}, 100,
		[]string{"node1"}, []string{"node8"}, 0, 35)
	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	dm := CreateDeliveryMonitor()
	sim.RegisterMonitor(dm)
	sim.RegisterGenerator(cg)
	require.NoError(t, sim.Run(200))

	assert.Equal(t, 3, cg.Generated())
	created := make([]float64, 0)
	for _, rec := range dm.Records() {
		created = append(created, rec.CreatedAt)
	}
	assert.Equal(t, []float64{10, 20, 30}, created)
}

func TestPoissonGenerator(t *testing.T) {
	pg := CreatePoissonGenerator("random", PacketTemplate{Size: 100}, 5,
		[]string{"node1", "node3"}, []string{"node8"}, 0, 50)
	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	dm := CreateDeliveryMonitor()
	sim.RegisterMonitor(dm)
	sim.RegisterGenerator(pg)
	require.NoError(t, sim.Run(200))

	assert.Positive(t, pg.Generated())
	assert.Len(t, dm.Records(), pg.Generated())
	for _, rec := range dm.Records() {
		assert.Contains(t, []string{"node1", "node3"}, rec.Source)
		assert.GreaterOrEqual(t, rec.CreatedAt, 0.0)
		assert.LessOrEqual(t, rec.CreatedAt, 50.0)
	}
}
