package view

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/graphres"
	"github.com/DrSkyle/netmapper/pkg/scan"
	"github.com/DrSkyle/netmapper/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	devices    []discovery.Device
	scanErr    error
	graphErr   error
	scanCalls  atomic.Int32
	graphCalls atomic.Int32
	// graphGates[n] holds graph call n+1 until closed.
	graphGates []chan struct{}
}

func (f *fakeService) Scan(ctx context.Context) ([]discovery.Device, error) {
	f.scanCalls.Add(1)
	return f.devices, f.scanErr
}

func (f *fakeService) Graph(ctx context.Context) (*discovery.Image, error) {
	n := int(f.graphCalls.Add(1))
	if n <= len(f.graphGates) {
		<-f.graphGates[n-1]
	}
	if f.graphErr != nil {
		return nil, f.graphErr
	}
	return &discovery.Image{Data: []byte("png"), ContentType: "image/png"}, nil
}

var lan = []discovery.Device{
	{IP: "192.168.1.1", MAC: "AA:BB:CC:00:11:22", Type: "router", Vendor: "Acme"},
	{IP: "192.168.1.20", MAC: "AA:BB:CC:00:11:33", Type: "laptop"},
}

func newCoordinator(t *testing.T, svc *fakeService, opts ...Option) (*Coordinator, *graphres.Manager) {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 10, 18, 21, 5, 0, 0, time.Local) }
	ctrl := scan.NewController(svc, scan.WithClock(clock))
	mgr := graphres.NewManager(svc, graphres.WithClock(clock))
	c := New(ctrl, mgr, opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c, mgr
}

func TestModeSwitchDoesNotScanOrAlterSession(t *testing.T) {
	svc := &fakeService{devices: lan}
	c, _ := newCoordinator(t, svc)
	ctx := context.Background()

	before := c.Scan(ctx)
	require.Equal(t, scan.Success, before.Status)

	require.NoError(t, c.SetMode(ctx, Graph))
	require.NoError(t, c.SetMode(ctx, List))
	require.NoError(t, c.Toggle(ctx))

	after := c.Snapshot().Session
	assert.Equal(t, before, after)
	assert.Equal(t, int32(1), svc.scanCalls.Load())
	assert.Equal(t, Graph, c.Mode())
}

func TestEnteringGraphWithoutDevicesDoesNotFetch(t *testing.T) {
	svc := &fakeService{}
	c, mgr := newCoordinator(t, svc)

	require.NoError(t, c.SetMode(context.Background(), Graph))
	assert.Equal(t, int32(0), svc.graphCalls.Load())
	assert.Nil(t, mgr.Current())
	assert.Nil(t, c.Snapshot().Graph)
}

func TestEnteringGraphFetchesOncePerDeviceSet(t *testing.T) {
	svc := &fakeService{devices: lan}
	c, mgr := newCoordinator(t, svc)
	ctx := context.Background()

	c.Scan(ctx)
	require.NoError(t, c.SetMode(ctx, Graph))
	require.NoError(t, c.SetMode(ctx, List))
	require.NoError(t, c.SetMode(ctx, Graph))
	assert.Equal(t, int32(1), svc.graphCalls.Load())

	// Leaving graph mode keeps the handle until the next fetch.
	require.NoError(t, c.SetMode(ctx, List))
	first := mgr.Current()
	require.NotNil(t, first)
	assert.False(t, first.Released())

	c.Scan(ctx)
	assert.Equal(t, int32(1), svc.graphCalls.Load(), "list mode scans do not fetch")

	require.NoError(t, c.SetMode(ctx, Graph))
	assert.Equal(t, int32(2), svc.graphCalls.Load())
	assert.True(t, first.Released())
	assert.Equal(t, 1, mgr.Live())

	st := c.Snapshot()
	require.NotNil(t, st.Graph)
	assert.True(t, st.Graph.Current)
	assert.Equal(t, SessionKey(st.Session), st.Graph.Key)
}

func TestScanInGraphModeRefreshesGraph(t *testing.T) {
	svc := &fakeService{devices: lan}
	c, mgr := newCoordinator(t, svc, WithMode(Graph))
	ctx := context.Background()

	c.Scan(ctx)
	c.Scan(ctx)
	assert.Equal(t, int32(2), svc.graphCalls.Load())
	assert.Equal(t, 1, mgr.Live())
	assert.Equal(t, "2", mgr.Current().Key())
}

func TestGraphForOlderScanLosingRaceIsNotAnError(t *testing.T) {
	svc := &fakeService{devices: lan, graphGates: []chan struct{}{make(chan struct{}), make(chan struct{})}}
	c, mgr := newCoordinator(t, svc)
	ctx := context.Background()
	c.Scan(ctx)

	entered := make(chan error, 1)
	go func() { entered <- c.SetMode(ctx, Graph) }()
	require.Eventually(t, func() bool { return svc.graphCalls.Load() == 1 }, time.Second, time.Millisecond)

	rescanned := make(chan scan.Session, 1)
	go func() { rescanned <- c.Scan(ctx) }()
	require.Eventually(t, func() bool { return svc.graphCalls.Load() == 2 }, time.Second, time.Millisecond)

	close(svc.graphGates[1])
	s := <-rescanned
	close(svc.graphGates[0])
	require.NoError(t, <-entered)

	st := c.Snapshot()
	require.NotNil(t, st.Graph)
	assert.Equal(t, SessionKey(s), st.Graph.Key)
	assert.True(t, st.Graph.Current)
	assert.Empty(t, st.GraphError)
	assert.Equal(t, 1, mgr.Live())
}

func TestScanAndGraphErrorsAreIndependent(t *testing.T) {
	svc := &fakeService{devices: lan, graphErr: &discovery.ServiceError{Op: discovery.OpGraph, Status: 500, Message: "render failed"}}
	c, _ := newCoordinator(t, svc)
	ctx := context.Background()

	c.Scan(ctx)
	assert.Error(t, c.SetMode(ctx, Graph))

	st := c.Snapshot()
	assert.Equal(t, scan.Success, st.Session.Status)
	assert.Empty(t, st.Session.ErrorMessage)
	assert.Equal(t, "render failed", st.GraphError)

	svc.scanErr = &discovery.ServiceError{Op: discovery.OpScan, Status: 500, Message: "scan timed out"}
	svc.graphErr = nil
	c.Scan(ctx)

	st = c.Snapshot()
	assert.Equal(t, "scan timed out", st.Session.ErrorMessage)
	assert.Equal(t, "render failed", st.GraphError, "a failed scan does not clear the graph error")
}

func TestDownloadSavesToStore(t *testing.T) {
	svc := &fakeService{devices: lan}
	dir := t.TempDir()
	store := storage.NewLocalStore(dir)
	c, _ := newCoordinator(t, svc, WithStore(store))
	ctx := context.Background()

	_, err := c.Download(ctx)
	assert.ErrorIs(t, err, ErrNothingToDownload)
	assert.False(t, c.Snapshot().CanDownload)

	c.Scan(ctx)
	assert.True(t, c.Snapshot().CanDownload)

	where, err := c.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Location("network-map-2026-10-18-21-05.png"), where)
	assert.Equal(t, where, c.Snapshot().LastSaved)

	data, err := store.Get(ctx, "network-map-2026-10-18-21-05.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestCloseReleasesGraph(t *testing.T) {
	svc := &fakeService{devices: lan}
	c, mgr := newCoordinator(t, svc)
	ctx := context.Background()

	c.Scan(ctx)
	require.NoError(t, c.SetMode(ctx, Graph))
	res := mgr.Current()
	require.NotNil(t, res)

	require.NoError(t, c.Close())
	assert.True(t, res.Released())
	assert.Equal(t, 0, mgr.Live())
	assert.Nil(t, c.Snapshot().Graph)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("graph")
	require.NoError(t, err)
	assert.Equal(t, Graph, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, List, m)

	_, err = ParseMode("tree")
	assert.Error(t, err)
	assert.Equal(t, "list", List.String())
	assert.Equal(t, "graph", Graph.String())
}
