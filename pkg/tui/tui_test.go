package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/discovery"
	"github.com/DrSkyle/netmapper/pkg/graphres"
	"github.com/DrSkyle/netmapper/pkg/scan"
	"github.com/DrSkyle/netmapper/pkg/storage"
	"github.com/DrSkyle/netmapper/pkg/view"
)

type fakeService struct {
	devices    []discovery.Device
	scanErr    error
	graphCalls atomic.Int32
}

func (f *fakeService) Scan(ctx context.Context) ([]discovery.Device, error) {
	return f.devices, f.scanErr
}

func (f *fakeService) Graph(ctx context.Context) (*discovery.Image, error) {
	f.graphCalls.Add(1)
	return &discovery.Image{Data: []byte("PNG!"), ContentType: "image/png"}, nil
}

var lan = []discovery.Device{
	{IP: "192.168.1.1", MAC: "AA:BB:CC:00:11:22", Type: "router", Vendor: "Acme"},
	{IP: "192.168.1.20", MAC: "AA:BB:CC:00:11:33", Type: "laptop"},
}

func newTestModel(t *testing.T, svc *fakeService) (Model, *config.Preferences, string) {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 10, 18, 21, 5, 0, 0, time.Local) }
	dir := t.TempDir()

	ctrl := scan.NewController(svc, scan.WithClock(clock))
	mgr := graphres.NewManager(svc, graphres.WithClock(clock))
	coord := view.New(ctrl, mgr, view.WithStore(storage.NewLocalStore(dir)))
	t.Cleanup(func() { _ = coord.Close() })

	prefs := config.NewPreferences(config.Light, nil)
	return NewModel(context.Background(), coord, prefs), prefs, dir
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, k string) (Model, tea.Cmd) {
	updated, cmd := m.Update(keyMsg(k))
	return updated.(Model), cmd
}

// pressAndRun presses k and feeds the resulting command's message back in.
func pressAndRun(t *testing.T, m Model, k string) Model {
	t.Helper()
	m, cmd := press(m, k)
	if cmd == nil {
		t.Fatalf("Expected a command for key %q", k)
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func assertView(t *testing.T, name, view string, want, dontWant []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(view, w) {
			t.Errorf("[%s] FAIL: Expected view to contain '%s'.\nGot:\n%s", name, w, view)
		}
	}
	for _, dw := range dontWant {
		if strings.Contains(view, dw) {
			t.Errorf("[%s] FAIL: Expected view NOT to contain '%s'.\nGot:\n%s", name, dw, view)
		}
	}
}

func TestTUI_ScanOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		svc      *fakeService
		want     []string
		dontWant []string
	}{
		{
			name: "devices listed with last scan time",
			svc:  &fakeService{devices: lan},
			want: []string{"192.168.1.1", "192.168.1.20", "Acme", "laptop", "2 DEVICES", "Last scan: 2026-10-18 21:05:00"},
		},
		{
			name:     "service error message shown",
			svc:      &fakeService{scanErr: &discovery.ServiceError{Op: discovery.OpScan, Status: 500, Message: "nmap not installed"}},
			want:     []string{"ERROR", "nmap not installed"},
			dontWant: []string{"DEVICES"},
		},
		{
			name: "empty result is an error",
			svc:  &fakeService{devices: []discovery.Device{}},
			want: []string{"ERROR", discovery.MsgNoDevices},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, _, _ := newTestModel(t, tc.svc)
			assertView(t, tc.name, m.View(), []string{"No scan yet"}, nil)

			m = pressAndRun(t, m, "s")
			assertView(t, tc.name, m.View(), tc.want, tc.dontWant)
		})
	}
}

func TestTUI_DetailsHideMissingVendor(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeService{devices: lan})
	m = pressAndRun(t, m, "s")

	m, _ = press(m, "enter")
	assertView(t, "router", m.View(), []string{"router : 192.168.1.1", "Vendor", "Acme"}, nil)

	m, _ = press(m, "enter")
	m, _ = press(m, "down")
	m, _ = press(m, "enter")
	assertView(t, "laptop", m.View(), []string{"laptop : 192.168.1.20", "MAC Address"}, []string{"Vendor"})
}

func TestTUI_GraphModeFetchesOnce(t *testing.T) {
	svc := &fakeService{devices: lan}
	m, _, _ := newTestModel(t, svc)

	m = pressAndRun(t, m, "tab")
	assertView(t, "no devices", m.View(), []string{"NETWORK MAP", "Run a scan"}, nil)
	if svc.graphCalls.Load() != 0 {
		t.Fatalf("Expected no graph request without devices, got %d", svc.graphCalls.Load())
	}

	m = pressAndRun(t, m, "s")
	assertView(t, "after scan", m.View(), []string{"scan #1", "4 bytes (image/png)", "Press d to save"}, nil)

	m = pressAndRun(t, m, "tab")
	m = pressAndRun(t, m, "tab")
	if got := svc.graphCalls.Load(); got != 1 {
		t.Errorf("Expected 1 graph request, got %d", got)
	}
}

func TestTUI_DownloadDisabledWithoutDevices(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeService{})
	m, cmd := press(m, "d")
	if cmd != nil {
		t.Fatal("Expected no download command without devices")
	}
	assertView(t, "download", m.View(), []string{"Nothing to download yet"}, nil)
}

func TestTUI_DownloadSavesFile(t *testing.T) {
	m, _, dir := newTestModel(t, &fakeService{devices: lan})
	m = pressAndRun(t, m, "s")
	m = pressAndRun(t, m, "d")

	assertView(t, "saved", m.View(), []string{"Saved network map to"}, nil)
	data, err := os.ReadFile(filepath.Join(dir, "network-map-2026-10-18-21-05.png"))
	if err != nil {
		t.Fatalf("Expected saved map: %v", err)
	}
	if string(data) != "PNG!" {
		t.Errorf("Unexpected map contents %q", data)
	}
}

func TestTUI_ThemeToggle(t *testing.T) {
	m, prefs, _ := newTestModel(t, &fakeService{})
	m, _ = press(m, "t")
	if prefs.Theme() != config.Dark {
		t.Fatalf("Expected dark theme, got %s", prefs.Theme())
	}
	assertView(t, "theme", m.View(), []string{"Theme: dark"}, nil)
}

func TestTUI_FilterInput(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeService{devices: lan})
	m = pressAndRun(t, m, "s")

	m, _ = press(m, "/")
	m, _ = press(m, `kind == "router"`)
	m, _ = press(m, "enter")

	assertView(t, "filtered", m.View(),
		[]string{"192.168.1.1", "1 of 2 devices shown", `[FILTER: kind == "router"]`},
		[]string{"192.168.1.20"})

	m, _ = press(m, "/")
	m, _ = press(m, "kind ==")
	m, _ = press(m, "enter")
	assertView(t, "bad filter", m.View(), []string{"filter compilation error"}, nil)
}

func TestTUI_RapidModeTogglesSettleOnLastChoice(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeService{devices: lan})
	m = pressAndRun(t, m, "s")

	m, toGraph := press(m, "tab")
	if toGraph == nil {
		t.Fatal("Expected a mode switch command")
	}
	m, second := press(m, "tab")
	if second != nil {
		t.Fatal("Expected the second toggle to wait for the first switch")
	}
	if m.state.Mode != view.List {
		t.Fatalf("Expected list shown after two toggles, got %s", m.state.Mode)
	}

	updated, followUp := m.Update(toGraph())
	m = updated.(Model)
	if followUp == nil {
		t.Fatal("Expected the pending toggle to be dispatched")
	}
	if m.state.Mode != view.List {
		t.Errorf("Expected list still shown while catching up, got %s", m.state.Mode)
	}

	updated, _ = m.Update(followUp())
	m = updated.(Model)
	if got := m.coord.Mode(); got != view.List {
		t.Errorf("Expected coordinator in list mode, got %s", got)
	}
	assertView(t, "settled", m.View(), []string{"192.168.1.20"}, []string{"NETWORK MAP"})
}

func TestTUI_SessionChangesRedraw(t *testing.T) {
	m, _, _ := newTestModel(t, &fakeService{devices: lan})
	sessions, cancel := m.coord.Subscribe()
	defer cancel()
	withSessions(sessions)(&m)

	m.coord.Scan(context.Background())

	// Scanning, then Success: drain until the committed session arrives.
	for i := 0; i < 2; i++ {
		msg := m.waitForSession()()
		if _, ok := msg.(sessionMsg); !ok {
			t.Fatalf("Expected a session message, got %T", msg)
		}
		updated, next := m.Update(msg)
		m = updated.(Model)
		if next == nil {
			t.Fatal("Expected the model to keep listening")
		}
		if m.state.Session.Status == scan.Success {
			break
		}
	}
	assertView(t, "pushed", m.View(), []string{"192.168.1.1", "2 DEVICES"}, nil)

	cancel()
	if msg := m.waitForSession()(); msg != nil {
		t.Errorf("Expected no message after unsubscribe, got %T", msg)
	}
}
