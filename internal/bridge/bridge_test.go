package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/govee-ble-bridge/internal/device"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/config"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/govee-ble-bridge/internal/protocol"
)

// publishRecord captures one fake publish.
type publishRecord struct {
	topic    string
	payload  []byte
	retained bool
}

// fakeMQTT records publishes and subscriptions.
type fakeMQTT struct {
	mu            sync.Mutex
	published     []publishRecord
	subscriptions map[string]mqtt.MessageHandler
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{subscriptions: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeMQTT) PublishDefault(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishRecord{topic, payload, false})
	return nil
}

func (f *fakeMQTT) PublishRetained(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishRecord{topic, payload, true})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[topic] = handler
	return nil
}

func (f *fakeMQTT) records() []publishRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishRecord(nil), f.published...)
}

// sentTransaction captures one fake BLE transaction, including whether the
// caller's context was already dead when the write started.
type sentTransaction struct {
	address string
	frames  [][]byte
	ctxErr  error
}

// fakeTransport records transactions and can fail selected addresses.
type fakeTransport struct {
	mu   sync.Mutex
	fail map[string]error
	sent []sentTransaction
}

func (f *fakeTransport) SendFrames(ctx context.Context, address string, frames [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[address]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentTransaction{address, frames, ctx.Err()})
	return nil
}

func (f *fakeTransport) transactions() []sentTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentTransaction(nil), f.sent...)
}

// fakeDiscovery counts pause/resume calls.
type fakeDiscovery struct {
	mu      sync.Mutex
	pauses  int
	resumes int
}

func (f *fakeDiscovery) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeDiscovery) Resume(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
}

func (f *fakeDiscovery) counts() (pauses, resumes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses, f.resumes
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Gateway.ID = "default"
	cfg.Gateway.RootTopic = "govee_ble"
	cfg.Gateway.HomeAssistantPrefix = "homeassistant"
	cfg.MQTT.QoS = 1
	cfg.BLE.DrainDelay = 10 * time.Millisecond
	return cfg
}

type testBridge struct {
	bridge    *Bridge
	mqtt      *fakeMQTT
	transport *fakeTransport
	discovery *fakeDiscovery
	registry  *device.Registry
}

func newTestBridge(t *testing.T) *testBridge {
	t.Helper()

	cfg := testConfig()
	m := newFakeMQTT()
	tr := &fakeTransport{fail: make(map[string]error)}
	d := &fakeDiscovery{}
	reg := device.NewRegistry()

	b, err := New(Options{
		Config:     cfg,
		MQTTClient: m,
		Topics:     mqtt.Topics{Root: cfg.Gateway.RootTopic, GatewayID: cfg.Gateway.ID},
		Transport:  tr,
		Discovery:  d,
		Registry:   reg,
		Encoder:    protocol.NewEncoder(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(b.Stop)

	return &testBridge{bridge: b, mqtt: m, transport: tr, discovery: d, registry: reg}
}

// waitFor polls until the condition holds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBridge_StartSubscribesToCommands(t *testing.T) {
	tb := newTestBridge(t)

	if err := tb.bridge.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if _, ok := tb.mqtt.subscriptions["govee_ble/+/command/+"]; !ok {
		t.Errorf("missing command subscription, have %v", tb.mqtt.subscriptions)
	}
}

func TestBridge_CoalescesCommandsIntoOneTransaction(t *testing.T) {
	tb := newTestBridge(t)
	tb.registry.Upsert("A4:C1:38:5B:12:EF", "ihoment_H7020_A1B2", nil)

	topic := "govee_ble/0xA4C1385B12EF/command/json"
	if err := tb.bridge.handleCommand(topic, []byte(`{"brightness":10}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}
	if err := tb.bridge.handleCommand(topic, []byte(`{"brightness":20}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}

	waitFor(t, func() bool { return len(tb.transport.transactions()) == 1 })

	txns := tb.transport.transactions()
	if txns[0].address != "A4:C1:38:5B:12:EF" {
		t.Errorf("transaction address = %q", txns[0].address)
	}
	if len(txns[0].frames) != 2 {
		t.Fatalf("transaction has %d frames, want 2", len(txns[0].frames))
	}

	// Both brightness frames present, in arrival order, not merged.
	if txns[0].frames[0][2] != 10 || txns[0].frames[1][2] != 20 {
		t.Errorf("frame payloads = %d, %d; want 10, 20",
			txns[0].frames[0][2], txns[0].frames[1][2])
	}

	pauses, resumes := tb.discovery.counts()
	if pauses != 1 || resumes != 1 {
		t.Errorf("pauses=%d resumes=%d, want 1/1", pauses, resumes)
	}
}

func TestBridge_TransportFailureIsolation(t *testing.T) {
	tb := newTestBridge(t)
	tb.registry.Upsert("AA:BB:CC:DD:EE:01", "ihoment_H7020_A1B2", nil)
	tb.registry.Upsert("AA:BB:CC:DD:EE:02", "ihoment_H7020_C3D4", nil)
	tb.transport.fail["AA:BB:CC:DD:EE:01"] = context.DeadlineExceeded

	if err := tb.bridge.handleCommand("govee_ble/0xAABBCCDDEE01/command/json", []byte(`{"state":"ON"}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}
	if err := tb.bridge.handleCommand("govee_ble/0xAABBCCDDEE02/command/json", []byte(`{"state":"ON"}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}

	// The failing device does not block the healthy one.
	waitFor(t, func() bool { return len(tb.transport.transactions()) == 1 })
	if got := tb.transport.transactions()[0].address; got != "AA:BB:CC:DD:EE:02" {
		t.Errorf("surviving transaction address = %q, want AA:BB:CC:DD:EE:02", got)
	}

	// Scanning resumes exactly once even with a failed transaction.
	waitFor(t, func() bool {
		_, resumes := tb.discovery.counts()
		return resumes == 1
	})
	pauses, resumes := tb.discovery.counts()
	if pauses != 1 || resumes != 1 {
		t.Errorf("pauses=%d resumes=%d, want 1/1", pauses, resumes)
	}
}

func TestBridge_DropsCommandsForUnknownDevices(t *testing.T) {
	tb := newTestBridge(t)

	err := tb.bridge.handleCommand("govee_ble/0xDEADBEEF0000/command/json", []byte(`{"state":"ON"}`))
	if err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}

	if tb.bridge.queue.Len() != 0 {
		t.Error("unknown device command was queued")
	}
	time.Sleep(30 * time.Millisecond)
	if len(tb.transport.transactions()) != 0 {
		t.Error("unknown device command reached the transport")
	}
}

func TestBridge_RejectsMalformedTopics(t *testing.T) {
	tb := newTestBridge(t)

	if err := tb.bridge.handleCommand("govee_ble/oops", []byte(`{}`)); err == nil {
		t.Error("handleCommand() with malformed topic returned nil error")
	}
}

func TestBridge_EncodingFailureDropsOnlyThatCommand(t *testing.T) {
	tb := newTestBridge(t)
	tb.registry.Upsert("A4:C1:38:5B:12:EF", "ihoment_H7020_A1B2", nil)

	topic := "govee_ble/0xA4C1385B12EF/command/json"
	if err := tb.bridge.handleCommand(topic, []byte(`{"state":`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}
	if err := tb.bridge.handleCommand(topic, []byte(`{"state":"ON"}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}

	waitFor(t, func() bool { return len(tb.transport.transactions()) == 1 })
	if got := len(tb.transport.transactions()[0].frames); got != 1 {
		t.Errorf("transaction has %d frames, want 1 (malformed command dropped)", got)
	}
}

func TestBridge_StopDrainsBufferedCommands(t *testing.T) {
	tb := newTestBridge(t)
	// Long delay so only Stop can trigger the drain.
	tb.bridge.cfg.BLE.DrainDelay = time.Minute
	tb.registry.Upsert("A4:C1:38:5B:12:EF", "ihoment_H7020_A1B2", nil)

	topic := "govee_ble/0xA4C1385B12EF/command/json"
	if err := tb.bridge.handleCommand(topic, []byte(`{"state":"ON"}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}

	tb.bridge.Stop()

	txns := tb.transport.transactions()
	if len(txns) != 1 {
		t.Fatalf("got %d transactions after Stop, want 1", len(txns))
	}
	if txns[0].ctxErr != nil {
		t.Errorf("shutdown drain transmitted with dead context: %v", txns[0].ctxErr)
	}
	if tb.bridge.queue.Len() != 0 {
		t.Error("queue not empty after Stop")
	}
}

func TestBridge_NoDrainScheduledAfterStop(t *testing.T) {
	tb := newTestBridge(t)
	tb.registry.Upsert("A4:C1:38:5B:12:EF", "ihoment_H7020_A1B2", nil)

	tb.bridge.Stop()

	topic := "govee_ble/0xA4C1385B12EF/command/json"
	if err := tb.bridge.handleCommand(topic, []byte(`{"state":"ON"}`)); err != nil {
		t.Fatalf("handleCommand() error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if got := len(tb.transport.transactions()); got != 0 {
		t.Errorf("got %d transactions after Stop, want 0", got)
	}
}
