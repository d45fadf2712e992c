package pipewire

import (
	"context"
	"encoding/json"
	"sync"
)

// MockNode describes one Audio/Sink node served by Mock.
type MockNode struct {
	ID          int
	NodeName    string
	Description string
	API         string
	Address     string
}

type pendingNode struct {
	after int
	node  MockNode
}

// Mock is an in-memory Backend that renders its nodes as pw-dump JSON, so the
// real parser runs against it.
type Mock struct {
	mu          sync.Mutex
	nodes       []MockNode
	defaultName string
	pending     []pendingNode
	dumps       int
	setCalls    []int
	failErr     error
}

// NewMock creates a mock with the given sinks and no default.
func NewMock(nodes ...MockNode) *Mock {
	return &Mock{nodes: append([]MockNode(nil), nodes...)}
}

// SetDefaultName records node name as the default sink.
func (m *Mock) SetDefaultName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = name
}

// SetFail makes Dump return err (nil clears it).
func (m *Mock) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// AddNode makes a sink appear after the given number of further dumps, the
// way a Bluetooth sink shows up a while after the device connects.
func (m *Mock) AddNode(afterDumps int, n MockNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if afterDumps <= 0 {
		m.nodes = append(m.nodes, n)
		return
	}
	m.pending = append(m.pending, pendingNode{after: afterDumps, node: n})
}

// RemoveNode drops the sink with the given id.
func (m *Mock) RemoveNode(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.nodes {
		if n.ID == id {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return
		}
	}
}

// Dumps returns how many times Dump was called.
func (m *Mock) Dumps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dumps
}

// SetDefaultCalls returns the ids passed to SetDefault.
func (m *Mock) SetDefaultCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.setCalls...)
}

func (m *Mock) Dump(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.dumps++

	kept := m.pending[:0]
	for _, p := range m.pending {
		p.after--
		if p.after <= 0 {
			m.nodes = append(m.nodes, p.node)
			continue
		}
		kept = append(kept, p)
	}
	m.pending = kept

	objects := []map[string]any{{
		"id":   0,
		"type": "PipeWire:Interface:Core",
		"info": map[string]any{"props": map[string]any{"core.name": "pipewire-0"}},
	}}
	if m.defaultName != "" {
		objects = append(objects, map[string]any{
			"id":    1,
			"type":  TypeMetadata,
			"props": map[string]any{"metadata.name": MetadataDefault},
			"metadata": []map[string]any{{
				"subject": 0,
				"key":     KeyDefaultSink,
				"type":    "Spa:String:JSON",
				"value":   map[string]any{"name": m.defaultName},
			}},
		})
	}
	for _, n := range m.nodes {
		props := map[string]any{
			propMediaClass:  MediaClassSink,
			propNodeName:    n.NodeName,
			propDescription: n.Description,
			"object.id":     n.ID,
		}
		if n.API != "" {
			props[propDeviceAPI] = n.API
		}
		if n.Address != "" {
			props[propBluez5Address] = n.Address
		}
		objects = append(objects, map[string]any{
			"id":   n.ID,
			"type": TypeNode,
			"info": map[string]any{"props": props},
		})
	}
	return json.Marshal(objects)
}

func (m *Mock) SetDefault(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, id)
	for _, n := range m.nodes {
		if n.ID == id {
			m.defaultName = n.NodeName
		}
	}
	return ctx.Err()
}

var _ Backend = (*Mock)(nil)
