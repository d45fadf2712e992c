package pipewire

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micro-nova/pwsink-go/internal/models"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/pw-dump.json")
	require.NoError(t, err)
	return data
}

// ─── ParseDump ──────────────────────────────────────────────────────────────

func TestParseDump_Fixture(t *testing.T) {
	g, err := ParseDump(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "bluez_output.AA_BB_CC_DD_EE_FF.1", g.DefaultSinkName)
	assert.Equal(t, []models.Sink{
		{ID: 59, Name: "Built-in Audio Analog Stereo", API: "alsa"},
		{ID: 61, Name: "MyHeadset", API: "bluez5", Address: "AA:BB:CC:DD:EE:FF", Default: true},
		{ID: 75, Name: "Recording Sink", API: ""},
	}, g.Sinks)
}

func TestParseDump_AtMostOneDefault(t *testing.T) {
	meta := `{"id": 40, "type": "PipeWire:Interface:Metadata", "props": {"metadata.name": "default"},
		"metadata": [{"subject": 0, "key": "default.audio.sink", "value": {"name": "dup"}}]}`
	node := func(id int, name string) string {
		return fmt.Sprintf(`{"id": %d, "type": "PipeWire:Interface:Node", "info": {"props": {
			"media.class": "Audio/Sink", "node.description": "Sink %d", "node.name": %q, "device.api": "alsa"}}}`, id, id, name)
	}

	tests := []struct {
		name        string
		data        []byte
		wantDefault int // id of the default sink, 0 for none
	}{
		{"fixture", loadFixture(t), 61},
		{"duplicate default node.name", []byte("[" + meta + "," + node(59, "dup") + "," + node(60, "dup") + "]"), 59},
		{"duplicate after other sink", []byte("[" + meta + "," + node(58, "other") + "," + node(60, "dup") + "," + node(59, "dup") + "]"), 60},
		{"no node carries the default", []byte("[" + meta + "," + node(59, "a") + "," + node(60, "b") + "]"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseDump(tt.data)
			require.NoError(t, err)

			var defaults []int
			for _, s := range g.Sinks {
				if s.Default {
					defaults = append(defaults, s.ID)
				}
			}
			if tt.wantDefault == 0 {
				assert.Empty(t, defaults)
				return
			}
			assert.Equal(t, []int{tt.wantDefault}, defaults)
		})
	}
}

func TestParseDump_NoDefaultMetadata(t *testing.T) {
	data := []byte(`[
		{"id": 59, "type": "PipeWire:Interface:Node", "info": {"props": {
			"media.class": "Audio/Sink", "node.description": "Speakers", "node.name": "", "device.api": "alsa"}}}
	]`)
	g, err := ParseDump(data)
	require.NoError(t, err)
	assert.Empty(t, g.DefaultSinkName)
	require.Len(t, g.Sinks, 1)
	assert.False(t, g.Sinks[0].Default, "empty node.name must not match an absent default")
}

func TestParseDump_DefaultLookupSteps(t *testing.T) {
	tests := []struct {
		name string
		meta string
	}{
		{"no metadata array", `{"id": 40, "type": "PipeWire:Interface:Metadata", "props": {"metadata.name": "default"}}`},
		{"no sink key", `{"id": 40, "type": "PipeWire:Interface:Metadata", "props": {"metadata.name": "default"},
			"metadata": [{"subject": 0, "key": "default.audio.source", "value": {"name": "x"}}]}`},
		{"value without name", `{"id": 40, "type": "PipeWire:Interface:Metadata", "props": {"metadata.name": "default"},
			"metadata": [{"subject": 0, "key": "default.audio.sink", "value": {}}]}`},
		{"value not an object", `{"id": 40, "type": "PipeWire:Interface:Metadata", "props": {"metadata.name": "default"},
			"metadata": [{"subject": 0, "key": "default.audio.sink", "value": "speakers"}]}`},
		{"metadata object without props", `{"id": 40, "type": "PipeWire:Interface:Metadata"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseDump([]byte("[" + tt.meta + "]"))
			require.NoError(t, err)
			assert.Empty(t, g.DefaultSinkName)
		})
	}
}

func TestParseDump_BluezWithoutAddress(t *testing.T) {
	data := []byte(`[{"id": 7, "type": "PipeWire:Interface:Node", "info": {"props": {
		"media.class": "Audio/Sink", "node.description": "Buds", "device.api": "bluez5"}}}]`)
	g, err := ParseDump(data)
	require.NoError(t, err)
	require.Len(t, g.Sinks, 1)
	assert.Equal(t, "", g.Sinks[0].Address)
	assert.Equal(t, "bluez5", g.Sinks[0].API)
}

func TestParseDump_AddressIgnoredForNonBluez(t *testing.T) {
	data := []byte(`[{"id": 7, "type": "PipeWire:Interface:Node", "info": {"props": {
		"media.class": "Audio/Sink", "node.description": "USB", "device.api": "alsa", "api.bluez5.address": "AA:AA:AA:AA:AA:AA"}}}]`)
	g, err := ParseDump(data)
	require.NoError(t, err)
	require.Len(t, g.Sinks, 1)
	assert.Empty(t, g.Sinks[0].Address)
}

func TestParseDump_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `pw-dump: can't connect`},
		{"not an array", `{"id": 1}`},
		{"sink without description", `[{"id": 7, "type": "PipeWire:Interface:Node", "info": {"props": {"media.class": "Audio/Sink"}}}]`},
		{"sink without id", `[{"type": "PipeWire:Interface:Node", "info": {"props": {"media.class": "Audio/Sink", "node.description": "x"}}}]`},
		{"non-string description", `[{"id": 7, "type": "PipeWire:Interface:Node", "info": {"props": {"media.class": "Audio/Sink", "node.description": 12}}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDump([]byte(tt.data))
			assert.ErrorIs(t, err, models.ErrParse)
		})
	}
}

func TestParseDump_Empty(t *testing.T) {
	g, err := ParseDump([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, g.Sinks)
	assert.Empty(t, g.Sinks)
}

// ─── Match ──────────────────────────────────────────────────────────────────

func TestMatch(t *testing.T) {
	sinks := []models.Sink{
		{ID: 59, Name: "Built-in Audio Analog Stereo"},
		{ID: 61, Name: "MyHeadset", Default: true},
	}
	tests := []struct {
		label  string
		wantID int
		wantOK bool
	}{
		{"59", 59, true},
		{"61", 61, true},
		{"Headset", 61, true},
		{"Analog", 59, true},
		{"6", 0, false}, // ids match exactly, not by prefix
		{"ghost", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := Match(sinks, tt.label)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func TestCatalog_CLIBackend(t *testing.T) {
	r := &fakeRunner{out: loadFixture(t)}
	cat := NewCatalog(NewCLIBackend(r, nil), nil)

	def, err := cat.Default(context.Background())
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, 61, def.ID)

	require.NoError(t, cat.SetDefault(context.Background(), 59))
	assert.Equal(t, []string{"pw-dump", "wpctl set-default 59"}, r.calls)
}

func TestCatalog_DefaultNone(t *testing.T) {
	cat := NewCatalog(NewMock(MockNode{ID: 3, NodeName: "a", Description: "A"}), nil)
	def, err := cat.Default(context.Background())
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestCatalog_DumpErrorPropagates(t *testing.T) {
	mock := NewMock()
	mock.SetFail(models.ToolUnavailable("pw-dump", nil))
	_, err := NewCatalog(mock, nil).ListSinks(context.Background())
	assert.ErrorIs(t, err, models.ErrToolUnavailable)
}

func TestMock_SetDefaultAndPending(t *testing.T) {
	mock := NewMock(MockNode{ID: 59, NodeName: "alsa", Description: "Speakers", API: "alsa"})
	mock.AddNode(2, MockNode{ID: 61, NodeName: "bluez_output.x", Description: "MyHeadset", API: "bluez5", Address: "AA:BB:CC:DD:EE:FF"})
	cat := NewCatalog(mock, nil)

	sinks, err := cat.ListSinks(context.Background())
	require.NoError(t, err)
	assert.Len(t, sinks, 1)

	sinks, err = cat.ListSinks(context.Background())
	require.NoError(t, err)
	require.Len(t, sinks, 2)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", sinks[1].Address)

	require.NoError(t, cat.SetDefault(context.Background(), 61))
	def, err := cat.Default(context.Background())
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, 61, def.ID)
	assert.Equal(t, []int{61}, mock.SetDefaultCalls())
}

type fakeRunner struct {
	out   []byte
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := name
	for _, a := range args {
		call += " " + a
	}
	f.calls = append(f.calls, call)
	if name == pwDump {
		return f.out, nil
	}
	return nil, nil
}
