// Package pipewire implements the sink catalog on top of the PipeWire object
// graph as printed by pw-dump, and sets the default sink through wpctl.
package pipewire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// pw-dump names used to locate sinks and the default sink.
const (
	TypeMetadata      = "PipeWire:Interface:Metadata"
	TypeNode          = "PipeWire:Interface:Node"
	MediaClassSink    = "Audio/Sink"
	MetadataDefault   = "default"
	KeyDefaultSink    = "default.audio.sink"
	propMediaClass    = "media.class"
	propDescription   = "node.description"
	propNodeName      = "node.name"
	propDeviceAPI     = "device.api"
	propBluez5Address = "api.bluez5.address"
	propMetadataName  = "metadata.name"
)

// Props is a pw-dump property bag. Values are kept raw until a typed accessor
// reads them, since PipeWire mixes strings, numbers and booleans.
type Props map[string]json.RawMessage

// String returns the string value of key. ok is false when the key is absent;
// err is set when it is present with a non-string value.
func (p Props) String(key string) (s string, ok bool, err error) {
	raw, present := p[key]
	if !present || string(raw) == "null" {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fmt.Errorf("prop %s: %w", key, err)
	}
	return s, true, nil
}

// Object is one entry of the pw-dump array. Only the fields pwsink reads are
// declared.
type Object struct {
	ID       *int            `json:"id"`
	Type     string          `json:"type"`
	Info     *ObjectInfo     `json:"info"`
	Props    Props           `json:"props"`
	Metadata []MetadataEntry `json:"metadata"`
}

// ObjectInfo holds the info block of nodes, devices and the like.
type ObjectInfo struct {
	Props Props `json:"props"`
}

// MetadataEntry is one key of a metadata object.
type MetadataEntry struct {
	Subject int             `json:"subject"`
	Key     string          `json:"key"`
	Type    string          `json:"type"`
	Value   json.RawMessage `json:"value"`
}

// Graph is the validated result of parsing a dump.
type Graph struct {
	// DefaultSinkName is the node.name of the default sink, "" when the audio
	// server has none recorded.
	DefaultSinkName string
	Sinks           []models.Sink
}

// ParseDump decodes pw-dump output into typed sink records. At most one sink
// is marked default. Missing optional
// data (no default metadata, no device.api) is not an error; malformed JSON or
// a sink without id or description is a models.ErrParse.
func ParseDump(data []byte) (Graph, error) {
	var objects []Object
	if err := json.Unmarshal(data, &objects); err != nil {
		return Graph{}, models.ParseError("pw-dump output is not a JSON object array", err)
	}

	g := Graph{
		DefaultSinkName: defaultSinkName(objects),
		Sinks:           make([]models.Sink, 0),
	}
	hasDefault := false
	for i, obj := range objects {
		if obj.Info == nil {
			continue
		}
		props := obj.Info.Props
		class, _, err := props.String(propMediaClass)
		if err != nil || class != MediaClassSink {
			continue
		}
		sink, err := sinkFromObject(obj, g.DefaultSinkName)
		if err != nil {
			return Graph{}, models.ParseError(fmt.Sprintf("pw-dump object %d", i), err)
		}
		// node.name is not unique; only the first node carrying the default
		// name is the default.
		if sink.Default {
			if hasDefault {
				sink.Default = false
			}
			hasDefault = true
		}
		g.Sinks = append(g.Sinks, sink)
	}
	return g, nil
}

func sinkFromObject(obj Object, defaultName string) (models.Sink, error) {
	if obj.ID == nil {
		return models.Sink{}, fmt.Errorf("audio sink without id")
	}
	props := obj.Info.Props

	desc, ok, err := props.String(propDescription)
	if err != nil {
		return models.Sink{}, err
	}
	if !ok {
		return models.Sink{}, fmt.Errorf("sink %d: missing %s", *obj.ID, propDescription)
	}
	api, _, err := props.String(propDeviceAPI)
	if err != nil {
		return models.Sink{}, err
	}
	var address string
	if strings.HasPrefix(api, models.BluezAPIPrefix) {
		if address, _, err = props.String(propBluez5Address); err != nil {
			return models.Sink{}, err
		}
	}
	nodeName, hasName, err := props.String(propNodeName)
	if err != nil {
		return models.Sink{}, err
	}

	return models.Sink{
		ID:      *obj.ID,
		Name:    desc,
		API:     api,
		Address: address,
		Default: hasName && defaultName != "" && nodeName == defaultName,
	}, nil
}

// defaultSinkName follows the "default" metadata object to its
// default.audio.sink entry. Any missing step means no default is recorded.
func defaultSinkName(objects []Object) string {
	for _, obj := range objects {
		if obj.Type != TypeMetadata {
			continue
		}
		if name, _, _ := obj.Props.String(propMetadataName); name != MetadataDefault {
			continue
		}
		for _, m := range obj.Metadata {
			if m.Key != KeyDefaultSink {
				continue
			}
			var v struct {
				Name *string `json:"name"`
			}
			if err := json.Unmarshal(m.Value, &v); err != nil || v.Name == nil {
				return ""
			}
			return *v.Name
		}
		return ""
	}
	return ""
}
