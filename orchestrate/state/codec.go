package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec names.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
	CodecProto   = "proto"
)

// Codec converts a State to and from bytes for checkpoint storage. Secrets
// and the observer are never encoded; a decoded State reports to
// observability.NoOpObserver until a graph reattaches its own.
//
// Decoded data holds generic values: numbers come back as json.Number, a
// sized integer type or float64, and structs as map[string]any. Consumers
// that need typed values convert on read.
type Codec interface {
	Name() string
	Extension() string
	Marshal(state State) ([]byte, error)
	Unmarshal(data []byte) (State, error)
}

type snapshot struct {
	RunID          string         `json:"run_id" msgpack:"run_id"`
	CheckpointNode string         `json:"checkpoint_node" msgpack:"checkpoint_node"`
	Timestamp      time.Time      `json:"timestamp" msgpack:"timestamp"`
	Data           map[string]any `json:"data" msgpack:"data"`
}

func snapshotOf(s State) snapshot {
	return snapshot{
		RunID:          s.RunID,
		CheckpointNode: s.CheckpointNode,
		Timestamp:      s.Timestamp,
		Data:           s.Data,
	}
}

func (snap snapshot) restore() State {
	data := snap.Data
	if data == nil {
		data = make(map[string]any)
	}
	return State{
		Data:           data,
		Secrets:        make(map[string]any),
		Observer:       observability.NoOpObserver{},
		RunID:          snap.RunID,
		CheckpointNode: snap.CheckpointNode,
		Timestamp:      snap.Timestamp,
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string      { return CodecJSON }
func (jsonCodec) Extension() string { return ".json" }

func (jsonCodec) Marshal(s State) ([]byte, error) {
	return json.Marshal(snapshotOf(s))
}

// Unmarshal keeps numbers as json.Number so integers above 2^53 survive.
func (jsonCodec) Unmarshal(data []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return State{}, err
	}
	return snap.restore(), nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string      { return CodecMsgpack }
func (msgpackCodec) Extension() string { return ".msgpack" }

func (msgpackCodec) Marshal(s State) ([]byte, error) {
	snap := snapshotOf(s)
	return msgpack.Marshal(&snap)
}

func (msgpackCodec) Unmarshal(data []byte) (State, error) {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return State{}, err
	}
	return snap.restore(), nil
}

// protoCodec stores the snapshot as a google.protobuf.Struct. Struct numbers
// are float64, so Marshal fails on integers it cannot hold exactly.
type protoCodec struct{}

func (protoCodec) Name() string      { return CodecProto }
func (protoCodec) Extension() string { return ".pb" }

func (protoCodec) Marshal(s State) ([]byte, error) {
	st, err := ToStruct(s)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func (protoCodec) Unmarshal(data []byte) (State, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	return FromStruct(&st)
}

// MaxExactInt is the largest magnitude an integer can have and still be
// stored exactly in a float64, and so in a protobuf Struct.
const MaxExactInt = 1 << 53

// StructFields normalizes v through JSON into a map that structpb.NewStruct
// accepts. Integers beyond MaxExactInt are rejected rather than rounded.
func StructFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return map[string]any{}, nil
	}

	for k, val := range fields {
		n, err := exactNumbers(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		fields[k] = n
	}
	return fields, nil
}

func exactNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			if i > MaxExactInt || i < -MaxExactInt {
				return nil, fmt.Errorf("integer %d cannot be stored exactly as a float64", i)
			}
			return float64(i), nil
		}
		f, err := val.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number %s out of range", val)
		}
		return f, nil
	case map[string]any:
		for k, item := range val {
			n, err := exactNumbers(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			val[k] = n
		}
		return val, nil
	case []any:
		for i, item := range val {
			n, err := exactNumbers(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			val[i] = n
		}
		return val, nil
	default:
		return v, nil
	}
}

// ToStruct converts the persistent part of a State into a protobuf Struct
// with the fields run_id, checkpoint_node, timestamp (RFC 3339) and data.
func ToStruct(s State) (*structpb.Struct, error) {
	data, err := StructFields(s.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize state data: %w", err)
	}

	return structpb.NewStruct(map[string]any{
		"run_id":          s.RunID,
		"checkpoint_node": s.CheckpointNode,
		"timestamp":       s.Timestamp.Format(time.RFC3339Nano),
		"data":            data,
	})
}

// FromStruct reverses ToStruct.
func FromStruct(st *structpb.Struct) (State, error) {
	fields := st.AsMap()

	var snap snapshot
	snap.RunID, _ = fields["run_id"].(string)
	snap.CheckpointNode, _ = fields["checkpoint_node"].(string)

	if ts, ok := fields["timestamp"].(string); ok && ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return State{}, fmt.Errorf("invalid checkpoint timestamp: %w", err)
		}
		snap.Timestamp = parsed
	}

	switch data := fields["data"].(type) {
	case map[string]any:
		snap.Data = data
	case nil:
	default:
		return State{}, fmt.Errorf("invalid checkpoint data: %T", data)
	}

	return snap.restore(), nil
}

var (
	codecs = map[string]Codec{
		CodecJSON:    jsonCodec{},
		CodecMsgpack: msgpackCodec{},
		CodecProto:   protoCodec{},
	}
	codecMutex sync.RWMutex
)

// GetCodec returns the codec registered under name.
func GetCodec(name string) (Codec, error) {
	codecMutex.RLock()
	defer codecMutex.RUnlock()

	codec, exists := codecs[name]
	if !exists {
		return nil, fmt.Errorf("unknown checkpoint codec: %s", name)
	}
	return codec, nil
}

// RegisterCodec adds or replaces a codec under codec.Name().
func RegisterCodec(codec Codec) {
	codecMutex.Lock()
	defer codecMutex.Unlock()

	codecs[codec.Name()] = codec
}

// Codecs lists registered codec names in sorted order.
func Codecs() []string {
	codecMutex.RLock()
	defer codecMutex.RUnlock()

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
