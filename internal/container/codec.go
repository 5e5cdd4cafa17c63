package container

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/louisbranch/palimpsest/internal/generator"
	"github.com/louisbranch/palimpsest/internal/narrative/checkpoint"
	"github.com/louisbranch/palimpsest/internal/narrative/event"
	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
	"github.com/louisbranch/palimpsest/internal/world"
)

// Wire records mirror the domain types with timestamps held as UnixNano so
// a decode reproduces the encoded container exactly, bit for bit.

type headerRecord struct {
	Version            string `json:"version"`
	CreatedAtNs        int64  `json:"created_at_ns"`
	Seed               uint64 `json:"seed"`
	FrameCount         uint64 `json:"frame_count"`
	EventCount         uint64 `json:"event_count"`
	CheckpointCount    uint64 `json:"checkpoint_count"`
	GeneratorCallCount uint64 `json:"generator_call_count"`
}

type eventRecord struct {
	Seq         uint64       `json:"seq"`
	Frame       uint64       `json:"frame"`
	Type        string       `json:"type"`
	Payload     []byte       `json:"payload,omitempty"`
	ActorID     string       `json:"actor_id,omitempty"`
	TimestampNs int64        `json:"timestamp_ns"`
	Snapshot    *world.State `json:"snapshot,omitempty"`
}

type checkpointRecord struct {
	Frame       uint64      `json:"frame"`
	TimestampNs int64       `json:"timestamp_ns"`
	State       world.State `json:"state"`
}

type containerRecord struct {
	Header         headerRecord       `json:"header"`
	InitialState   *world.State       `json:"initial_state"`
	Events         []eventRecord      `json:"events"`
	Checkpoints    []checkpointRecord `json:"checkpoints"`
	GeneratorCalls []generator.Call   `json:"generator_calls"`
}

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

// fromNanos reverses toNanos for persisted nanosecond timestamps.
func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

// Encode serializes and compresses the container. Encoding a structurally
// invalid container fails with the same coded errors Decode would raise.
func Encode(c Container) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	record := containerRecord{
		Header: headerRecord{
			Version:            c.Header.Version,
			CreatedAtNs:        toNanos(c.Header.CreatedAt),
			Seed:               c.Header.Seed,
			FrameCount:         c.Header.FrameCount,
			EventCount:         c.Header.EventCount,
			CheckpointCount:    c.Header.CheckpointCount,
			GeneratorCallCount: c.Header.GeneratorCallCount,
		},
		InitialState:   ptr(c.InitialState.Clone()),
		GeneratorCalls: c.GeneratorCalls,
	}
	if c.Events != nil {
		record.Events = make([]eventRecord, len(c.Events))
		for i, evt := range c.Events {
			record.Events[i] = eventRecord{
				Seq:         evt.Seq,
				Frame:       evt.Frame,
				Type:        string(evt.Type),
				Payload:     evt.Payload,
				ActorID:     evt.ActorID,
				TimestampNs: toNanos(evt.Timestamp),
				Snapshot:    evt.Snapshot,
			}
		}
	}
	if c.Checkpoints != nil {
		record.Checkpoints = make([]checkpointRecord, len(c.Checkpoints))
		for i, cp := range c.Checkpoints {
			record.Checkpoints[i] = checkpointRecord{
				Frame:       cp.Frame,
				TimestampNs: toNanos(cp.Timestamp),
				State:       cp.State,
			}
		}
	}

	plain, err := cbor.Marshal(record)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeContainerUnreadable, "encode container", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(plain, nil), nil
}

// Decode decompresses, parses, and validates the container. Any structural
// violation (undecodable bytes, an unsupported version, header counts that
// disagree with contents, a missing initial state) fails with a coded
// error naming the failed check, and no partially-constructed container is
// returned.
func Decode(data []byte) (Container, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return Container{}, fmt.Errorf("create zstd reader: %w", err)
	}
	defer decoder.Close()

	plain, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return Container{}, apperrors.Wrap(apperrors.CodeContainerUnreadable, "decompress container", err)
	}

	var record containerRecord
	if err := cbor.Unmarshal(plain, &record); err != nil {
		return Container{}, apperrors.Wrap(apperrors.CodeContainerUnreadable, "parse container", err)
	}

	if record.InitialState == nil {
		return Container{}, ErrMissingInitialState
	}

	c := Container{
		Header: Header{
			Version:            record.Header.Version,
			CreatedAt:          fromNanos(record.Header.CreatedAtNs),
			Seed:               record.Header.Seed,
			FrameCount:         record.Header.FrameCount,
			EventCount:         record.Header.EventCount,
			CheckpointCount:    record.Header.CheckpointCount,
			GeneratorCallCount: record.Header.GeneratorCallCount,
		},
		InitialState:   *record.InitialState,
		GeneratorCalls: record.GeneratorCalls,
	}
	if record.Events != nil {
		c.Events = make([]event.Event, len(record.Events))
		for i, rec := range record.Events {
			c.Events[i] = event.Event{
				Seq:       rec.Seq,
				Frame:     rec.Frame,
				Type:      event.Type(rec.Type),
				Payload:   rec.Payload,
				ActorID:   rec.ActorID,
				Timestamp: fromNanos(rec.TimestampNs),
				Snapshot:  rec.Snapshot,
			}
		}
	}
	if record.Checkpoints != nil {
		c.Checkpoints = make([]checkpoint.Checkpoint, len(record.Checkpoints))
		for i, rec := range record.Checkpoints {
			c.Checkpoints[i] = checkpoint.Checkpoint{
				Frame:     rec.Frame,
				Timestamp: fromNanos(rec.TimestampNs),
				State:     rec.State,
			}
		}
	}

	if err := c.validate(); err != nil {
		return Container{}, err
	}
	return c, nil
}

// IsValid reports whether the bytes decode into a structurally valid
// container, without surfacing the error. Callers that want the failed
// check use Decode directly.
func IsValid(data []byte) bool {
	_, err := Decode(data)
	return err == nil
}

func ptr[T any](value T) *T {
	return &value
}
