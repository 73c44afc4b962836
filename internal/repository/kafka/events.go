package kafka

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/Hookery/internal/domain/events"
)

const EventHeader = "event"

var _ events.Sender = (*EventSender)(nil)

// EventSender encodes events as google.protobuf.Struct values of the form
// {"event": name, "payload": {...}}. The message key is payload[keyField]
// when present.
type EventSender struct {
	p        *Producer
	keyField string
}

func NewEventSender(p *Producer, keyField string) *EventSender {
	return &EventSender{p: p, keyField: keyField}
}

func (s *EventSender) Send(ctx context.Context, event string, payload map[string]any) error {
	msg, err := EncodeEvent(event, payload)
	if err != nil {
		return err
	}
	var key []byte
	if v, ok := payload[s.keyField]; ok {
		key = []byte(fmt.Sprint(v))
	}
	return s.p.PublishProto(ctx, key, msg, map[string]string{EventHeader: event})
}

func EncodeEvent(event string, payload map[string]any) (*structpb.Struct, error) {
	body, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"event":   structpb.NewStringValue(event),
		"payload": structpb.NewStructValue(body),
	}}, nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(m *structpb.Struct) (string, map[string]any, error) {
	ev, ok := m.GetFields()["event"]
	if !ok {
		return "", nil, fmt.Errorf("decode event: missing name")
	}
	body := m.GetFields()["payload"].GetStructValue()
	return ev.GetStringValue(), body.AsMap(), nil
}
