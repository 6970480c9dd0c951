package magnet

import (
	"encoding/json"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Codec encodes Body arguments and decodes responses.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error

	// ContentType of encoded bodies.
	ContentType() string
}

// JSONCodec encodes values with encoding/json. Protobuf messages are
// encoded and decoded with protojson.
type JSONCodec struct{}

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

func (JSONCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if m := protoTarget(v); m != nil {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (JSONCodec) ContentType() string {
	return "application/json"
}

// protoTarget returns the message to decode into if v is a proto.Message
// or a pointer to a (possibly nil) message pointer, which is allocated.
func protoTarget(v any) proto.Message {
	if m, ok := v.(proto.Message); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Ptr || !elem.Type().Implements(protoMessageType) {
		return nil
	}
	if elem.IsNil() {
		elem.Set(reflect.New(elem.Type().Elem()))
	}
	return elem.Interface().(proto.Message)
}

// MsgpackCodec encodes values as MessagePack.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (MsgpackCodec) ContentType() string {
	return "application/msgpack"
}

var DefaultCodec Codec = JSONCodec{}
