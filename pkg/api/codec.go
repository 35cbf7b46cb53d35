package api

import (
	"encoding/json"
)

// JSONCodec is the Connect codec for the plain Go messages in this package.
// It replaces Connect's default "json" codec, which only accepts protobuf
// messages. Decimal fields travel as JSON strings.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
