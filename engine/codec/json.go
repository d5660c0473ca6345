package codec

import (
	"bytes"
	"encoding/json"
)

// JSONPacker packs and unpacks in JSON format. Useful for inspecting stored
// snapshots by hand.
type JSONPacker struct{}

// PackMsg packs msg to bytes of JSON format, appending to buf
func (jp JSONPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)
	encoder := json.NewEncoder(buffer)
	err := encoder.Encode(msg)
	if err != nil {
		return buf, err
	}
	b := buffer.Bytes()
	return b[:len(b)-1], nil // encoder always puts '\n' at the end, trim it
}

// UnpackMsg unpacks bytes of JSON format to msg
func (jp JSONPacker) UnpackMsg(data []byte, msg interface{}) error {
	return json.Unmarshal(data, msg)
}
