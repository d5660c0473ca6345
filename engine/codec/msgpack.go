package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack"
)

// MessagePackPacker packs and unpacks in MessagePack format
type MessagePackPacker struct{}

// PackMsg packs msg to bytes in MessagePack format, appending to buf
func (mp MessagePackPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)

	encoder := msgpack.NewEncoder(buffer)
	err := encoder.Encode(msg)
	if err != nil {
		return buf, err
	}
	return buffer.Bytes(), nil
}

// UnpackMsg unpacks bytes in MessagePack format to msg
func (mp MessagePackPacker) UnpackMsg(data []byte, msg interface{}) error {
	return msgpack.Unmarshal(data, msg)
}
