package codec

// Packer packs and unpacks snapshots and replication payloads
type Packer interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
}

var (
	// MSG_PACKER is the packer used for stored snapshots and replication
	MSG_PACKER Packer = MessagePackPacker{}
)
