package uuid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

const (
	// UUID_LENGTH is length of a UUID
	UUID_LENGTH = 16
	encodeUUID  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_."
)

var (
	// _UUIDEncoding is encoding for UUID
	_UUIDEncoding = base64.NewEncoding(encodeUUID).WithPadding(base64.NoPadding)
)

// GenUUID generates a new unique id.
//
// The id is composed of unix timestamp, machine id, pid and an incrementing
// counter, so ids are unique within and across processes and are never reused
// during a process lifetime.
func GenUUID() string {
	var b = make([]byte, 12)
	// Timestamp, 4 bytes, big endian
	binary.BigEndian.PutUint32(b[:], uint32(time.Now().Unix()))
	// Machine, first 3 bytes of md5(hostname)
	b[4] = machineId[0]
	b[5] = machineId[1]
	b[6] = machineId[2]
	// Pid, 2 bytes, big endian
	pid := os.Getpid()
	b[7] = byte(pid >> 8)
	b[8] = byte(pid)
	// Increment, 3 bytes, big endian
	i := atomic.AddUint32(&idCounter, 1)
	b[9] = byte(i >> 16)
	b[10] = byte(i >> 8)
	b[11] = byte(i)

	return _UUIDEncoding.EncodeToString(b)
}

// GenFixedUUID converts arbitrary bytes to a UUID of the fixed length
func GenFixedUUID(b []byte) string {
	bl := len(b)
	if bl > 12 {
		b = b[:12]
	} else if bl < 12 {
		nb := make([]byte, 12)
		copy(nb[12-bl:], b)
		b = nb
	}

	return _UUIDEncoding.EncodeToString(b)
}

// idCounter is atomically incremented when generating a new id
var idCounter uint32

// machineId stores machine id generated once and used in subsequent calls
var machineId = readMachineId()

// readMachineId generates the machine id from the hostname, falling back to
// random bytes when the hostname is unavailable.
func readMachineId() []byte {
	var sum [3]byte
	id := sum[:]
	hostname, err1 := os.Hostname()
	if err1 != nil {
		_, err2 := io.ReadFull(rand.Reader, id)
		if err2 != nil {
			panic(fmt.Errorf("cannot get hostname: %v; %v", err1, err2))
		}
		return id
	}
	hw := md5.New()
	hw.Write([]byte(hostname))
	copy(id, hw.Sum(nil))
	return id
}
