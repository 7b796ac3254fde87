package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// IDLength is the length of an id produced by GenerateID.
const IDLength = 24

var (
	// processTag is drawn once so ids from one process share bytes 4..8
	// and differ only in time and counter.
	processTag [5]byte
	idCounter  atomic.Uint32
)

func init() {
	if _, err := rand.Read(processTag[:]); err != nil {
		binary.BigEndian.PutUint32(processTag[:4], uint32(time.Now().UnixNano()))
	}
	var seed [4]byte
	_, _ = rand.Read(seed[:])
	idCounter.Store(binary.BigEndian.Uint32(seed[:]))
}

// GenerateID returns an ObjectID-style id: 4 bytes of Unix time, 5 bytes of
// process tag and a 3-byte counter, hex encoded. Ids sort by creation second
// and are used for messages and per-turn debug directories.
func GenerateID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	copy(b[4:9], processTag[:])
	c := idCounter.Add(1) & 0xFFFFFF
	b[9] = byte(c >> 16)
	b[10] = byte(c >> 8)
	b[11] = byte(c)
	return hex.EncodeToString(b[:])
}

// IDTime extracts the creation time encoded in an id from GenerateID.
func IDTime(id string) (time.Time, error) {
	if len(id) != IDLength {
		return time.Time{}, fmt.Errorf("invalid id length %d", len(id))
	}
	b, err := hex.DecodeString(id[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return time.Unix(int64(binary.BigEndian.Uint32(b)), 0), nil
}
