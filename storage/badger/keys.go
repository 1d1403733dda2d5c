package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/lostfound/core"
)

// Key prefixes for different data types
const (
	itemPrefix       = "item:"
	itemDatePrefix   = "itemd:"
	itemTypePrefix   = "itemt:"
	itemIDSeq        = "itemseq"
	userPrefix       = "user:"
	reportPrefix     = "report:"
	reportDatePrefix = "reportd:"
	checkpointPrefix = "chkpt:"
)

// makeItemKey generates a key for an item by ID.
// IDs are written BigEndian so forward iteration visits items in ID order.
func makeItemKey(id core.ID) []byte {
	buf := make([]byte, len(itemPrefix)+8)
	offset := copy(buf, itemPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeItemDateKey generates a composite key for the insertion date index.
// Format: prefix:timestamp:id
func makeItemDateKey(timestamp time.Time, id core.ID) []byte {
	buf := make([]byte, len(itemDatePrefix)+16)
	offset := copy(buf, itemDatePrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeItemTypePrefix generates the key prefix for one item type's date index.
// Format: prefix:type:
func makeItemTypePrefix(itemType core.ItemType) []byte {
	return []byte(itemTypePrefix + string(itemType) + ":")
}

// makeItemTypeKey generates a composite key for the per-type date index.
// Format: prefix:type:timestamp:id
func makeItemTypeKey(itemType core.ItemType, timestamp time.Time, id core.ID) []byte {
	prefix := makeItemTypePrefix(itemType)
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeUserKey generates a key for a user by ID.
func makeUserKey(id core.ID) []byte {
	buf := make([]byte, len(userPrefix)+8)
	offset := copy(buf, userPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeReportKey generates a key for a report by ID.
func makeReportKey(id core.ID) []byte {
	buf := make([]byte, len(reportPrefix)+8)
	offset := copy(buf, reportPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeReportDateKey generates a composite key for the report date index.
// Format: prefix:timestamp:id
func makeReportDateKey(timestamp time.Time, id core.ID) []byte {
	buf := make([]byte, len(reportDatePrefix)+16)
	offset := copy(buf, reportDatePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(checkpointPrefix + processorType)
}

// seekLast returns a key that sorts after every key starting with prefix.
// Used as the starting point for reverse iteration.
func seekLast(prefix []byte) []byte {
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	for i := offset; i < len(buf); i++ {
		buf[i] = 0xff
	}
	return buf
}
