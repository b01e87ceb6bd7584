package board

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint summarizes the layout-relevant fields of a snapshot: list ids,
// titles and positions, and the ordered card ids of each list. Snapshots that
// differ only in other fields share a fingerprint.
type Fingerprint uint64

// String renders the fingerprint as hex.
func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 16)
}

// ComputeFingerprint hashes the layout of s. Variable-length fields are
// length-prefixed so concatenations cannot collide.
func ComputeFingerprint(s Snapshot) Fingerprint {
	d := xxhash.New()
	buf := make([]byte, 0, 64)
	writeField := func(v string) {
		buf = strconv.AppendInt(buf[:0], int64(len(v)), 10)
		buf = append(buf, ':')
		buf = append(buf, v...)
		d.Write(buf)
	}
	writeInt := func(v int) {
		buf = strconv.AppendInt(buf[:0], int64(v), 10)
		buf = append(buf, ';')
		d.Write(buf)
	}

	writeInt(len(s.Lists))
	for _, l := range s.Lists {
		writeField(l.ID)
		writeField(l.Title)
		writeInt(l.Position)
		writeInt(len(l.Cards))
		for _, c := range l.Cards {
			writeField(c.ID)
		}
	}
	return Fingerprint(d.Sum64())
}
