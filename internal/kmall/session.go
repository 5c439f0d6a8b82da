package kmall

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/valschmidt/kmall/internal/common"
)

const (
	// resyncWindow bounds the forward scan after a malformed header.
	resyncWindow = 64 << 10
)

// Session is an open datagram file. The index is built lazily on first
// use and cached for the life of the session. Safe for concurrent use:
// record reads share one buffered window and are serialized on the
// session mutex, as is the index walk.
type Session struct {
	path string
	src  dataSource
	size int64

	mu      sync.Mutex
	index   *FileIndex
	metrics *common.Metrics
}

// Open opens a datagram file for indexed access.
func Open(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Session{
		path: path,
		src:  newBlockSource(f, stat.Size(), 0),
		size: stat.Size(),
	}, nil
}

func (s *Session) Close() error {
	return s.src.Close()
}

func (s *Session) Path() string { return s.path }

func (s *Session) Size() int64 { return s.size }

// SetMetrics attaches a counter set that the index walk updates.
func (s *Session) SetMetrics(m *common.Metrics) {
	s.mu.Lock()
	s.metrics = m
	s.mu.Unlock()
}

// Index returns the cached file index, building it on first call.
func (s *Session) Index() (*FileIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	idx, err := s.buildIndex()
	if err != nil {
		return nil, err
	}
	s.index = idx
	return idx, nil
}

// Rebuild discards the cached index and walks the file again. The cached
// index is replaced only when the new walk succeeds.
func (s *Session) Rebuild() (*FileIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.buildIndex()
	if err != nil {
		return nil, err
	}
	s.index = idx
	return idx, nil
}

// ReadRecord returns an owned copy of the complete record bytes at e.
func (s *Session) ReadRecord(e IndexEntry) ([]byte, error) {
	if e.Size < MinDgmSize || e.Offset < 0 || e.Offset+int64(e.Size) > s.size {
		return nil, fmt.Errorf("%w: record at offset %d size %d", ErrTruncatedRecord, e.Offset, e.Size)
	}
	return s.readCopy(e.Offset, int(e.Size))
}

// ReadRecordPrefix returns an owned copy of the first n bytes of the
// record at e, clamped to the record size.
func (s *Session) ReadRecordPrefix(e IndexEntry, n int) ([]byte, error) {
	if uint32(n) > e.Size {
		n = int(e.Size)
	}
	if e.Offset < 0 || e.Offset+int64(n) > s.size {
		return nil, fmt.Errorf("%w: record prefix at offset %d", ErrTruncatedRecord, e.Offset)
	}
	return s.readCopy(e.Offset, n)
}

// readCopy serializes access to the shared read window. The window is a
// single reused buffer, so concurrent reads at different offsets must
// not refill it under each other.
func (s *Session) readCopy(offset int64, n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, err := sliceExact(s.src, offset, n)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(view))
	copy(buf, view)
	return buf, nil
}

// Decode reads and decodes the record at e.
func (s *Session) Decode(e IndexEntry) (Datagram, error) {
	buf, err := s.ReadRecord(e)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// validTag reports whether the four bytes at the start of a header look
// like a datagram type: the marker followed by three tag characters.
func validTag(b []byte) bool {
	if len(b) < 4 || b[0] != '#' {
		return false
	}
	for _, c := range b[1:4] {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func (s *Session) buildIndex() (*FileIndex, error) {
	idx := &FileIndex{FileSize: s.size, Complete: true}
	if s.metrics != nil {
		s.metrics.SetTotalBytes(s.size)
	}
	offset := int64(0)
	for offset < s.size {
		if s.size-offset < HeaderSize {
			// Trailing bytes too short to hold a header.
			idx.Complete = false
			break
		}
		view, err := sliceExact(s.src, offset, HeaderSize)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				idx.Complete = false
				break
			}
			return nil, err
		}
		h, _ := ParseHeader(view)
		if !validTag(view[4:8]) || h.NumBytesDgm < MinDgmSize {
			idx.ErrorCount++
			next, found, err := s.resync(offset)
			if err != nil {
				return nil, err
			}
			if !found {
				idx.Complete = false
				break
			}
			common.Logf("resync at offset %d, resuming at %d", offset, next)
			if s.metrics != nil {
				s.metrics.IncResync()
				s.metrics.AddBytes(next - offset)
			}
			offset = next
			continue
		}
		if offset+int64(h.NumBytesDgm) > s.size {
			// Declared length runs past the end of file: truncated
			// final record.
			idx.Complete = false
			break
		}
		idx.Entries = append(idx.Entries, IndexEntry{
			Time:   h.Time(),
			Offset: offset,
			Size:   h.NumBytesDgm,
			Tag:    h.Tag(),
		})
		if s.metrics != nil {
			s.metrics.AddDatagram(int64(h.NumBytesDgm))
		}
		offset += int64(h.NumBytesDgm)
	}
	return idx, nil
}

// resync scans forward from a malformed region for the next plausible
// record start. The datagram length precedes the tag, so a marker match
// at p puts the record at p-4. Returns found=false when no candidate
// exists before EOF or the window end.
func (s *Session) resync(offset int64) (int64, bool, error) {
	start := offset + 1
	for start < s.size {
		limit := start + resyncWindow
		if limit > s.size {
			limit = s.size
		}
		window := int(limit - start)
		if window < 8 {
			return 0, false, nil
		}
		buf := make([]byte, window)
		n, err := s.src.ReadAt(buf, start)
		if n < 8 {
			if err != nil && !errors.Is(err, io.EOF) {
				return 0, false, err
			}
			return 0, false, nil
		}
		for i := 0; i+4 <= n; i++ {
			if !validTag(buf[i : i+4]) {
				continue
			}
			candidate := start + int64(i) - 4
			if candidate <= offset {
				continue
			}
			return candidate, true, nil
		}
		if limit >= s.size {
			return 0, false, nil
		}
		// Keep up to three bytes of overlap so a tag split across the
		// window boundary is still found.
		start = limit - 3
	}
	return 0, false, nil
}
