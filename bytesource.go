package bmff

import (
	"bufio"
	"encoding/binary"
	"io"
)

// ByteSource wraps an io.Reader with the big-endian accessors every typed
// reader needs, plus an optional seek-based skip for inputs that support it
// (a plain stdin pipe does not, so Skip degrades to read-and-discard).
//
// Grounded on the teacher's be := binary.BigEndian aliasing convention in
// reader.go/iter.go, restructured around io.Reader since this module has to
// support standard input, not just an in-memory buffer.
//
// A read that runs out of bytes mid-box (the source hit EOF before a
// declared field or body could be fully consumed) is reported as
// ErrShortRead — the stream itself is fine, the file is merely truncated or
// lying about a size/count. Any other I/O failure is ErrStream.
type ByteSource struct {
	raw    io.Reader
	r      *bufio.Reader
	seeker io.Seeker
	pos    uint64
	err    error
	boxType BoxType // type of the box currently being read, for error context
}

// setBoxType records which box's reader is currently active, so a
// mid-read failure can be reported as "short read in box X" rather than a
// bare offset.
func (s *ByteSource) setBoxType(t BoxType) { s.boxType = t }

// NewByteSource wraps r. If r also implements io.Seeker, Skip will seek
// instead of discarding bytes by reading them.
func NewByteSource(r io.Reader) *ByteSource {
	s := &ByteSource{raw: r, r: bufio.NewReaderSize(r, 64*1024)}
	if sk, ok := r.(io.Seeker); ok {
		s.seeker = sk
	}
	return s
}

// Tell returns the number of bytes consumed so far.
func (s *ByteSource) Tell() uint64 { return s.pos }

// Err returns the latched error, if any. Once set it is permanent.
func (s *ByteSource) Err() error { return s.err }

func (s *ByteSource) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// ReadBytes returns the next n bytes as an owned copy. On short read it
// returns as many bytes as were available along with a non-nil error.
func (s *ByteSource) ReadBytes(n uint64) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(s.r, buf)
	s.pos += uint64(got)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = wrapShortRead(s.boxType, s.pos, io.ErrUnexpectedEOF)
		} else {
			err = wrapStream(s.pos, err)
		}
		s.fail(err)
		return buf[:got], err
	}
	return buf, nil
}

func (s *ByteSource) ReadByte() (byte, error) {
	b, err := s.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *ByteSource) ReadBE16() (uint16, error) {
	b, err := s.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (s *ByteSource) ReadBE24() (uint32, error) {
	b, err := s.ReadBytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (s *ByteSource) ReadBE32() (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (s *ByteSource) ReadBE64() (uint64, error) {
	b, err := s.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Skip discards n bytes, seeking past them when possible.
func (s *ByteSource) Skip(n uint64) error {
	if n == 0 {
		return nil
	}
	if s.seeker != nil {
		buffered := uint64(s.r.Buffered())
		if n <= buffered {
			s.r.Discard(int(n))
			s.pos += n
			return nil
		}
		// the underlying position is already past the buffered lookahead
		if _, err := s.seeker.Seek(int64(n-buffered), io.SeekCurrent); err == nil {
			s.r.Reset(s.raw) // drop the lookahead that was just skipped over
			s.pos += n
			return nil
		}
		// fall through to discard on seek failure (e.g. pipe masquerading as Seeker)
	}
	_, err := s.ReadBytes(n)
	return err
}

// ReadUpTo reads the body of a box that ends at the given absolute
// position, or to true end-of-stream when end is sizeToEOF (a size==0 box
// at the outermost level).
func (s *ByteSource) ReadUpTo(end uint64) ([]byte, error) {
	if end == sizeToEOF {
		return s.readAll()
	}
	if end < s.pos {
		return nil, wrapShortRead(s.boxType, s.pos, io.ErrUnexpectedEOF)
	}
	return s.ReadBytes(end - s.pos)
}

func (s *ByteSource) readAll() ([]byte, error) {
	data, err := io.ReadAll(s.r)
	s.pos += uint64(len(data))
	if err != nil {
		werr := wrapStream(s.pos, err)
		s.fail(werr)
		return data, werr
	}
	return data, nil
}

// Empty reports whether the source has no more bytes, without consuming any.
// It is used at box boundaries to distinguish a clean top-level EOF from a
// truncated header.
func (s *ByteSource) Empty() bool {
	if s.err != nil {
		return true
	}
	_, err := s.r.Peek(1)
	return err != nil
}
