package protocol

import (
	"encoding/binary"
	"math"
)

// EncodeRequest serialises a single request frame: the fixed header followed
// by the command code, the primary argument chunk and a trailing chunk
// carrying the execution timeout in milliseconds.
//
// An argument of an unsupported kind yields an InvalidArgument error and no
// bytes reach the wire.
func EncodeRequest(cmd Cmd, seq uint32, args []interface{}, execTimeoutMs int64) ([]byte, error) {
	e := encoder{b: make([]byte, 0, 64+HeaderSize)}

	e.putUint32(Magic)
	e.putUint16(Version)
	e.putUint16(0)
	e.putUint32(0) // payload size, filled below
	e.putUint32(seq)

	e.putUvarint(uint64(cmd))
	e.putUvarint(uint64(len(args)))
	for _, arg := range args {
		if err := e.putValue(arg); err != nil {
			return nil, err
		}
	}

	// Secondary args chunk with transport-level metadata.
	e.putUvarint(1)
	e.putUvarint(valueInt64)
	e.putVarint(execTimeoutMs)

	binary.LittleEndian.PutUint32(e.b[8:], uint32(len(e.b)-HeaderSize))
	return e.b, nil
}

// DecodeHeader parses the fixed 16-byte frame header, validating the magic
// and the sender version.
func DecodeHeader(hdr []byte) (version uint16, size uint32, seq uint32, err error) {
	if len(hdr) < HeaderSize {
		return 0, 0, 0, newError(CodeProtocol, "truncated header: %d bytes", len(hdr))
	}
	if magic := binary.LittleEndian.Uint32(hdr[0:]); magic != Magic {
		return 0, 0, 0, newError(CodeProtocol, "invalid magic '%08X'", magic)
	}
	version = binary.LittleEndian.Uint16(hdr[4:])
	if version < MinCompatVersion {
		return 0, 0, 0, newError(CodeProtocol, "unsupported protocol version '%04X'", version)
	}
	// hdr[6:8] is reserved, ignored on receive.
	size = binary.LittleEndian.Uint32(hdr[8:])
	seq = binary.LittleEndian.Uint32(hdr[12:])
	return version, size, seq, nil
}

// DecodeRequest parses a request payload back into its command code,
// argument list and execution timeout. It is the inverse of EncodeRequest
// and is used by test servers and protocol tooling.
func DecodeRequest(payload []byte) (Cmd, []interface{}, int64, error) {
	d := decoder{b: payload}

	cmd, err := d.uvarint()
	if err != nil {
		return 0, nil, 0, err
	}
	args, err := d.args()
	if err != nil {
		return 0, nil, 0, err
	}

	var execTimeoutMs int64
	if d.off < len(d.b) {
		meta, err := d.args()
		if err != nil {
			return 0, nil, 0, err
		}
		if len(meta) > 0 {
			if v, ok := meta[0].(int64); ok {
				execTimeoutMs = v
			}
		}
	}

	return Cmd(cmd), args, execTimeoutMs, nil
}

type encoder struct {
	b []byte
}

func (e *encoder) putUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	e.b = append(e.b, tmp[:]...)
}

func (e *encoder) putUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.b = append(e.b, tmp[:]...)
}

func (e *encoder) putUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.b = append(e.b, tmp[:n]...)
}

func (e *encoder) putVarint(v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	e.b = append(e.b, tmp[:n]...)
}

func (e *encoder) putString(v []byte) {
	e.putUvarint(uint64(len(v)))
	e.b = append(e.b, v...)
}

func (e *encoder) putValue(arg interface{}) error {
	switch t := arg.(type) {
	case bool:
		e.putUvarint(valueBool)
		if t {
			e.b = append(e.b, 1)
		} else {
			e.b = append(e.b, 0)
		}
	case int:
		e.putUvarint(valueInt)
		e.putVarint(int64(t))
	case int32:
		e.putUvarint(valueInt)
		e.putVarint(int64(t))
	case int64:
		e.putUvarint(valueInt64)
		e.putVarint(t)
	case string:
		e.putUvarint(valueString)
		e.putString([]byte(t))
	case []byte:
		e.putUvarint(valueString)
		e.putString(t)
	case []int32:
		e.putUvarint(valueTuple)
		e.putUvarint(uint64(len(t)))
		for _, v := range t {
			e.putUvarint(valueInt)
			e.putVarint(int64(v))
		}
	case nil:
		e.putUvarint(valueNull)
	default:
		return newError(CodeInvalidArgument, "unsupported argument type %T", arg)
	}
	return nil
}

type decoder struct {
	b   []byte
	off int
}

func errTruncated() error {
	return newError(CodeProtocol, "truncated frame")
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.b[d.off:])
	if n <= 0 {
		return 0, errTruncated()
	}
	d.off += n
	return v, nil
}

func (d *decoder) varint() (int64, error) {
	v, n := binary.Varint(d.b[d.off:])
	if n <= 0 {
		return 0, errTruncated()
	}
	d.off += n
	return v, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || d.off+n > len(d.b) {
		return nil, errTruncated()
	}
	v := d.b[d.off : d.off+n]
	d.off += n
	return v, nil
}

// args parses one length-prefixed argument chunk.
func (d *decoder) args() ([]interface{}, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	args := make([]interface{}, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// value parses one tagged value. Strings are returned as sub-slices of the
// payload, not copies.
func (d *decoder) value() (interface{}, error) {
	tag, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valueInt:
		v, err := d.varint()
		return int(v), err
	case valueInt64:
		return d.varint()
	case valueDouble:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case valueBool:
		b, err := d.take(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case valueString:
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		return d.take(int(n))
	case valueNull:
		return nil, nil
	case valueTuple:
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		tuple := make([]interface{}, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			tuple = append(tuple, v)
		}
		return tuple, nil
	default:
		return nil, newError(CodeProtocol, "unknown value tag %d", tag)
	}
}
