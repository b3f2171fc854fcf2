package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequest_HeaderRoundTrip(t *testing.T) {
	frame, err := EncodeRequest(CmdPing, 7, nil, 0)
	require.NoError(t, err)
	require.True(t, len(frame) >= HeaderSize)

	version, size, seq, err := DecodeHeader(frame[:HeaderSize])
	require.NoError(t, err)

	assert.Equal(t, Version, version)
	assert.Equal(t, uint32(len(frame)-HeaderSize), size)
	assert.Equal(t, uint32(7), seq)
}

func TestEncodeRequest_ArgsRoundTrip(t *testing.T) {
	args := []interface{}{
		true,
		false,
		int(-3),
		int32(42),
		int64(1 << 40),
		"hello",
		[]byte{0xde, 0xad},
		[]int32{1, -2, 3},
		nil,
	}
	frame, err := EncodeRequest(CmdSelect, 123, args, 1500)
	require.NoError(t, err)

	cmd, decoded, execTimeoutMs, err := DecodeRequest(frame[HeaderSize:])
	require.NoError(t, err)

	assert.Equal(t, CmdSelect, cmd)
	assert.Equal(t, int64(1500), execTimeoutMs)
	require.Len(t, decoded, len(args))

	assert.Equal(t, true, decoded[0])
	assert.Equal(t, false, decoded[1])
	assert.Equal(t, int(-3), decoded[2])
	assert.Equal(t, int(42), decoded[3])
	assert.Equal(t, int64(1<<40), decoded[4])
	assert.Equal(t, []byte("hello"), decoded[5])
	assert.Equal(t, []byte{0xde, 0xad}, decoded[6])
	assert.Equal(t, []interface{}{int(1), int(-2), int(3)}, decoded[7])
	assert.Nil(t, decoded[8])
}

func TestEncodeRequest_InvalidArgument(t *testing.T) {
	_, err := EncodeRequest(CmdSelect, 1, []interface{}{struct{}{}}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, ErrCode(err))

	_, err = EncodeRequest(CmdSelect, 1, []interface{}{3.14}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, ErrCode(err))
}

func TestDecodeHeader_InvalidMagic(t *testing.T) {
	frame, err := EncodeRequest(CmdPing, 1, nil, 0)
	require.NoError(t, err)
	frame[0] ^= 0xff

	_, _, _, err = DecodeHeader(frame[:HeaderSize])
	require.Error(t, err)
	assert.Equal(t, CodeProtocol, ErrCode(err))
	assert.Contains(t, err.Error(), "magic")
}

func TestDecodeHeader_UnsupportedVersion(t *testing.T) {
	frame, err := EncodeRequest(CmdPing, 1, nil, 0)
	require.NoError(t, err)
	frame[4] = 0x00
	frame[5] = 0x01 // version 0x100 < min compat 0x101

	_, _, _, err = DecodeHeader(frame[:HeaderSize])
	require.Error(t, err)
	assert.Equal(t, CodeProtocol, ErrCode(err))
	assert.Contains(t, err.Error(), "version")
}

func TestDecodeHeader_Truncated(t *testing.T) {
	_, _, _, err := DecodeHeader(make([]byte, HeaderSize-1))
	require.Error(t, err)
	assert.Equal(t, CodeProtocol, ErrCode(err))
}

func TestDecodeRequest_Truncated(t *testing.T) {
	frame, err := EncodeRequest(CmdSelect, 9, []interface{}{"payload", int64(99)}, 0)
	require.NoError(t, err)
	payload := frame[HeaderSize:]

	for _, cut := range []int{1, len(payload) / 2, len(payload) - 1} {
		_, _, _, err := DecodeRequest(payload[:cut])
		require.Error(t, err, "cut at %d", cut)
		assert.Equal(t, CodeProtocol, ErrCode(err))
	}
}

func TestBuffer_ParseOK(t *testing.T) {
	e := encoder{}
	e.putUvarint(0) // status OK
	e.putUvarint(0) // no message
	e.putUvarint(2)
	e.putUvarint(valueInt64)
	e.putVarint(-7)
	e.putUvarint(valueString)
	e.putString([]byte("ok"))

	buf := newBuffer(len(e.b))
	copy(buf.buf, e.b)
	require.NoError(t, buf.parse())

	args := buf.Args()
	require.Len(t, args, 2)
	assert.Equal(t, int64(-7), args[0])
	assert.Equal(t, []byte("ok"), args[1])
	buf.Free()
}

func TestBuffer_ParseServerError(t *testing.T) {
	e := encoder{}
	e.putUvarint(13)
	e.putString([]byte("namespace missing"))
	e.putUvarint(0)

	buf := newBuffer(len(e.b))
	copy(buf.buf, e.b)
	err := buf.parse()
	require.Error(t, err)

	serr, ok := err.(*ServerError)
	require.True(t, ok)
	assert.Equal(t, 13, serr.Code)
	assert.Equal(t, "namespace missing", serr.Message)
	buf.Free()
}

func TestBuffer_ParseDouble(t *testing.T) {
	e := encoder{}
	e.putUvarint(0)
	e.putUvarint(0)
	e.putUvarint(1)
	// Doubles only travel server to client, so encode one by hand.
	e.putUvarint(valueDouble)
	e.b = append(e.b, 0x18, 0x2d, 0x44, 0x54, 0xfb, 0x21, 0x09, 0x40) // pi

	buf := newBuffer(len(e.b))
	copy(buf.buf, e.b)
	require.NoError(t, buf.parse())

	args := buf.Args()
	require.Len(t, args, 1)
	assert.InDelta(t, 3.141592653589793, args[0].(float64), 1e-15)
	buf.Free()
}
