package byteio

import (
	"bytes"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint16RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint16BE(&buf, 0x0102))
	assert.Equal(t, []byte{0x01, 0x02}, buf.Bytes())

	v, err := ReadUint16BE(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)
}

func TestUint64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint64BE(&buf, 0x0102030405060708))

	v, err := ReadUint64BE(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)
}

func TestReadUint64BE_ShortRead(t *testing.T) {
	buf := bytes.NewReader([]byte{0x01, 0x02, 0x03})
	_, err := ReadUint64BE(buf)
	require.Error(t, err)
	var shortErr *ShortReadError
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, 8, shortErr.Want)
	assert.Equal(t, 3, shortErr.Got)
}

func TestNameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteName(&buf, "assets/hero.png"))

	name, err := ReadName(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "assets/hero.png", name)
}

func TestReadName_InvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xfe, 0x00})

	_, err := ReadName(&buf, 0)
	require.Error(t, err)
	var utf8Err *UTF8Error
	require.ErrorAs(t, err, &utf8Err)
	assert.Equal(t, []byte{0xff, 0xfe}, utf8Err.Raw)
}

func TestReadName_ExceedsMaxLen(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("abcdef")
	buf.WriteByte(0x00)

	_, err := ReadName(&buf, 3)
	require.Error(t, err)
}

func TestHashingWriter_FeedsHash(t *testing.T) {
	var out bytes.Buffer
	h := fnv.New64a()
	hw := NewHashingWriter(&out, h)

	_, err := hw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", out.String())

	want := fnv.New64a()
	want.Write([]byte("hello"))
	assert.Equal(t, want.Sum(nil), h.Sum(nil))
}

func TestHashingReader_FeedsHash(t *testing.T) {
	h := fnv.New64a()
	hr := NewHashingReader(bytes.NewReader([]byte("world")), h)

	buf := make([]byte, 5)
	n, err := hr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	want := fnv.New64a()
	want.Write([]byte("world"))
	assert.Equal(t, want.Sum(nil), h.Sum(nil))
}
