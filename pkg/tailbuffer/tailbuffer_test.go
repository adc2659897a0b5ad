package tailbuffer

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferCreation(t *testing.T) {
	lb := NewBuffer(0)
	require.NotNil(t, lb)
}

func TestBufferWrite(t *testing.T) {
	lb := NewBuffer(1024)
	n, err := lb.Write([]byte("asdf"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestBufferReadEmpty(t *testing.T) {
	lb := NewBuffer(4)
	buf := make([]byte, 4)
	_, err := lb.Read(buf)
	require.Error(t, err, io.EOF)
}

func TestBufferWriteRead(t *testing.T) {
	lb := NewBuffer(4)
	n, err := lb.Write([]byte("asdfg"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	buf := make([]byte, 4)
	n, err = lb.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte("sdfg"), buf)
	n, err = lb.Write([]byte("hjklzx"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	buf = make([]byte, 3)
	n, err = lb.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte("klz"), buf)
	n, err = lb.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestBufferWriteReadString(t *testing.T) {
	lb := NewBuffer(4)
	n, err := lb.Write([]byte("asdfg"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	str := new(strings.Builder)
	nw, err := io.Copy(str, lb)
	require.NoError(t, err)
	require.Equal(t, int64(4), nw)
	require.Equal(t, "sdfg", str.String())
}

func TestBufferBytesDoesNotConsume(t *testing.T) {
	lb := NewBuffer(8)
	_, err := lb.Write([]byte("abcdefghij"))
	require.NoError(t, err)

	require.Equal(t, []byte("cdefghij"), lb.Bytes())
	require.Equal(t, []byte("cdefghij"), lb.Bytes())

	buf := make([]byte, 8)
	n, err := lb.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte("cdefghij"), buf)
}
