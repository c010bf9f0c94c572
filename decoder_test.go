package morsel

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/rawbytedev/morsel/pkg/match"
	"github.com/rawbytedev/morsel/pkg/ops"
	"github.com/rawbytedev/morsel/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceDecoder(s string) *Decoder {
	return NewDecoder([]byte(s), Options{})
}

func streamDecoder(s string) *Decoder {
	d, err := NewStreamDecoder(strings.NewReader(s), Options{BufferSize: 8})
	if err != nil {
		panic(err)
	}
	return d
}

func TestPeekCommitMatchesTake(t *testing.T) {
	digits := ops.While(ops.IsDigit)
	semi := ops.Byte(';')
	for name, mk := range map[string]func(string) *Decoder{"slice": sliceDecoder, "stream": streamDecoder} {
		peeked := mk("123;4567;")
		h, err := Peek(peeked, digits)
		require.NoError(t, err, name)
		view := string(h.View())
		consumed := h.Consumed()
		require.Zero(t, peeked.Pos(), name)
		h.Commit()
		h.Free()
		require.NoError(t, peeked.Skip(semi), name)
		rest, err := Take(peeked, digits, PreferView)
		require.NoError(t, err, name)

		taken := mk("123;4567;")
		first, err := Take(taken, digits, PreferView)
		require.NoError(t, err, name)
		require.Equal(t, view, string(first.Get()), name)
		require.Equal(t, consumed, first.Consumed(), name)
		require.NoError(t, taken.Skip(semi), name)
		again, err := Take(taken, digits, PreferView)
		require.NoError(t, err, name)
		require.Equal(t, string(again.Get()), string(rest.Get()), name)
		require.Equal(t, taken.Pos(), peeked.Pos(), name)
		first.Release()
		again.Release()
		rest.Release()
	}
}

func TestPeekConsume(t *testing.T) {
	d := streamDecoder("123;4567;")
	h, err := Peek(d, ops.While(ops.IsDigit))
	require.NoError(t, err)
	require.False(t, h.Owned())
	v := h.Consume()
	require.True(t, v.Owned())
	require.Equal(t, 3, d.Pos())
	require.NoError(t, d.Skip(ops.Byte(';')))
	require.NoError(t, d.Skip(ops.While(ops.IsDigit)))
	// the window moved on, the consumed value did not
	require.Equal(t, "123", string(v.Get()))
	v.Release()
	require.Panics(t, h.Free)
	require.Panics(t, func() { h.Consume() })

	in := []byte("77;")
	sd := NewDecoder(in, Options{})
	sh, err := Peek(sd, ops.While(ops.IsDigit))
	require.NoError(t, err)
	sv := sh.Consume()
	require.False(t, sv.Owned())
	require.Same(t, &in[0], &sv.Get()[0])
}

func TestPeekMisuse(t *testing.T) {
	d := sliceDecoder("12;")
	h, err := Peek(d, ops.While(ops.IsDigit))
	require.NoError(t, err)
	require.NoError(t, d.Skip(ops.Any()))
	require.Panics(t, h.Commit)

	h, err = Peek(d, ops.While(ops.IsDigit))
	require.NoError(t, err)
	h.Commit()
	require.Panics(t, h.Commit)
	h.Free()
	require.Panics(t, h.Free)
	require.Panics(t, func() { h.View() })

	_, err = Peek(d, ops.While(ops.IsDigit))
	require.ErrorIs(t, err, ErrFailedOperation)
}

func TestSkipHasNoRollback(t *testing.T) {
	d := streamDecoder("abc")
	require.NoError(t, d.Skip(ops.Any()))
	never := match.Many(func(int, byte) match.Verdict { return match.Invalid })
	err := d.Skip(never)
	require.ErrorIs(t, err, ErrFailedOperation)
	require.Equal(t, 1, d.Pos())

	sc := NewSourceDecoder(source.NewScripted(source.Script{
		Name:           "drops",
		Data:           source.Bytes("aaaa;"),
		FailAfterDrops: source.Limit(3),
		Streamed:       true,
	}), Options{})
	err = sc.Skip(ops.Until(func(b byte) bool { return b == ';' }))
	require.ErrorIs(t, err, ErrEndOfStream)
	require.Equal(t, 3, sc.Pos())
}

func TestTakePreferences(t *testing.T) {
	in := []byte("abc ")
	d := NewDecoder(in, Options{})
	v, err := Take(d, ops.While(ops.IsWord), PreferView)
	require.NoError(t, err)
	require.False(t, v.Owned())
	v.Release()

	d.Reset(in)
	o, err := Take(d, ops.While(ops.IsWord), PreferOwned)
	require.NoError(t, err)
	require.True(t, o.Owned())
	require.NotSame(t, &in[0], &o.Get()[0])
	o.Release()
	require.Panics(t, o.Release)

	_, err = Take(d, ops.Byte('x'), PreferView)
	require.EqualError(t, err, "morsel: byte at offset 3: failed operation")

	require.Equal(t, 1, d.Remaining())
	require.Equal(t, -1, streamDecoder("x").Remaining())
	require.Panics(t, func() { streamDecoder("x").Reset(in) })
}

func TestEndOfStream(t *testing.T) {
	_, err := Take(sliceDecoder("123"), ops.While(ops.IsDigit), PreferView)
	require.ErrorIs(t, err, ErrEndOfStream)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "while", de.Op)

	// a run longer than the window cannot be peeked
	d := streamDecoder("123456789;")
	require.Panics(t, func() { _, _ = Peek(d, ops.While(ops.IsDigit)) })
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	d := NewDecoder([]byte("ab"), Options{Logger: log.New(&buf, "", 0)})
	require.Error(t, d.Skip(ops.Byte('b')))
	require.NoError(t, d.Skip(ops.Byte('a')))
	assert.Equal(t, "byte failed at offset 0: failed operation\n", buf.String())

	quiet := sliceDecoder("a")
	require.Error(t, quiet.Skip(ops.Byte('b')))
}

func TestOptions(t *testing.T) {
	o, err := LoadOptions([]byte("buffer_size: 64\ncompressed: true\n"))
	require.NoError(t, err)
	require.Equal(t, Options{BufferSize: 64, Compressed: true}, o)
	require.Equal(t, 64, o.bufferSize())
	require.Equal(t, DefaultBufferSize, Options{}.bufferSize())

	_, err = LoadOptions([]byte("buffer_size: -1\n"))
	require.Error(t, err)
	_, err = LoadOptions([]byte("buffer_size: [\n"))
	require.Error(t, err)

	o, err = ReadOptions("testdata/options.yaml")
	require.NoError(t, err)
	require.Equal(t, 256, o.BufferSize)
	_, err = ReadOptions("testdata/missing.yaml")
	require.Error(t, err)

	_, err = NewStreamDecoder(strings.NewReader(""), Options{BufferSize: -4})
	require.Error(t, err)
}

func TestCompressedStream(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	packed := enc.EncodeAll([]byte("12;345;"), nil)
	require.NoError(t, enc.Close())

	d, err := NewStreamDecoder(bytes.NewReader(packed), Options{BufferSize: 8, Compressed: true})
	require.NoError(t, err)
	var got []string
	for i := 0; i < 2; i++ {
		v, err := Take(d, ops.While(ops.IsDigit), PreferView)
		require.NoError(t, err)
		got = append(got, string(v.Get()))
		v.Release()
		require.NoError(t, d.Skip(ops.Byte(';')))
	}
	require.Equal(t, []string{"12", "345"}, got)
	require.Equal(t, 7, d.Pos())
	require.NoError(t, d.Close())
	require.NoError(t, sliceDecoder("").Close())
}
