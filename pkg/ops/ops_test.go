package ops

import (
	"bytes"
	"encoding/binary"
	"testing"
	"testing/quick"

	"github.com/klauspost/compress/zstd"
	"github.com/rawbytedev/morsel"
	"github.com/rawbytedev/morsel/internal/common"
	"github.com/rawbytedev/morsel/pkg/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decoder(s string) *morsel.Decoder {
	return morsel.NewDecoder([]byte(s), morsel.Options{})
}

func TestSingleBytes(t *testing.T) {
	d := decoder("a,b")
	v, err := morsel.Take(d, Byte('a'), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, byte('a'), v.Get())

	_, err = morsel.Take(d, Byte('x'), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)
	var de *morsel.DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "byte", de.Op)
	require.Equal(t, 1, de.Offset)

	v, err = morsel.Take(d, In(",;"), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, byte(','), v.Get())
	v, err = morsel.Take(d, Any(), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, byte('b'), v.Get())
	_, err = morsel.Take(d, Any(), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrEndOfStream)
}

func TestLiteral(t *testing.T) {
	in := []byte("GET /")
	d := morsel.NewDecoder(in, morsel.Options{})
	_, err := morsel.Take(d, Literal("GEX"), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)
	require.Zero(t, d.Pos())

	v, err := morsel.Take(d, Literal("GET"), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "GET", string(v.Get()))
	require.False(t, v.Owned())
	require.Same(t, &in[0], &v.Get()[0])
	require.NoError(t, d.Skip(Literal(" ")))
	require.Equal(t, 4, d.Pos())

	require.Panics(t, func() { Literal("") })
}

func TestUint(t *testing.T) {
	d := morsel.NewDecoder([]byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xff}, morsel.Options{})
	u16, err := morsel.Take(d, Uint[uint16](binary.LittleEndian), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16.Get())
	u32, err := morsel.Take(d, Uint[uint32](binary.LittleEndian), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), u32.Get())
	u8, err := morsel.Take(d, Uint[uint8](binary.LittleEndian), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, uint8(0xff), u8.Get())

	roundTrip := func(x uint64) bool {
		d := morsel.NewDecoder(binary.BigEndian.AppendUint64(nil, x), morsel.Options{})
		v, err := morsel.Take(d, Uint[uint64](binary.BigEndian), morsel.PreferView)
		return err == nil && v.Get() == x && v.Consumed() == 8
	}
	require.NoError(t, quick.Check(roundTrip, nil))
}

func TestUintAligned(t *testing.T) {
	d := morsel.NewDecoder([]byte{0xaa, 0, 0, 0, 1, 0, 0, 0}, morsel.Options{})
	require.NoError(t, d.Skip(Any()))
	v, err := morsel.Take(d, Uint[uint32](binary.LittleEndian, match.WithAlign(4)), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, uint32(1), v.Get())
	require.Equal(t, 7, v.Consumed())
	require.Equal(t, 8, d.Pos())
}

func TestUvarint(t *testing.T) {
	roundTrip := func(x uint64) bool {
		buf := common.WriteVarUintTo(nil, x)
		d, err := morsel.NewStreamDecoder(bytes.NewReader(append(buf, 0xff)), morsel.Options{BufferSize: 16})
		if err != nil {
			return false
		}
		v, err := morsel.Take(d, Uvarint(), morsel.PreferView)
		return err == nil && v.Get() == x && v.Consumed() == len(buf) && d.Pos() == len(buf)
	}
	require.NoError(t, quick.Check(roundTrip, nil))

	long := bytes.Repeat([]byte{0x80}, 12)
	_, err := morsel.Take(morsel.NewDecoder(long, morsel.Options{}), Uvarint(), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)
}

func TestRuns(t *testing.T) {
	d := decoder("  abc def\n")
	require.NoError(t, d.Skip(While(IsSpace)))
	w, err := morsel.Take(d, While(IsWord), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "abc", string(w.Get()))
	require.ErrorIs(t, d.Skip(While(IsWord)), morsel.ErrFailedOperation)
	require.NoError(t, d.Skip(While(IsSpace)))
	rest, err := morsel.Take(d, Until(func(b byte) bool { return b == '\n' }), morsel.PreferOwned)
	require.NoError(t, err)
	require.Equal(t, "def", string(rest.Get()))
	require.True(t, rest.Owned())
	rest.Release()

	f, err := morsel.Take(decoder("abcdef"), Fixed(3), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "abc", string(f.Get()))
	require.Panics(t, func() { Fixed(0) })

	assert.True(t, IsWord('Z'))
	assert.True(t, IsWord('_'))
	assert.False(t, IsWord('['))
	assert.False(t, IsWord('@'))
}

func TestEscaped(t *testing.T) {
	d := decoder(`"he said \"hi\"\tok" rest`)
	require.NoError(t, d.Skip(Byte('"')))
	s, err := morsel.Take(d, Escaped('"'), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "he said \"hi\"\tok", string(s.Get()))
	require.True(t, s.Owned())
	s.Release()
	require.NoError(t, d.Skip(Byte('"')))
	require.Equal(t, 20, d.Pos())

	in := []byte(`plain"`)
	plain, err := morsel.Take(morsel.NewDecoder(in, morsel.Options{}), Escaped('"'), morsel.PreferView)
	require.NoError(t, err)
	require.False(t, plain.Owned())
	require.Same(t, &in[0], &plain.Get()[0])

	_, err = morsel.Take(decoder(`bad\q"`), Escaped('"'), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)
	_, err = morsel.Take(decoder(`"`), Escaped('"'), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)

	// single quotes escape their own quote only
	sq, err := morsel.Take(decoder(`it\'s'`), Escaped('\''), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "it's", string(sq.Get()))
}

func TestKeywords(t *testing.T) {
	k := NewKeywords([]string{"if", "in", "int", "import"}, false)
	w, err := morsel.Take(decoder("int x"), k.Word(), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "int", w.Get())

	_, err = morsel.Take(decoder("inter "), k.Word(), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)

	d := decoder("inter ")
	p, err := morsel.Take(d, k.Prefix(), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "in", p.Get())
	require.Equal(t, 2, d.Pos())

	_, err = morsel.Take(decoder("xyz "), k.Prefix(), morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)

	fold := NewKeywords([]string{"select", "from"}, true)
	s, err := morsel.Take(decoder("SELECT *"), fold.Word(), morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, "select", s.Get())
	_, ok := fold.Lookup(nil)
	require.False(t, ok)
}

func TestDecompress(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	plain := []byte("payload payload payload")
	frame := enc.EncodeAll(plain, nil)
	require.NoError(t, enc.Close())

	op, err := Decompress(Fixed(len(frame)), 1<<20)
	require.NoError(t, err)
	v, err := morsel.Take(morsel.NewDecoder(frame, morsel.Options{}), op, morsel.PreferView)
	require.NoError(t, err)
	require.Equal(t, plain, v.Get())
	require.False(t, v.Owned())
	v, err = morsel.Take(morsel.NewDecoder(frame, morsel.Options{}), op, morsel.PreferOwned)
	require.NoError(t, err)
	require.True(t, v.Owned())

	small, err := Decompress(Fixed(len(frame)), 4)
	require.NoError(t, err)
	_, err = morsel.Take(morsel.NewDecoder(frame, morsel.Options{}), small, morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)

	junk := bytes.Repeat([]byte{0x42}, len(frame))
	_, err = morsel.Take(morsel.NewDecoder(junk, morsel.Options{}), op, morsel.PreferView)
	require.ErrorIs(t, err, morsel.ErrFailedOperation)
}

func TestInflater(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	z, err := NewInflater(64)
	require.NoError(t, err)
	defer z.Close()

	for _, s := range []string{"one", "two two", "three three three"} {
		frame := enc.EncodeAll([]byte(s), nil)
		v, err := morsel.Take(morsel.NewDecoder(frame, morsel.Options{}), z.Of(Fixed(len(frame))), morsel.PreferView)
		require.NoError(t, err)
		require.Equal(t, s, string(v.Get()))
	}

	_, ok := z.Inflate([]byte("not zstd"))
	require.False(t, ok)
	_, ok = z.Inflate(enc.EncodeAll(bytes.Repeat([]byte("x"), 65), nil))
	require.False(t, ok)
	require.NoError(t, enc.Close())
	_, err = NewInflater(0)
	require.Error(t, err)
}
