package morsel_test

import (
	"fmt"
	"strings"

	"github.com/rawbytedev/morsel"
	"github.com/rawbytedev/morsel/pkg/match"
	"github.com/rawbytedev/morsel/pkg/ops"
)

func Example() {
	d := morsel.NewDecoder([]byte("name=morsel;size=42;"), morsel.Options{})
	key := ops.While(ops.IsWord)
	for {
		k, err := morsel.Take(d, key, morsel.PreferView)
		if err != nil {
			break
		}
		_ = d.Skip(ops.Byte('='))
		v, _ := morsel.Take(d, ops.Until(func(b byte) bool { return b == ';' }), morsel.PreferView)
		_ = d.Skip(ops.Byte(';'))
		fmt.Printf("%s -> %s (view: %t)\n", k.Get(), v.Get(), !v.Owned())
	}
	// Output:
	// name -> morsel (view: true)
	// size -> 42 (view: true)
}

func ExamplePeek() {
	d, _ := morsel.NewStreamDecoder(strings.NewReader("GET /index"), morsel.Options{BufferSize: 16})
	methods := ops.NewKeywords([]string{"GET", "PUT"}, false)
	h, err := morsel.Peek(d, methods.Word())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(h.View(), d.Pos())
	h.Commit()
	fmt.Println(d.Pos())
	// Output:
	// GET 0
	// 3
}

func ExampleDecoder_Skip() {
	d := morsel.NewDecoder([]byte(`"a\tb" tail`), morsel.Options{})
	_ = d.Skip(ops.Byte('"'))
	body, _ := morsel.Take(d, ops.Escaped('"'), morsel.PreferView)
	_ = d.Skip(ops.Byte('"'))
	upper := match.ResolveEachSafe(ops.While(ops.IsWord), func(b byte) (byte, bool) {
		return b - 'a' + 'A', b >= 'a' && b <= 'z'
	})
	_ = d.Skip(ops.While(ops.IsSpace))
	err := d.Skip(upper)
	fmt.Printf("%q %t %v\n", body.Get(), body.Owned(), err)
	// Output:
	// "a\tb" true morsel: while at offset 7: end of stream
}
