package main

import (
	"bytes"
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/morsel"
	"github.com/rawbytedev/morsel/pkg/wireframe"
)

func main() {
	var (
		iterations = flag.Int("n", 10000, "decode iterations")
		profile    = flag.String("memprofile", "mem.prof", "heap profile output")
		serve      = flag.String("pprof", "localhost:6060", "pprof listen address, empty to disable")
		linger     = flag.Duration("linger", 0, "keep the pprof server up this long after decoding")
		config     = flag.String("config", "", "YAML decoder options")
	)
	flag.Parse()

	opts := morsel.Options{}
	if *config != "" {
		var err error
		if opts, err = morsel.ReadOptions(*config); err != nil {
			log.Fatal(err)
		}
	}
	if *serve != "" {
		go func() {
			log.Println(http.ListenAndServe(*serve, nil))
		}()
	}
	f, err := os.Create(*profile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	enc := wireframe.NewEncoder()
	defer enc.Close()
	var input []byte
	for _, p := range []string{"azerty", "hello", "world", "random"} {
		frame, err := enc.Data(bytes.Repeat([]byte(p), 64), wireframe.FlagHasOffsetTable, []uint32{0, 64})
		if err != nil {
			log.Fatal(err)
		}
		input = append(input, frame...)
	}
	frame, err := enc.Data(bytes.Repeat([]byte("compressed "), 256), wireframe.FlagCompressed|wireframe.FlagFinal, nil)
	if err != nil {
		log.Fatal(err)
	}
	input = append(input, frame...)

	frames := 0
	for i := 0; i < *iterations; i++ {
		var d *morsel.Decoder
		if opts.BufferSize > 0 {
			d, err = morsel.NewStreamDecoder(bytes.NewReader(input), opts)
			if err != nil {
				log.Fatal(err)
			}
		} else {
			d = morsel.NewDecoder(input, opts)
		}
		r := wireframe.NewReader(d, wireframe.WithLogger(opts.Logger))
		for {
			fr, err := r.Next()
			if err != nil {
				break
			}
			frames++
			if fr.Final() {
				break
			}
		}
		r.Close()
	}
	log.Printf("decoded %d frames", frames)
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Fatal(err)
	}
	time.Sleep(*linger)
}
