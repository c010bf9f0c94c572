package morsel

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultBufferSize is the stream window used when Options leaves it unset.
const DefaultBufferSize = 4096

// Options configures a Decoder.
type Options struct {
	// BufferSize is the window of stream decoders. It bounds the longest
	// match that can be peeked from a stream.
	BufferSize int `yaml:"buffer_size"`
	// Compressed makes stream decoders read a zstd stream.
	Compressed bool `yaml:"compressed"`
	// Logger receives a line for every failed call. Nil is silent.
	Logger *log.Logger `yaml:"-"`
}

func (o Options) bufferSize() int {
	if o.BufferSize == 0 {
		return DefaultBufferSize
	}
	return o.BufferSize
}

// Validate reports options no decoder can be built from.
func (o Options) Validate() error {
	if o.BufferSize < 0 {
		return fmt.Errorf("morsel: negative buffer size %d", o.BufferSize)
	}
	return nil
}

// LoadOptions parses options from YAML.
func LoadOptions(data []byte) (Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("morsel: options: %w", err)
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// ReadOptions loads options from a YAML file.
func ReadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("morsel: options: %w", err)
	}
	return LoadOptions(data)
}
