package source

import (
	"fmt"

	"github.com/rawbytedev/morsel/internal/common"
	"gopkg.in/yaml.v3"
)

// Script drives a Scripted source. Nil thresholds are disabled.
type Script struct {
	Name string `yaml:"name"`
	// Data backs the source. Without it every peeked byte is zero and the
	// source never runs out on its own.
	Data *string `yaml:"data,omitempty"`
	// FailAfterDrops makes Reserve fail once Drop has been called this many times.
	FailAfterDrops *int `yaml:"fail_after_drops,omitempty"`
	// FailAtReserve makes Reserve(n) fail when Pos()+n exceeds it.
	FailAtReserve *int `yaml:"fail_at_reserve,omitempty"`
	// Streamed makes the source report Direct() == false.
	Streamed bool `yaml:"streamed"`
}

// Limit is a convenience for filling Script thresholds.
func Limit(n int) *int { return &n }

// Bytes is a convenience for filling Script.Data.
func Bytes(s string) *string { return &s }

// ParseScripts decodes a YAML list of scripts, keyed by name.
func ParseScripts(data []byte) (map[string]Script, error) {
	var list []Script
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse scripts: %w", err)
	}
	out := make(map[string]Script, len(list))
	for _, s := range list {
		if s.Name == "" {
			return nil, fmt.Errorf("parse scripts: script without name")
		}
		if _, dup := out[s.Name]; dup {
			return nil, fmt.Errorf("parse scripts: duplicate script %q", s.Name)
		}
		out[s.Name] = s
	}
	return out, nil
}

// Scripted is a Source for exercising failure paths deterministically.
type Scripted struct {
	script Script
	data   []byte
	zero   []byte
	pos    int
	drops  int
	// reserved is the number of bytes past the cursor granted so far.
	reserved int

	// Reserves counts calls to Reserve, successful or not.
	Reserves int
}

var _ Source = (*Scripted)(nil)

// NewScripted returns a source positioned at zero.
func NewScripted(s Script) *Scripted {
	sc := &Scripted{script: s}
	if s.Data != nil {
		sc.data = []byte(*s.Data)
	}
	return sc
}

func (s *Scripted) Reserve(n int) error {
	s.Reserves++
	if lim := s.script.FailAfterDrops; lim != nil && s.drops >= *lim {
		return ErrEndOfStream
	}
	if lim := s.script.FailAtReserve; lim != nil && s.pos+n > *lim {
		return ErrEndOfStream
	}
	if s.script.Data != nil && s.pos+n > len(s.data) {
		return ErrEndOfStream
	}
	s.reserved = max(s.reserved, n)
	return nil
}

func (s *Scripted) Peek(i int) byte {
	if i >= s.reserved {
		common.Panicf("scripted peek %d past reserve %d", i, s.reserved)
	}
	if s.script.Data == nil {
		return 0
	}
	return s.data[s.pos+i]
}

func (s *Scripted) PeekSlice(i, n int) []byte {
	if i+n > s.reserved {
		common.Panicf("scripted peek slice [%d:%d] past reserve %d", i, i+n, s.reserved)
	}
	if s.script.Data == nil {
		if len(s.zero) < n {
			s.zero = make([]byte, n)
		}
		return s.zero[:n:n]
	}
	return s.data[s.pos+i : s.pos+i+n : s.pos+i+n]
}

func (s *Scripted) Drop(n int) {
	if n > s.reserved {
		common.Panicf("scripted drop %d past reserve %d", n, s.reserved)
	}
	s.pos += n
	s.reserved -= n
	s.drops++
}

func (s *Scripted) Pos() int { return s.pos }

func (s *Scripted) Direct() bool { return !s.script.Streamed }

// Drops returns how many times the cursor was advanced.
func (s *Scripted) Drops() int { return s.drops }
