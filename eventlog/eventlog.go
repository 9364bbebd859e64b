// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package eventlog records semi-structured audit events: key slots
// being filled and cleared, owner stores being created, sessions
// being configured and closed. Events carry slot indices, owner ids
// and algorithm names, never key material.
//
//	e := eventlog.Log(log.Info)
//	e.Event("keyAdded", "owner", 1000, "slot", 3, "alg", "des")
package eventlog

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/xyzzyz/cryptodev/log"
)

// Eventer is called to log events.
type Eventer interface {
	// Event logs an event of typ with (key string, value interface{})
	// fields given in fieldPairs as k0, v0, k1, v1, ...kn, vn.
	//
	// The key "eventType" is reserved. Field keys must be unique
	// strings. Any violation results in the event being dropped and
	// logged.
	//
	// Implementations must be safe for concurrent use.
	Event(typ string, fieldPairs ...interface{})
}

// Nop is a no-op Eventer.
type Nop struct{}

var _ Eventer = Nop{}

func (Nop) String() string {
	return "disabled"
}

// Event implements Eventer.
func (Nop) Event(_ string, _ ...interface{}) {}

// Log is an Eventer that writes events to the logger at the given
// level.
type Log log.Level

var _ Eventer = Log(log.Debug)

// Event implements Eventer.
func (l Log) Event(typ string, fieldPairs ...interface{}) {
	if err := validate(fieldPairs); err != nil {
		log.Error.Printf("eventlog: dropping %s event: %v", typ, err)
		return
	}
	f := bytes.NewBufferString("eventlog: %s {")
	for i := range fieldPairs {
		f.WriteString("%v")
		if i%2 == 0 {
			f.WriteString(": ")
		} else if i < len(fieldPairs)-1 {
			f.WriteString(", ")
		}
	}
	f.WriteByte('}')
	log.Level(l).Printf(f.String(), append([]interface{}{typ}, fieldPairs...)...)
}

// Event is one event held by a Recorder.
type Event struct {
	Type   string
	Fields map[string]interface{}
}

// Recorder is an Eventer that keeps valid events in memory, in the
// order they were logged.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Eventer = (*Recorder)(nil)

// Event implements Eventer.
func (r *Recorder) Event(typ string, fieldPairs ...interface{}) {
	if err := validate(fieldPairs); err != nil {
		log.Error.Printf("eventlog: dropping %s event: %v", typ, err)
		return
	}
	fields := make(map[string]interface{}, len(fieldPairs)/2)
	for i := 0; i < len(fieldPairs); i += 2 {
		fields[fieldPairs[i].(string)] = fieldPairs[i+1]
	}
	r.mu.Lock()
	r.events = append(r.events, Event{Type: typ, Fields: fields})
	r.mu.Unlock()
}

// Events returns the recorded events of the given types, or all
// events if no type is given.
func (r *Recorder) Events(types ...string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if len(types) == 0 {
			out = append(out, e)
			continue
		}
		for _, typ := range types {
			if e.Type == typ {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func validate(fieldPairs []interface{}) error {
	if len(fieldPairs)%2 != 0 {
		return fmt.Errorf("odd number of field arguments: %d", len(fieldPairs))
	}
	seen := make(map[string]bool, len(fieldPairs)/2)
	for i := 0; i < len(fieldPairs); i += 2 {
		key, ok := fieldPairs[i].(string)
		if !ok {
			return fmt.Errorf("field key %v is a %T, not a string", fieldPairs[i], fieldPairs[i])
		}
		if key == "eventType" {
			return fmt.Errorf("field key %q is reserved", key)
		}
		if seen[key] {
			return fmt.Errorf("duplicate field key %q", key)
		}
		seen[key] = true
	}
	return nil
}
