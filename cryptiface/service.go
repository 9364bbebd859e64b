// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package cryptiface is the device-style surface of cryptodev. A
// Service owns the key registry; each Open returns a Handle that, like
// an open file descriptor of a character device, accepts control
// commands with fixed-layout arguments, takes data through Write and
// hands transformed data back through Read.
//
// Besides handles, a Service offers a status listing of an owner's
// keys (Overview) and a line-oriented key control channel per
// algorithm (KeyControl).
//
//	svc, err := cryptiface.New(cryptiface.DefaultConfig(), nil, nil)
//	...
//	h, err := svc.Open(owner)
//	id, err := cryptiface.AddKey(ctx, h, blockcipher.DES, "DEADBABEDEADBEEF")
//	err = cryptiface.SetCurrent(ctx, h, blockcipher.DES, id, true)
//	n, err := h.Write(ctx, data)
package cryptiface

import (
	"context"
	"sync"

	"github.com/xyzzyz/cryptodev/blockcipher"
	"github.com/xyzzyz/cryptodev/errors"
	"github.com/xyzzyz/cryptodev/eventlog"
	"github.com/xyzzyz/cryptodev/keystore"
	"github.com/xyzzyz/cryptodev/log"
	"github.com/xyzzyz/cryptodev/session"
	"github.com/xyzzyz/cryptodev/shutdown"
	"github.com/xyzzyz/cryptodev/sync/multierror"
)

// Service is a cryptodev instance: a key registry shared by the
// handles opened on it.
type Service struct {
	config   Config
	engine   blockcipher.Engine
	eventer  eventlog.Eventer
	registry *keystore.Registry

	mu      sync.Mutex
	handles map[*Handle]bool
	closed  bool
}

// New returns a service configured by config. A nil engine selects
// the software engine over blockcipher.Default; a nil eventer
// disables audit events.
func New(config Config, engine blockcipher.Engine, eventer eventlog.Eventer) (*Service, error) {
	if engine == nil {
		engine = blockcipher.NewSoftEngine(nil)
	}
	if err := config.ValidateEngine(engine); err != nil {
		return nil, err
	}
	if eventer == nil {
		eventer = eventlog.Nop{}
	}
	return &Service{
		config:   config,
		engine:   engine,
		eventer:  eventer,
		registry: keystore.NewRegistry(config.keystoreOptions(eventer)),
		handles:  make(map[*Handle]bool),
	}, nil
}

// RegisterShutdown arranges for the service to be closed by
// shutdown.Run.
func (s *Service) RegisterShutdown() {
	shutdown.Register(s.Close)
}

// Config returns the service's configuration.
func (s *Service) Config() Config { return s.config }

// Open opens a handle for owner, creating the owner's key store on
// first use.
func (s *Service) Open(owner keystore.OwnerID) (*Handle, error) {
	store, err := s.registry.GetOrCreate(owner)
	if err != nil {
		return nil, err
	}
	h := &Handle{
		svc:     s,
		store:   store,
		session: session.New(store, s.engine, s.config.sessionOptions(s.eventer)),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.E(errors.Unavailable, "service is closed")
	}
	s.handles[h] = true
	return h, nil
}

// Close closes every open handle and then tears down the key
// registry, wiping all keys. The service refuses new handles from the
// first call on. Handles and stores that fail to close, for instance
// because ctx is done while a write is in flight, are kept, and a
// later Close retries them; Close returns nil once all are closed.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	var (
		errs = multierror.NewBuilder(8)
		n    int
	)
	for _, h := range handles {
		if err := h.Close(ctx); err != nil {
			errs.Add(err)
			continue
		}
		n++
	}
	errs.Add(s.registry.Close(ctx))
	if n > 0 {
		log.Printf("cryptiface: closed %d open handles", n)
	}
	return errs.Err()
}

func (s *Service) forget(h *Handle) {
	s.mu.Lock()
	delete(s.handles, h)
	s.mu.Unlock()
}

func (s *Service) store(owner keystore.OwnerID) (*keystore.Store, error) {
	return s.registry.GetOrCreate(owner)
}
