package kv

import (
	"context"
	"time"

	"github.com/okian/handball/pkg/metrics"
)

// instrumented records backend latency and errors for every operation.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so that every operation is reported to metrics.
func Instrument(s Store) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{Store: s, backend: string(s.Driver())}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	metrics.RecordKVOperation(i.backend, op, float64(time.Since(start).Microseconds())/1000, err != nil)
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	v, ok, err := i.Store.Get(ctx, key)
	i.observe("get", start, err)
	return v, ok, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.Store.Set(ctx, key, value)
	i.observe("set", start, err)
	return err
}

func (i *instrumented) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Store.Remove(ctx, key)
	i.observe("remove", start, err)
	return err
}
