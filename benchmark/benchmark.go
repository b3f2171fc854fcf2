// Package benchmark generates load against a cedrus server through the
// client transport and tracks per-request latencies.
package benchmark

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/cedrusdb/go-cedrus/client"
)

type Benchmark struct {
	client  *client.Client
	dir     string
	options *options
	workers []*worker
}

func createWorkers(o *options) []*worker {
	workers := make([]*worker, o.nWorkers)
	for i := 0; i < o.nWorkers; i++ {
		workers[i] = newWorker(o)
	}
	return workers
}

// New creates a benchmark running over the given client, writing result
// files to dir.
func New(c *client.Client, dir string, options ...Option) (*Benchmark, error) {
	o := defaultOptions()
	for _, option := range options {
		option(o)
	}
	if o.nWorkers < 1 {
		return nil, errors.Errorf("invalid number of workers %d", o.nWorkers)
	}

	bm := &Benchmark{
		client:  c,
		dir:     dir,
		options: o,
		workers: createWorkers(o),
	}

	return bm, nil
}

// Run the configured workload for the configured duration, then write one
// report file per worker and work type.
func (bm *Benchmark) Run(ctx context.Context) error {
	if err := os.MkdirAll(bm.dir, 0755); err != nil {
		return errors.Wrapf(err, "can't create %s", bm.dir)
	}

	ctx, cancel := context.WithTimeout(ctx, bm.options.duration)
	defer cancel()

	wg := sync.WaitGroup{}
	for _, w := range bm.workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.run(ctx, bm.client)
		}(w)
	}
	wg.Wait()

	return bm.writeReports()
}

func (bm *Benchmark) writeReports() error {
	stamp := time.Now().Unix()
	for i, worker := range bm.workers {
		for work, report := range worker.tracker.report() {
			data, err := yaml.Marshal(report)
			if err != nil {
				return errors.Wrap(err, "marshal report")
			}
			file := path.Join(bm.dir, fmt.Sprintf("%d-%s-%d.yaml", i, work, stamp))
			if err := os.WriteFile(file, data, 0644); err != nil {
				return errors.Wrapf(err, "write report %s", file)
			}
		}
	}
	return nil
}
