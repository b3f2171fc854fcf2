package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/cedrusdb/go-cedrus/benchmark"
	"github.com/cedrusdb/go-cedrus/client"
)

const (
	defaultDir       = "/tmp/cedrus-benchmark"
	defaultDurationS = 60
	defaultKeySize   = 32
	defaultValueSize = 1024
	defaultWorkers   = 1
	defaultWorkload  = "ping"
	docString        = "For benchmarking the cedrus client transport.\n\n" +
		"Run a ping workload against a local server:\n" +
		"cedrus-benchmark cproto://127.0.0.1:6534/bench\n\n" +
		"Run a metadata read/write workload with four workers:\n" +
		"cedrus-benchmark cproto://127.0.0.1:6534/bench --workload meta --workers 4\n\n" +
		"The results can be found in " + defaultDir + " or in the directory provided\n" +
		"to the tool, in files named `n-q-timestamp.yaml` where `n` is the number of\n" +
		"the worker and `q` the type of request that was tracked."
)

func signalChannel() chan os.Signal {
	ch := make(chan os.Signal, 32)
	signal.Notify(ch, unix.SIGINT)
	signal.Notify(ch, unix.SIGQUIT)
	signal.Notify(ch, unix.SIGTERM)
	return ch
}

func main() {
	var dir string
	var duration int
	var keySize int
	var valueSize int
	var workers int
	var workload string
	var loginTimeout int

	cmd := &cobra.Command{
		Use:   "cedrus-benchmark <uri>",
		Short: "For benchmarking the cedrus client transport",
		Long:  docString,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(context.Background(), args[0],
				client.WithLoginTimeout(time.Duration(loginTimeout)*time.Second),
			)
			if err != nil {
				return err
			}
			defer c.Close()

			bm, err := benchmark.New(c, dir,
				benchmark.WithWorkload(workload),
				benchmark.WithDuration(duration),
				benchmark.WithWorkers(workers),
				benchmark.WithKeySize(keySize),
				benchmark.WithValueSize(valueSize),
			)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				<-signalChannel()
				cancel()
			}()

			if err := bm.Run(ctx); err != nil {
				return err
			}
			fmt.Printf("Benchmark done, results in %s\n", dir)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&dir, "dir", "d", defaultDir, "directory to write results to")
	flags.IntVarP(&duration, "duration", "u", defaultDurationS, "duration of the benchmark in seconds")
	flags.IntVarP(&keySize, "key-size", "s", defaultKeySize, "size of the metadata keys")
	flags.IntVarP(&valueSize, "value-size", "v", defaultValueSize, "size of the metadata values")
	flags.IntVarP(&workers, "workers", "w", defaultWorkers, "number of workers generating load")
	flags.StringVarP(&workload, "workload", "o", defaultWorkload, "workload to run (ping|meta)")
	flags.IntVarP(&loginTimeout, "login-timeout", "t", 10, "connect and login timeout in seconds")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
