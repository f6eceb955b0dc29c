package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/rlog"
	"github.com/lixenwraith/rlog/formatter"
	"github.com/lixenwraith/rlog/sink"
)

const maxMessageSize = 2000

var levels = []rlog.Level{
	rlog.LevelVerbose,
	rlog.LevelDebug,
	rlog.LevelInfo,
	rlog.LevelWarning,
	rlog.LevelError,
}

func main() {
	if err := createApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "stress: %v\n", err)
		os.Exit(1)
	}
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "drive concurrent load through a rotating file dispatcher",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 50, Usage: "concurrent producers"},
			&cli.IntFlag{Name: "messages", Aliases: []string{"n"}, Value: 2000, Usage: "messages per producer"},
			&cli.StringFlag{Name: "dir", Value: "./logs", Usage: "log directory"},
			&cli.StringFlag{Name: "levels", Value: "all", Usage: "accepted levels, e.g. info,error"},
			&cli.IntFlag{Name: "max-size", Value: 256 * 1024, Usage: "file size limit in bytes"},
			&cli.IntFlag{Name: "max-files", Value: 10, Usage: "files kept on disk"},
			&cli.BoolFlag{Name: "async", Value: true, Usage: "deliver on the background lane"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "flush and shutdown wait"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd)
		},
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	fileCfg := sink.DefaultFileConfig()
	fileCfg.Directory = cmd.String("dir")
	fileCfg.Prefix = "stress"
	fileCfg.MaxFileSizeBytes = int64(cmd.Int("max-size"))
	fileCfg.MaxFileCount = int64(cmd.Int("max-files"))
	fileCfg.InternalErrorsToStderr = true

	var sinkErrors atomic.Int64
	fileSink, err := sink.NewRotatingFile(fileCfg,
		sink.WithFormatters(formatter.NewSanitize(), formatter.Complete("🔹")),
		sink.WithErrorHandler(func(err error) {
			if sinkErrors.Add(1) <= 10 {
				fmt.Fprintf(os.Stderr, "\nsink error: %v\n", err)
			}
		}),
	)
	if err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	d, err := rlog.NewBuilder().
		LevelString(cmd.String("levels")).
		Async(cmd.Bool("async")).
		ShutdownTimeoutMs(timeout.Milliseconds()).
		InternalErrorsToStderr(true).
		Sink(fileSink).
		Build()
	if err != nil {
		_ = fileSink.Close()
		return err
	}
	defer func() {
		if err := d.Close(timeout); err != nil {
			fmt.Fprintf(os.Stderr, "close: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := cmd.Int("workers")
	perWorker := cmd.Int("messages")
	total := int64(workers * perWorker)
	absDir, _ := filepath.Abs(fileCfg.Directory)
	fmt.Printf("Starting stress test: %d workers x %d messages, policy %s, logs in %s\n",
		workers, perWorker, d.Policy(), absDir)

	var sent atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for i := 0; i < perWorker; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				level := levels[rng.Intn(len(levels))]
				msg := randomMessage(rng, rng.Intn(maxMessageSize)+10)
				d.Event(level, "burst", "wkr", worker, "seq", i, "msg", msg)

				if n := sent.Add(1); n%10000 == 0 || n == total {
					fmt.Printf("\rProgress: %d/%d messages", n, total)
				}
			}
			return nil
		})
	}

	waitErr := g.Wait()
	fmt.Println()
	if err := d.Flush(timeout); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
	}

	elapsed := time.Since(start)
	stats := fileSink.Stats()
	fmt.Printf("Sent %d messages in %v (%.0f msg/s)\n",
		sent.Load(), elapsed.Round(time.Millisecond), float64(sent.Load())/elapsed.Seconds())
	fmt.Printf("Files created %d, reused %d, rotations %d, deletions %d, bytes %d, dropped %d, sink errors %d\n",
		stats.FilesCreated, stats.FilesReused, stats.Rotations, stats.Deletions,
		stats.BytesWritten, stats.DroppedWrites, sinkErrors.Load())

	if waitErr != nil && ctx.Err() != nil {
		fmt.Println("Interrupted")
		return nil
	}
	return waitErr
}

func randomMessage(rng *rand.Rand, size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rng.Intn(len(chars))])
	}
	return sb.String()
}
