package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lixenwraith/rlog"
	"github.com/lixenwraith/rlog/formatter"
	"github.com/lixenwraith/rlog/sink"
)

const configFile = "simple_config.toml"

// Example TOML content
var tomlContent = `
# Example simple_config.toml
[log]
  levels = "all"
  async = true
  shutdown_timeout_ms = 1000

[log.file]
  directory = "./simple_logs"
  prefix = "simple"
  max_file_size_bytes = 65536
  max_file_age_seconds = 3600
  max_file_count = 3
  max_message_length = 512
  internal_errors_to_stderr = true
`

// levelAudit is an application-defined severity
var levelAudit = rlog.CustomLevel(8)

func main() {
	fmt.Println("--- Simple Dispatcher Example ---")

	// --- Setup Config ---
	if err := os.WriteFile(configFile, []byte(tomlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write dummy config: %v\n", err)
		// Continue with defaults
	} else {
		fmt.Printf("Created dummy config file: %s\n", configFile)
	}

	cfg, err := rlog.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dispatcher config: %v\n", err)
		os.Exit(1)
	}
	fileCfg, err := sink.NewFileConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load file sink config: %v\n", err)
		os.Exit(1)
	}

	// --- Sinks ---
	console := sink.NewConsole(
		sink.WithWriter(os.Stdout),
		sink.WithFormatters(formatter.Complete("ℹ️")),
	)
	file, err := sink.NewRotatingFile(fileCfg,
		sink.WithFormatters(formatter.NewSanitize(), formatter.NewTimestamp(), formatter.NewCallSite()),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create file sink: %v\n", err)
		os.Exit(1)
	}

	builder := rlog.NewBuilder().Config(cfg).Sink(console).Sink(file)

	// Syslog is optional; not every host runs a daemon
	if sys, err := sink.NewSyslog(sink.WithSyslogTag("rlog-simple"),
		sink.WithFormatters(formatter.NewSanitize(formatter.SingleLine...))); err == nil {
		builder = builder.Sink(sys)
	} else {
		fmt.Printf("Syslog unavailable: %v\n", err)
	}

	d, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dispatcher: %v\n", err)
		os.Exit(1)
	}
	rlog.SetDefault(d)
	fmt.Printf("Dispatcher ready (%s). Files go to: %s\n", d.Policy(), fileCfg.Directory)

	// --- Logging ---
	rlog.Infof("application started, pid %d", os.Getpid())
	d.Debug(func() rlog.Message {
		return rlog.Text("expensive debug text is only built when debug is accepted")
	})
	d.Event(rlog.LevelInfo, "config",
		"file_limit", fileCfg.MaxFileSizeBytes,
		"files_kept", fileCfg.MaxFileCount,
		"policy", d.Policy())
	d.Logf(levelAudit, "audit trail entry for user %q", "ada")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				d.Event(rlog.LevelVerbose, "worker", "id", id, "step", j)
				time.Sleep(5 * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	rlog.Warningf("disk usage at %d%%", 91)
	rlog.Errorf("request failed: %v", os.ErrDeadlineExceeded)

	// Only errors from here on
	d.SetLevels(rlog.LevelError.Union(rlog.LevelFatal))
	rlog.Infof("this line is filtered")
	rlog.Fatalf("fatal entries are logged without exiting")

	if err := d.Flush(time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Flush failed: %v\n", err)
	}
	stats := file.Stats()
	fmt.Printf("File sink: %d created, %d reused, %d bytes written\n",
		stats.FilesCreated, stats.FilesReused, stats.BytesWritten)

	// --- Shutdown ---
	rlog.SetDefault(nil)
	if err := d.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("--- Example Finished ---")
}
