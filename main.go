package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"filemetahx/config"
	"filemetahx/core"
	"filemetahx/filemeta"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to config file")
	historyPath := flag.String("history", "history.json", "Path to history file")
	once := flag.Bool("once", false, "Run every task once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	hm := core.NewHistoryManager(*historyPath)
	if err := hm.Load(); err != nil {
		log.Printf("Warning: Failed to load history: %v", err)
	}

	tc := core.NewTranscoder(hm)
	runner := core.NewRunner(cfg, tc)

	if *once {
		err := runner.RunOnce()
		hm.Save()
		if err != nil {
			log.Printf("Run failed: %v", err)
			os.Exit(exitCode(err))
		}
		return
	}

	runner.Start()
	log.Println("filemetahx started...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	runner.Stop()
	hm.Save()
}

// exitCode maps the descriptor error taxonomy onto process exit codes so
// callers can script against the failure kind.
func exitCode(err error) int {
	if c := filemeta.CodeOf(err); c != filemeta.CodeOK {
		return c.ExitCode()
	}
	return 1
}
