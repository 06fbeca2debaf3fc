package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/faultline-io/faultline/pkg/api"
	"github.com/faultline-io/faultline/pkg/blob"
	"github.com/faultline-io/faultline/pkg/chaos"
	"github.com/faultline-io/faultline/pkg/reports"
	"github.com/faultline-io/faultline/pkg/runner"
	"github.com/faultline-io/faultline/pkg/scenario"
	"github.com/faultline-io/faultline/pkg/store"
	redisstore "github.com/faultline-io/faultline/pkg/store/redis"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"faultline-d"}`)

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf(`{"level":"fatal","msg":"invalid_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		fmt.Printf(`{"level":"fatal","msg":"failed_to_init_store","error":"%v"}`+"\n", err)
		os.Exit(1)
	}
	fmt.Printf(`{"level":"info","msg":"store_initialized","path":"%s"}`+"\n", cfg.DBPath)

	var injector chaos.Injector
	if cfg.InjectorURL != "" {
		injector = chaos.NewHTTPInjector(cfg.InjectorURL)
		fmt.Printf(`{"level":"info","msg":"injector_configured","url":"%s"}`+"\n", cfg.InjectorURL)
	} else {
		injector = chaos.NewMockInjector()
		fmt.Println(`{"level":"info","msg":"injector_configured","url":"mock"}`)
	}

	rn := runner.New(injector)

	var onStart []func(*runner.Run)
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		pub := redisstore.NewEventPublisher(rdb)
		onStart = append(onStart, func(run *runner.Run) {
			go pub.Forward(context.Background(), run)
		})
		fmt.Printf(`{"level":"info","msg":"run_event_fanout_enabled","redis":"%s"}`+"\n", cfg.RedisAddr)
	}
	if cfg.ArchiveDir != "" {
		arch := reports.NewArchiver(blob.NewLocalStore(cfg.ArchiveDir))
		onStart = append(onStart, func(run *runner.Run) {
			go func() {
				if err := arch.ArchiveWhenDone(context.Background(), run); err != nil {
					log.Printf("failed to archive run %s: %v", run.ID, err)
				}
			}()
		})
		fmt.Printf(`{"level":"info","msg":"run_archiving_enabled","dir":"%s"}`+"\n", cfg.ArchiveDir)
	}
	if len(onStart) > 0 {
		rn.OnRunStart(func(run *runner.Run) {
			for _, fn := range onStart {
				fn(run)
			}
		})
	}

	if cfg.PresetDir != "" {
		seedPresets(st, cfg.PresetDir)
	}

	server := api.NewServer(st, rn, injector, cfg.Addr)
	go func() {
		if err := server.Start(); err != nil {
			fmt.Printf(`{"level":"fatal","msg":"server_failed","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
	}()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stop_server","error":"%v"}`+"\n", err)
	}

	if err := st.Close(); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_close_store","error":"%v"}`+"\n", err)
	} else {
		fmt.Println(`{"level":"info","msg":"store_closed"}`)
	}

	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}

// seedPresets loads every YAML scenario in dir into the store, skipping
// files that fail to parse or validate.
func seedPresets(st *store.Store, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("preset dir unreadable: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		sc, err := scenario.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Printf("skipping preset %s: %v", e.Name(), err)
			continue
		}
		if err := st.SaveScenario(context.Background(), sc); err != nil {
			log.Printf("failed to seed preset %s: %v", e.Name(), err)
			continue
		}
		log.Printf("seeded preset scenario %q (%s)", sc.Name, sc.ID)
	}
}
