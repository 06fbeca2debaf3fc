package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const defaultAddr = "127.0.0.1:8080"

type Config struct {
	DBPath      string
	Addr        string
	InjectorURL string // empty selects the in-memory mock injector
	RedisAddr   string // empty disables run-event fanout
	PresetDir   string // optional directory of YAML scenarios seeded on boot
	ArchiveDir  string // empty disables run report archiving
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "faultline.db")

	dbPath := envOrDefault("FAULTLINE_DB_PATH", defaultDBPath)
	addr := addrFromEnv(defaultAddr)
	injectorURL := os.Getenv("FAULTLINE_INJECTOR_URL")
	redisAddr := os.Getenv("FAULTLINE_REDIS_ADDR")
	presetDir := os.Getenv("FAULTLINE_PRESET_DIR")
	archiveDir := os.Getenv("FAULTLINE_ARCHIVE_DIR")

	flagSet := flag.NewFlagSet("faultline-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite database")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagInjector := flagSet.String("injector", injectorURL, "fault-injection controller URL (empty: in-memory mock)")
	flagRedis := flagSet.String("redis", redisAddr, "redis address for run-event fanout (empty: disabled)")
	flagPresets := flagSet.String("presets", presetDir, "directory of YAML scenario files to seed")
	flagArchive := flagSet.String("archive", archiveDir, "directory for archived run reports (empty: disabled)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	config := Config{
		DBPath:      resolvePath(*flagDB, cwd),
		Addr:        strings.TrimSpace(*flagAddr),
		InjectorURL: strings.TrimSpace(*flagInjector),
		RedisAddr:   strings.TrimSpace(*flagRedis),
		PresetDir:   resolvePath(*flagPresets, cwd),
		ArchiveDir:  resolvePath(*flagArchive, cwd),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("FAULTLINE_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("FAULTLINE_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
