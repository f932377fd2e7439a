package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/erazemk/zaloga/internal/config"
)

const usage = `Usage: zaloga [flags] [serve|add|list] [command flags]

Commands:
  serve                   run the web UI and JSON API (default)
  add                     add one item from the command line
  list                    print the inventory sorted by expiry date

Flags:
  -d, -db <path|url>      SQLite path or postgres:// URL (default: zaloga.sqlite3, env ZALOGA_DB)
  -a, -addr <host:port>   listen address (default: :8080, env ZALOGA_ADDR)
  -u, -user <name>        admin username on first run (default: Admin, env ZALOGA_ADMIN)
  -l, -log <path>         log file path (default: no file, env ZALOGA_LOG)
  -c, -camera <command>   camera command writing a JPEG to stdout (env ZALOGA_CAMERA_CMD)
  -v, -verbose            log debug messages
  -h, -help               show this help and exit

Photos are kept in the database unless S3_ENDPOINT is set.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("zaloga", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.DB, "db", cfg.DB, "")
	fs.StringVar(&cfg.DB, "d", cfg.DB, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.CameraCmd, "camera", cfg.CameraCmd, "")
	fs.StringVar(&cfg.CameraCmd, "c", cfg.CameraCmd, "")

	var verbose bool
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")

	fs.Usage = func() { fmt.Fprint(stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	closeLog, err := setupLogger(cfg.LogPath, verbose)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	command, rest := "serve", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "serve":
		if len(rest) > 0 {
			fmt.Fprintf(stderr, "unexpected argument: %s\n", rest[0])
			return 1
		}
		err = serve(cfg, stdout)
	case "add":
		err = addItem(cfg, rest, stdout, stderr)
	case "list":
		err = listItems(cfg, rest, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		fs.Usage()
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
