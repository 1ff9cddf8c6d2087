// Package main provides the GoStream server and maintenance commands.
//
// Build:
//
//	go build -o build/gostream ./cmd/gostream
//
// Run:
//
//	./build/gostream --config config/gostream.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/jsonfile"
	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/tagscan"
	"github.com/tejashwikalptaru/gostream/internal/adapter/httpapi"
	"github.com/tejashwikalptaru/gostream/internal/app"
	"github.com/tejashwikalptaru/gostream/internal/config"
	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/logger"
)

var (
	cli        = kingpin.New("gostream", "GoStream music streaming server")
	configPath = cli.Flag("config", "Path to config file (defaults apply when empty)").Envar("GOSTREAM_CONFIG").String()
	verbose    = cli.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()

	serveCmd = cli.Command("serve", "Start the server (default)").Default()

	catalogCmd = cli.Command("catalog", "Print the configured catalog and exit")

	scanCmd    = cli.Command("scan", "Build a catalog file from tagged audio files")
	scanDir    = scanCmd.Arg("dir", "Music directory").Required().ExistingDir()
	scanOut    = scanCmd.Flag("out", "Catalog file to write").Short('o').Default("songs.json").String()
	scanPrefix = scanCmd.Flag("url-prefix", "URL prefix of the audio files").Default("/songs").String()

	tokenCmd  = cli.Command("token", "Issue an API token for a user")
	tokenUser = tokenCmd.Arg("user", "User id").Required().String()
	tokenTTL  = tokenCmd.Flag("ttl", "Token lifetime (defaults to auth.token_ttl)").Duration()

	versionCmd = cli.Command("version", "Print version information")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	cli.Version(app.GetVersionInfo().String())
	command := kingpin.MustParse(cli.Parse(os.Args[1:]))

	if command == versionCmd.FullCommand() {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Logger()
	if *verbose {
		logCfg.Level = slog.LevelDebug
	}
	log := logger.NewLogger(logCfg)

	switch command {
	case catalogCmd.FullCommand():
		err = printCatalog(cfg, log, os.Stdout)
	case scanCmd.FullCommand():
		err = scan(log, *scanDir, *scanPrefix, *scanOut)
	case tokenCmd.FullCommand():
		err = issueToken(cfg, *tokenUser, *tokenTTL, os.Stdout)
	case serveCmd.FullCommand():
		err = serve(cfg, log)
	}

	if err != nil {
		log.Error("command failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
}

// serve runs the server until SIGINT or SIGTERM. Using a separate function
// ensures deferred shutdown runs even when returning with an error.
func serve(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		return errors.Wrap(err, "failed to create application")
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			log.Warn("shutdown error", slog.Any("error", err))
		}
	}()

	return application.Run(ctx)
}

// printCatalog loads the configured catalog and prints it as a table.
func printCatalog(cfg *config.Config, log *slog.Logger, out io.Writer) error {
	tracks, err := app.NewCatalogSource(cfg, log).Load(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}
	return writeTable(out, tracks)
}

func writeTable(out io.Writer, tracks []domain.Track) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tMOOD\tURL")
	for _, t := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Artist, t.Mood, t.URL)
	}
	fmt.Fprintf(w, "\n%d tracks\n", len(tracks))
	return w.Flush()
}

// scan reads the tags under dir and writes the catalog file.
func scan(log *slog.Logger, dir, prefix, out string) error {
	tracks, err := tagscan.New(tagscan.Config{Dir: dir, URLPrefix: prefix}, log).Load(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed to scan music directory")
	}
	if err := jsonfile.Write(out, tracks); err != nil {
		return err
	}
	log.Info("catalog written", slog.String("path", out), slog.Int("tracks", len(tracks)))
	return nil
}

// issueToken prints a signed token for user.
func issueToken(cfg *config.Config, user string, ttl time.Duration, out io.Writer) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.Newf("no JWT secret configured (set auth.jwt_secret or %s)", config.EnvJWTSecret)
	}
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}
	token, err := httpapi.IssueToken([]byte(cfg.Auth.JWTSecret), user, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
