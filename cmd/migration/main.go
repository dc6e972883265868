package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/riskibarqy/office-pools/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
)

var errUsage = errors.New("usage")

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (uint, bool, error)
}

type plan struct {
	action  string
	steps   int
	version int
	target  uint
}

// migrateLogger adapts the zap facade to migrate.Logger.
type migrateLogger struct {
	logger *logging.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrateLogger) Verbose() bool { return false }

func main() {
	logger := logging.NewJSON(logging.ParseLevel(os.Getenv("APP_LOG_LEVEL")), "office-pools-migration", "dev")
	defer func() { _ = logger.Sync() }()

	p, err := parsePlan(os.Args[1:])
	if err != nil {
		printUsage(os.Stderr)
		if !errors.Is(err, errUsage) {
			logger.Error("invalid arguments", "error", err)
		}
		_ = logger.Sync()
		os.Exit(2)
	}

	if err := run(p, logger); err != nil {
		logger.Error("migration failed", "action", p.action, "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(p plan, logger *logging.Logger) error {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if envBool("DB_DISABLE_PREPARED_BINARY_RESULT") {
		dbURL = postgres.DisablePreparedBinaryResult(dbURL)
	}

	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}
	sourceURL := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("create migrator source=%s: %w", sourceURL, err)
	}
	m.Log = migrateLogger{logger: logger}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("close migration db", "error", dbErr)
		}
	}()

	logger.Info("running migration", "action", p.action, "source", sourceURL, "db_name", postgres.DatabaseName(dbURL))
	return execute(m, p, logger, os.Stdout)
}

func parsePlan(args []string) (plan, error) {
	if len(args) == 0 {
		return plan{}, errUsage
	}

	p := plan{action: strings.ToLower(strings.TrimSpace(args[0]))}
	rest := args[1:]
	var err error
	switch p.action {
	case "up", "version":
	case "down":
		p.steps, err = parseSteps(rest)
	case "force":
		if len(rest) == 0 {
			return plan{}, fmt.Errorf("force requires a version argument")
		}
		p.version, err = parseVersion(rest[0])
	case "goto", "migrate":
		if len(rest) == 0 {
			return plan{}, fmt.Errorf("%s requires a target version argument", p.action)
		}
		p.action = "goto"
		p.target, err = parseTarget(rest[0])
	default:
		return plan{}, fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if err != nil {
		return plan{}, err
	}
	return p, nil
}

// execute treats migrate.ErrNoChange as success.
func execute(m migrator, p plan, logger *logging.Logger, out io.Writer) error {
	var err error
	switch p.action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-p.steps)
	case "goto":
		err = m.Migrate(p.target)
	case "force":
		if err := m.Force(p.version); err != nil {
			return fmt.Errorf("force version %d: %w", p.version, err)
		}
		logger.Info("forced migration version", "version", p.version)
		return nil
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			_, _ = fmt.Fprintln(out, "version: none\ndirty: false")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read version: %w", verr)
		}
		_, _ = fmt.Fprintf(out, "version: %d\ndirty: %t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, p.action)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes", "action", p.action)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("migration complete", "action", p.action, "steps", p.steps, "target", p.target)
	return nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return v, nil
}

func parseTarget(raw string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(v), nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		os.Getenv("MIGRATIONS_DIR"),
		os.Getenv("MIGRATIONS_PATH"),
		"./db/migrations",
		"/app/db/migrations",
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, MIGRATIONS_PATH, ./db/migrations, /app/db/migrations)")
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func printUsage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	_, _ = fmt.Fprintf(w, "usage: %s <up|down [n]|version|force <version>|goto <version>>\n", name)
	_, _ = fmt.Fprintf(w, "example: %s goto 1771800300\n", name)
}
