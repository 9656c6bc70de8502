package config

import (
	"strings"
	"time"

	"github.com/urfave/cli"
)

// Flag names, shared with the environment variables bound to them.
const (
	FlagConfig      = "config"
	FlagWorkerID    = "id"
	FlagListen      = "listen"
	FlagCoordinator = "coordinator"
	FlagPartitions  = "partitions"
	FlagDataDir     = "data-dir"
	FlagLockTimeout = "lock-timeout"
	FlagIdleTimeout = "idle-timeout"
	FlagAdminListen = "admin-listen"
	FlagEnv         = "env"
	FlagLogLevel    = "log-level"
	FlagLogFile     = "log-file"
)

// Flags returns the worker's command-line flags. Defaults live in Default,
// not here, so that an unset flag never masks a value from the YAML file.
func Flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   FlagConfig + ", c",
			Usage:  "YAML configuration `FILE`",
			EnvVar: "NODE_CONFIG",
		},
		cli.IntFlag{
			Name:   FlagWorkerID,
			Usage:  "worker `ID`, selects the default partitions and port (default 3)",
			EnvVar: "NODE_ID",
		},
		cli.StringFlag{
			Name:   FlagListen,
			Usage:  "task listener `HOST:PORT` (default :9100+id)",
			EnvVar: "NODE_LISTEN",
		},
		cli.StringFlag{
			Name:   FlagCoordinator,
			Usage:  "coordinator `HOST:PORT`, informational",
			EnvVar: "COORDINATOR_ADDR",
		},
		cli.StringSliceFlag{
			Name:   FlagPartitions,
			Usage:  "assigned partition `NAME`, repeatable or comma separated",
			EnvVar: "NODE_PARTITIONS",
		},
		cli.StringFlag{
			Name:   FlagDataDir,
			Usage:  "data root `DIR` (default ./data)",
			EnvVar: "NODE_DATA_DIR",
		},
		cli.DurationFlag{
			Name:   FlagLockTimeout,
			Usage:  "account lock wait (default 500ms)",
			EnvVar: "NODE_LOCK_TIMEOUT",
		},
		cli.DurationFlag{
			Name:   FlagIdleTimeout,
			Usage:  "close connections idle this long (default 60s)",
			EnvVar: "NODE_IDLE_TIMEOUT",
		},
		cli.StringFlag{
			Name:   FlagAdminListen,
			Usage:  "admin HTTP `HOST:PORT`, empty disables it",
			EnvVar: "NODE_ADMIN_LISTEN",
		},
		cli.StringFlag{
			Name:   FlagEnv,
			Usage:  "`ENV` dev or prod, prod logs JSON",
			EnvVar: "APP_ENV",
		},
		cli.StringFlag{
			Name:   FlagLogLevel,
			Usage:  "`LEVEL` debug, info, warn or error",
			EnvVar: "LOG_LEVEL",
		},
		cli.StringFlag{
			Name:   FlagLogFile,
			Usage:  "also append logs to `FILE`",
			EnvVar: "NODE_LOG_FILE",
		},
	}
}

// FromContext resolves the configuration for a cli invocation: defaults,
// then the --config file, then every flag or environment variable that was
// actually set.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Default()
	if path := c.String(FlagConfig); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if c.IsSet(name) {
			*dst = c.Duration(name)
		}
	}

	if c.IsSet(FlagWorkerID) {
		cfg.WorkerID = c.Int(FlagWorkerID)
	}
	if c.IsSet(FlagPartitions) {
		cfg.Partitions = splitList(c.StringSlice(FlagPartitions))
	}
	setString(FlagListen, &cfg.Listen)
	setString(FlagCoordinator, &cfg.Coordinator)
	setString(FlagDataDir, &cfg.DataDir)
	setString(FlagAdminListen, &cfg.AdminListen)
	setString(FlagEnv, &cfg.Env)
	setString(FlagLogLevel, &cfg.LogLevel)
	setString(FlagLogFile, &cfg.LogFile)
	setDuration(FlagLockTimeout, &cfg.LockTimeout)
	setDuration(FlagIdleTimeout, &cfg.IdleTimeout)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList flattens comma separated flag values and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
