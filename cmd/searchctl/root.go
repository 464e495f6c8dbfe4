package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/config"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/logger"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/session/sqldb"
)

const (
	configDirFlag   = "config-dir"
	databaseURIFlag = "database-uri"
	databaseURIConf = "database.uri"
	logLevelFlag    = "log-level"
	logLevelConf    = "log.level"
	logFormatFlag   = "log-format"
	logFormatConf   = "log.format"
)

// app carries the configuration shared by every subcommand.
type app struct {
	v *viper.Viper
}

// newRootCommand reads settings from flags, ASCETIC_SEARCH_ prefixed
// environment variables and config.yaml, in that order.
func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "searchctl",
		Short:         "Inspect search continuation tokens, query hashes and tunables",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			dirs := []string{"/etc/ascetic-search", "$HOME/.ascetic-search", "."}
			if dir, _ := cmd.Flags().GetString(configDirFlag); dir != "" {
				dirs = []string{dir}
			}
			a.v = config.NewViper(dirs...)
			flags := cmd.Flags()
			for key, flag := range map[string]string{
				databaseURIConf: databaseURIFlag,
				logLevelConf:    logLevelFlag,
				logFormatConf:   logFormatFlag,
			} {
				if f := flags.Lookup(flag); f != nil {
					if err := a.v.BindPFlag(key, f); err != nil {
						return errors.Wrapf(err, "failed to bind flag %s", flag)
					}
				}
			}
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.String(configDirFlag, "", "directory holding config.yaml")
	flags.String(databaseURIFlag, "", "SQL Server connection uri")
	flags.String(logLevelFlag, "info", "log level: none, debug, info, warn or error")
	flags.String(logFormatFlag, "text", "log format: text or json")

	root.AddCommand(
		newTokenCommand(),
		newIncludesTokenCommand(),
		newHashCommand(),
		newStripCommand(),
		newCustomQueriesCommand(a),
		newParameterCommand(a),
	)
	return root
}

func (a *app) config() (*config.Config, error) {
	return config.Load(a.v)
}

// open connects to the configured database.
func (a *app) open() (*sqldb.SessionPool, *config.Config, logger.Logger, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database.URI == "" {
		return nil, nil, nil, errors.New("database uri is required, set --database-uri or ASCETIC_SEARCH_DATABASE_URI")
	}
	l, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	pool, err := sqldb.OpenMssql(cfg.Database.URI, sqldb.Config{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		PingTimeout:     cfg.Database.PingTimeout,
		Logger:          l,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return pool, cfg, l, nil
}

// input reads the named file, or standard input when no file is given.
func input(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", errors.Wrap(err, "unable to open input")
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "unable to read input")
	}
	return string(b), nil
}
