package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/scythe504/quizroom-backend/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ReleaseVersion = "0.1.0"
	EnvPrefix      = "QUIZROOM"
)

type Config struct {
	Bind           string
	Port           int
	WsPath         string
	MaxPlayers     int
	RoomTTL        time.Duration
	SweepInterval  time.Duration
	PingInterval   time.Duration
	RoundTimeLimit time.Duration
	DatabaseURL    string
	Verbose        bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if !strings.HasPrefix(c.WsPath, "/") {
		return fmt.Errorf("invalid ws-path (must start with /): %q", c.WsPath)
	}
	if c.MaxPlayers < internal.MinPlayersToStart || c.MaxPlayers > internal.MaxPlayersPerRoom {
		return fmt.Errorf("invalid max-players (must be between %d-%d inclusive): %d",
			internal.MinPlayersToStart, internal.MaxPlayersPerRoom, c.MaxPlayers)
	}
	if c.RoomTTL <= 0 {
		return errors.New("room-ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep-interval must be positive")
	}
	if c.PingInterval <= 0 {
		return errors.New("ping-interval must be positive")
	}
	if c.RoundTimeLimit < 0 {
		return errors.New("round-time-limit cannot be negative")
	}
	if c.RoundTimeLimit > internal.MaxRoundTimeLimit*time.Second {
		return fmt.Errorf("round-time-limit cannot exceed %ds", internal.MaxRoundTimeLimit)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// NewCommand builds the root command. Every flag can also come from QUIZROOM_<FLAG> in the
// environment, with dashes written as underscores; an explicit flag wins.
func NewCommand(cfg *Config, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "quizroom",
		Short:   "Real-time multiplayer quiz room server.",
		Args:    cobra.ExactArgs(0),
		Version: ReleaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return applyEnv(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZROOM_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: QUIZROOM_PORT)")
	fs.StringVar(&cfg.WsPath, "ws-path", "/ws", "path of the websocket endpoint (env: QUIZROOM_WS_PATH)")
	fs.IntVar(&cfg.MaxPlayers, "max-players", internal.MaxPlayersPerRoom, "upper bound on players per room (env: QUIZROOM_MAX_PLAYERS)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", internal.DefaultRoomTTL, "age at which rooms are force-closed (env: QUIZROOM_ROOM_TTL)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", internal.DefaultSweepInterval, "how often to look for expired rooms (env: QUIZROOM_SWEEP_INTERVAL)")
	fs.DurationVar(&cfg.PingInterval, "ping-interval", internal.DefaultPingInterval, "websocket heartbeat interval (env: QUIZROOM_PING_INTERVAL)")
	fs.DurationVar(&cfg.RoundTimeLimit, "round-time-limit", 0, "default server countdown per question, 0 to disable (env: QUIZROOM_ROUND_TIME_LIMIT)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres url for the results archive, empty to disable (env: QUIZROOM_DATABASE_URL)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display debug output (env: QUIZROOM_VERBOSE)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizroom v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// applyEnv fills every flag not given on the command line from the environment.
func applyEnv(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", EnvPrefix,
					strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
			}
		}
	})
	return errors.Join(errs...)
}
