package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"notifier-go/internal/app"
	"notifier-go/internal/config"
	"notifier-go/internal/database"
	"notifier-go/internal/model"
	"notifier-go/internal/notify"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a NotifierApp. The caller must defer app.Close().
func newApp(cmd *cobra.Command) (*app.NotifierApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewNotifierApp(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Forum notification digests",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new host ID
		hostID := uuid.New().String()

		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:  %s\n", cfg.HostID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		wikis := make([]string, len(cfg.Wikis))
		for i, w := range cfg.Wikis {
			wikis[i] = w.ID
		}
		fmt.Printf("Wikis:    %s\n", strings.Join(wikis, ", "))
		fmt.Printf("Database: %s\n", cfg.Database.Type)
		fmt.Printf("Source:   %s\n", cfg.Source.Type)
		fmt.Printf("Delivery: %s\n", cfg.Delivery.Type)
		fmt.Printf("Dump:     %s\n", cfg.Dump.Type)
		return nil
	},
}

var configAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store the delivery account password",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		if cfg.Delivery.Username != "" {
			fmt.Printf("Delivery password for %s: ", cfg.Delivery.Username)
		} else {
			fmt.Print("Delivery password: ")
		}
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		path := config.AuthPath(cfg.BaseDir)
		auth := &config.Auth{DeliveryPassword: string(password)}
		if err := config.WriteAuthToFile(path, auth); err != nil {
			return fmt.Errorf("writing auth file: %w", err)
		}

		fmt.Printf("Credentials stored at %s\n", path)
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		m, ok := db.(interface{ MigrateUp() error })
		if !ok {
			return fmt.Errorf("database type %s does not support migrations", cfg.Database.Type)
		}
		if err := m.MigrateUp(); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		fmt.Println("Database is up to date.")
		return nil
	},
}

// notify command
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Run the notification pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		channels, _ := cmd.Flags().GetStringSlice("channel")
		sinceRaw, _ := cmd.Flags().GetString("since")

		var since time.Time
		if sinceRaw != "" {
			var err error
			since, err = time.Parse(time.RFC3339, sinceRaw)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.Notify(cmd.Context(), channels, since)
		if err != nil {
			return fmt.Errorf("notify failed: %w", err)
		}
		if m == nil {
			fmt.Println("No channels due.")
			return nil
		}

		fmt.Printf("Run #%d finished in %s: %d new posts, %d users configured\n",
			m.ID,
			m.EndTimestamp.Sub(m.StartTimestamp).Truncate(time.Millisecond),
			m.DownloadedPostCount,
			m.UserCount,
		)
		return nil
	},
}

// channels command
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List frequency channels",
	Run: func(cmd *cobra.Command, args []string) {
		now := time.Now().UTC()
		for _, f := range notify.Frequencies() {
			due := ""
			if f.DueAt(now) {
				due = "  [due now]"
			}
			fmt.Printf("%-10s  %s%s\n", f, f.Crontab(), due)
		}
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("#%d  %s  %s  posts:%d threads:%d users:%d wikis:%d\n",
				r.ID,
				r.StartTimestamp.Format("2006-01-02 15:04:05"),
				r.EndTimestamp.Sub(r.StartTimestamp).Truncate(time.Millisecond),
				r.DownloadedPostCount,
				r.DownloadedThreadCount,
				r.UserCount,
				r.SitesCount,
			)
		}
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage notification users",
}

var userSetCmd = &cobra.Command{
	Use:   "set USER_ID USERNAME FREQUENCY",
	Short: "Register or update a user",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user := model.User{
			ID:        args[0],
			Username:  args[1],
			Frequency: args[2],
		}
		if err := a.SetUser(user); err != nil {
			return fmt.Errorf("setting user: %w", err)
		}

		fmt.Printf("User %s set to channel %s\n", user.Username, user.Frequency)
		return nil
	},
}

// sub command
var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Manage manual subscription overrides",
}

var subAddCmd = &cobra.Command{
	Use:   "add USER_ID THREAD_ID [POST_ID]",
	Short: "Add a subscription override",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		veto, _ := cmd.Flags().GetBool("veto")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		postID := ""
		if len(args) == 3 {
			postID = args[2]
		}
		if err := a.Subscribe(args[0], args[1], postID, veto); err != nil {
			return fmt.Errorf("adding override: %w", err)
		}

		kind := "subscription"
		if veto {
			kind = "unsubscription"
		}
		fmt.Printf("Added %s override for user %s\n", kind, args[0])
		return nil
	},
}

var subRemoveCmd = &cobra.Command{
	Use:   "remove USER_ID THREAD_ID [POST_ID]",
	Short: "Remove a subscription override",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		postID := ""
		if len(args) == 3 {
			postID = args[2]
		}
		if err := a.Unsubscribe(args[0], args[1], postID); err != nil {
			return fmt.Errorf("removing override: %w", err)
		}

		fmt.Printf("Removed override for user %s\n", args[0])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configAuthCmd)

	// user subcommands
	userCmd.AddCommand(userSetCmd)

	// sub subcommands
	subCmd.AddCommand(subAddCmd)
	subAddCmd.Flags().Bool("veto", false, "Record an unsubscription instead of a subscription")
	subCmd.AddCommand(subRemoveCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.Flags().StringSlice("channel", nil, "Channel(s) to activate; default is whichever are due now")
	notifyCmd.Flags().String("since", "", "Force the window lower bound (RFC3339)")
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(subCmd)
}
