package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Faffo96/news-exercise-front/internal/config"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "newsdesk",
	Short:         "Terminal editor for the news backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("newsdesk %s\n", Version)
		fmt.Println("News editor")
		fmt.Println("github.com/Faffo96/news-exercise-front")
	},
}

var configGenCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default configuration file",
	Run: func(_ *cobra.Command, _ []string) {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to generate config: %w", err))
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&dbPath, "db", "", "Path to cache database (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	rootCmd.AddCommand(versionCmd, configGenCmd)
}

func main() {
	defer debuglog.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !quiet {
		fmt.Println(tui.Banner(Version))
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	searcher := s.searcher()
	app := tui.NewApp(s.cfg, tui.Deps{
		Engine:   s.engine,
		Searcher: searcher,
		Account:  s.account(),
		CachedAt: s.cachedAt,
		Context:  s.ctx,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
