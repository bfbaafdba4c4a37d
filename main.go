// Package main provides the entry point for the mgtts CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MattGrayYes/MGTTS/internal/utils"
	"github.com/MattGrayYes/MGTTS/tts"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	serverAddr string
	modelName  string
	speaker    int
	outputPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "mgtts [flags] TEXT",
		Short: "Speak text via a Wyoming / Piper TTS server",
		Long: paragraph(
			fmt.Sprintf("\nSend text to a %s TTS server (such as Piper), then play the synthesized speech or save it as a WAV file.", keyword("Wyoming")),
		),
		Example:       "  mgtts -w 10.0.0.69:10200 \"Hello World\"\n  mgtts -m en_GB-cori-high -o hello.wav \"Hello World\"",
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return resolveOptions()
		},
		RunE: execute,
	}
)

// resolveOptions merges config-file values with command-line overrides.
// Flags are bound to Viper, so flag values win over the config file.
func resolveOptions() error {
	serverAddr = viper.GetString("server")
	modelName = viper.GetString("model")
	speaker = viper.GetInt("speaker")
	outputPath = viper.GetString("output")
	debug = viper.GetBool("debug")

	if debug {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		cmd.SilenceUsage = false
		return tts.ErrEmptyText
	}
	if serverAddr == "" {
		cmd.SilenceUsage = false
		return fmt.Errorf("%w: use -w HOST:PORT or set server in %s", tts.ErrNoServer, configFile)
	}

	host, port, err := tts.ParseServerAddress(serverAddr)
	if err != nil {
		cmd.SilenceUsage = false
		return err
	}

	req := tts.SynthesisRequest{
		Host:    host,
		Port:    port,
		Model:   modelName,
		Speaker: speaker,
		Text:    text,
	}

	var opts tts.Options
	if outputPath != "" {
		opts.OutputPath = utils.ExpandPath(outputPath)
	}

	// An interrupt cancels the exchange and kills any running player.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := tts.NewController(log.Default()).Speak(ctx, req, opts)
	if err != nil {
		if tts.IsUsageError(err) {
			cmd.SilenceUsage = false
		}
		return err
	}

	fmt.Println(outcome.Describe())
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&serverAddr, "wyoming", "w", "", "Wyoming TTS server address (host:port)")
	rootCmd.Flags().StringVarP(&modelName, "model", "m", "", "model (voice) name to use")
	rootCmd.Flags().IntVarP(&speaker, "speaker", "s", 0, "speaker number within the model")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write a WAV file instead of playing")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "print protocol events to stderr")

	// Config bindings
	_ = viper.BindPFlag("server", rootCmd.Flags().Lookup("wyoming"))
	_ = viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("speaker", rootCmd.Flags().Lookup("speaker"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	viper.SetDefault("speaker", 0)
	viper.SetDefault("debug", false)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "mgtts")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "mgtts")}, dirs...)
	}

	if c := os.Getenv("MGTTS_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("mgtts")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("mgtts")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "mgtts.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
