package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/build"
	"github.com/gYonder/genai-shell/internal/commands"
	"github.com/gYonder/genai-shell/internal/config"
	"github.com/gYonder/genai-shell/internal/logger"
	"github.com/gYonder/genai-shell/internal/session"
	"github.com/gYonder/genai-shell/internal/shell"
	"github.com/gYonder/genai-shell/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 && args[0] == "--version" {
		fmt.Println(build.Version)
		return 0
	}
	interactive := len(args) == 0

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	ui.ApplyTheme(cfg.Theme)

	log, err := logger.New(cfg.LogMode, cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		log = logger.Nop()
	}
	defer log.Sync()

	if cfg.Token == "" && interactive && term.IsTerminal(int(os.Stdin.Fd())) {
		token, err := promptForToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if token != "" {
			cfg.Token = token
			if promptYesNo("Save token to config file?") {
				saveToken(token)
			}
		}
	}

	client := api.NewHTTPClient(cfg.APIURL, cfg.Token)
	client.UploadProxyURL = cfg.UploadProxyURL
	client.Logger = log

	sess := session.NewSession(client, api.NewCategoryCache(), log)
	sess.Host = hostOf(cfg.APIURL)
	sess.PollInterval = cfg.PollInterval
	sess.UploadConcurrency = cfg.UploadConcurrency
	sess.AllowedExtensions = cfg.AllowedExtensions
	sess.MaxMemoryBufferMB = cfg.MaxMemoryBufferMB
	for k, v := range cfg.Aliases {
		sess.Aliases[k] = v
	}
	if path, err := config.ConfigPath(); err == nil {
		sess.ConfigPath = path
	}
	defer sess.Unmount()

	log.Info("starting", "version", build.Version, "api_url", cfg.APIURL, "interactive", interactive)

	if !interactive {
		return runOnce(sess, args)
	}
	return runShell(sess, cfg)
}

// runOnce executes a single command from the process arguments
func runOnce(sess *session.Session, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &commands.ExecutionEnv{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	err := shell.RunArgs(ctx, sess, args, env)
	if err != nil && !errors.Is(err, commands.ErrExit) {
		shell.PrintError(os.Stderr, err)
		return 1
	}
	return 0
}

func runShell(sess *session.Session, cfg *config.Config) int {
	updateMsg := make(chan string, 1)
	go checkForUpdates(updateMsg)

	err := ui.WithSpinnerErr(os.Stderr, "Connecting...", true, func() error {
		return sess.Cache.Load(context.Background(), sess.Client)
	})
	if err != nil {
		shell.PrintError(os.Stderr, fmt.Errorf("failed to load categories: %w", err))
		return 1
	}

	sh, err := shell.New(sess, cfg.HistorySize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start shell: %v\n", err)
		return 1
	}

	select {
	case msg := <-updateMsg:
		if msg != "" {
			fmt.Fprint(os.Stderr, msg)
		}
	default:
	}

	sh.Run()
	return 0
}

// hostOf returns the host of the API URL for the prompt
func hostOf(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return "genai"
	}
	return u.Host
}

func promptForToken() (string, error) {
	fmt.Println("No API token configured.")
	fmt.Println("Paste a token, or press Enter to continue without one.")
	fmt.Print("Token: ")

	token, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}

func promptYesNo(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [Y/n]: ", question)

	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "" || answer == "y" || answer == "yes"
}

func saveToken(token string) {
	path, err := config.ConfigPath()
	if err == nil {
		err = config.SaveToken(path, token)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to save config: %v\n", err)
		return
	}
	fmt.Printf("Token saved to %s\n", path)
}

func checkForUpdates(result chan<- string) {
	defer close(result)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	latest, err := build.LatestRelease(ctx, http.DefaultClient, build.ReleasesURL)
	if err != nil || !build.Newer(latest, build.Version) {
		return
	}
	result <- fmt.Sprintf("%s %s -> %s\nDownload it from %s\n",
		ui.SuccessStyle.Render("Update available:"),
		build.Version,
		latest,
		ui.CommandStyle.Render("https://github.com/gYonder/genai-shell/releases"))
}
