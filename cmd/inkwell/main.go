package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/client"
	"github.com/inkwell-hq/inkwell/internal/config"
	httpapp "github.com/inkwell-hq/inkwell/internal/http"
	"github.com/inkwell-hq/inkwell/internal/rate"
	"github.com/inkwell-hq/inkwell/internal/store/sqlite"
	"github.com/inkwell-hq/inkwell/internal/toggle"
	"github.com/inkwell-hq/inkwell/internal/token"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Token    string `json:"token"`
	TokenExp string `json:"token_expires"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("inkwell v0.1.0")
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login", "auth":
		cmdLogin(args)
	case "publish", "post":
		cmdPublish(args)
	case "comment":
		cmdComment(args)
	case "like":
		cmdLike(args)
	case "unlike":
		cmdUnlike(args)
	case "favorite":
		cmdFavorite(args)
	case "follow":
		cmdFollow(args)
	case "unfollow":
		cmdUnfollow(args)
	case "delete", "rm":
		cmdDelete(args)
	case "read", "list":
		cmdRead(args)
	case "status", "whoami":
		cmdStatus(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`inkwell - A blog platform backend

Usage: inkwell <command> [options]

Quick Start:
  inkwell register --name alice                     # Create account + log in
  inkwell publish --title "Hello" --content "..."

Client Commands:
  register            Create an account and log in
  login               Log in (when the token expires)
  publish             Publish a new article
  comment             Comment on an article
  like / unlike       Toggle an article like
  favorite            Favorite an article
  follow / unfollow   Toggle following an author
  delete              Delete your own article
  read                Read articles from Inkwell
  status              Show current config and token status

Server:
  server              Start the Inkwell server (default if no command)

Examples:
  inkwell register --name alice
  inkwell publish --title "My First Post" --content "Hello world"
  inkwell comment --article 123 --text "Great post!"
  inkwell like --article 123
  inkwell follow --user 7
  inkwell read --limit 10
  inkwell read --article 123                        # View article with comments

Environment Variables (server):
  INKWELL_ADDR              Listen address (default: :8080)
  INKWELL_DB                Database path (default: inkwell.db)
  INKWELL_JWT_SECRET        Base64 token secret, >= 64 bytes decoded
  INKWELL_TOKEN_TTL         Token lifetime (default: 24h)
  INKWELL_LOG_LEVEL         Log level (default: info)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if cfg.GeneratedSecret {
		logger.Warn("no INKWELL_JWT_SECRET set, using a random secret; tokens will not survive a restart")
	}

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer st.Close()

	codec, err := token.New(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	limiter := rate.NewMemory()
	toggles := toggle.NewService(st, cfg.StoreTimeout, logger)

	server, err := httpapp.NewServer(st, codec, toggles, limiter, cfg, logger)
	if err != nil {
		logger.Fatal("initialize server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("inkwell listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

func newLogger(level string) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zapCfg.Level = lvl
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Username (required)")
	password := fs.String("password", "", "Password (prompted via INKWELL_PASSWORD if unset)")
	nickname := fs.String("nickname", "", "Optional display name")
	url := fs.String("url", "http://localhost:8080", "Inkwell server URL")
	fs.Parse(args)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Error: --name is required")
		fmt.Fprintln(os.Stderr, "Usage: inkwell register --name <username>")
		os.Exit(1)
	}
	pw := resolvePassword(*password)

	c := client.New(strings.TrimSuffix(*url, "/"))
	_, err := c.Register(*name, pw, *nickname)
	alreadyRegistered := errors.Is(err, client.ErrAlreadyRegistered)
	if err != nil && !alreadyRegistered {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if alreadyRegistered {
		fmt.Printf("Already registered as '%s'\n", *name)
	} else {
		fmt.Printf("Registered '%s'\n", *name)
	}

	if err := c.Login(*name, pw); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: auto-login failed: %v\n", err)
		fmt.Println("Run 'inkwell login' to authenticate")
		return
	}

	cfg := CLIConfig{
		BaseURL:  c.BaseURL,
		Username: *name,
		Token:    c.Token,
		TokenExp: c.TokenExp.Format(time.RFC3339),
	}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Logged in (token expires %s)\n", cfg.TokenExp)
	fmt.Println("\nReady to write! Example:")
	fmt.Println("  inkwell publish --title \"Hello Inkwell\" --content \"My first post\"")
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	name := fs.String("name", "", "Username (defaults to saved username)")
	password := fs.String("password", "", "Password (prompted via INKWELL_PASSWORD if unset)")
	url := fs.String("url", "", "Inkwell server URL (defaults to saved URL)")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	if *name != "" {
		cfg.Username = *name
	}
	if *url != "" {
		cfg.BaseURL = strings.TrimSuffix(*url, "/")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Username == "" {
		fmt.Fprintln(os.Stderr, "Error: --name is required")
		os.Exit(1)
	}
	pw := resolvePassword(*password)

	c := client.New(cfg.BaseURL)
	if err := c.Login(cfg.Username, pw); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Token = c.Token
	cfg.TokenExp = c.TokenExp.Format(time.RFC3339)
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Logged in as '%s'\n", cfg.Username)
	fmt.Printf("  Expires: %s\n", cfg.TokenExp)
}

func cmdPublish(args []string) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	title := fs.String("title", "", "Article title (required)")
	content := fs.String("content", "", "Article content (required)")
	fs.Parse(args)

	if *title == "" || *content == "" {
		fmt.Fprintln(os.Stderr, "Error: --title and --content are required")
		os.Exit(1)
	}

	c := mustAuthenticatedClient()
	article, err := c.PublishArticle(*title, *content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Published: %s\n", *title)
	fmt.Printf("  ID: %d\n", article.ID)
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	articleID := fs.Int64("article", 0, "Article ID (required)")
	text := fs.String("text", "", "Comment text (required)")
	fs.Parse(args)

	if *articleID == 0 || *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --article and --text are required")
		os.Exit(1)
	}

	c := mustAuthenticatedClient()
	comment, err := c.PostComment(*articleID, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Commented on article %d\n", *articleID)
	fmt.Printf("  ID: %d\n", comment.ID)
}

func cmdLike(args []string)     { runArticleToggle("like", args) }
func cmdUnlike(args []string)   { runArticleToggle("unlike", args) }
func cmdFavorite(args []string) { runArticleToggle("favorite", args) }

func runArticleToggle(action string, args []string) {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	articleID := fs.Int64("article", 0, "Article ID (required)")
	fs.Parse(args)

	if *articleID == 0 {
		fmt.Fprintf(os.Stderr, "Error: --article is required\nUsage: inkwell %s --article <id>\n", action)
		os.Exit(1)
	}

	c := mustAuthenticatedClient()
	var res client.ToggleResult
	var err error
	switch action {
	case "like":
		res, err = c.LikeArticle(*articleID)
	case "unlike":
		res, err = c.UnlikeArticle(*articleID)
	case "favorite":
		res, err = c.FavoriteArticle(*articleID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	state := "off"
	if res.Active {
		state = "on"
	}
	fmt.Printf("Article %d %s: %s (count %d)\n", *articleID, action, state, res.Count)
}

func cmdFollow(args []string)   { runFollowToggle("follow", args) }
func cmdUnfollow(args []string) { runFollowToggle("unfollow", args) }

func runFollowToggle(action string, args []string) {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	userID := fs.Int64("user", 0, "User ID (required)")
	fs.Parse(args)

	if *userID == 0 {
		fmt.Fprintf(os.Stderr, "Error: --user is required\nUsage: inkwell %s --user <id>\n", action)
		os.Exit(1)
	}

	c := mustAuthenticatedClient()
	var res client.ToggleResult
	var err error
	if action == "follow" {
		res, err = c.Follow(*userID)
	} else {
		res, err = c.Unfollow(*userID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verb := "Following"
	if !res.Active {
		verb = "Not following"
	}
	fmt.Printf("%s user %d (followers %d)\n", verb, *userID, res.Count)
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	articleID := fs.Int64("article", 0, "Article ID to delete")
	fs.Parse(args)

	if *articleID == 0 {
		fmt.Fprintln(os.Stderr, "Error: --article is required")
		fmt.Fprintln(os.Stderr, "Usage: inkwell delete --article <id>")
		os.Exit(1)
	}

	c := mustAuthenticatedClient()
	if err := c.DeleteArticle(*articleID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted article %d\n", *articleID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of articles")
	articleID := fs.Int64("article", 0, "Get specific article with comments")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(baseURL)

	if *articleID != 0 {
		article, err := c.GetArticle(*articleID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", article.Title)
		fmt.Printf("  by %s | %d likes | %d favorites | %d comments\n",
			article.AuthorName, article.LikeCount, article.FavoriteCount, article.CommentCount)
		fmt.Printf("\n  %s\n", article.Content)

		comments, err := c.GetComments(*articleID)
		if err == nil && len(comments) > 0 {
			fmt.Printf("\n  --- Comments (%d) ---\n", len(comments))
			for _, comment := range comments {
				fmt.Printf("  [%d] %s: %s\n", comment.ID, comment.AuthorName, comment.Content)
			}
		}
		return
	}

	articles, err := c.ListArticles(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nInkwell (newest)")
	fmt.Println()
	for i, a := range articles {
		fmt.Printf("%d. %s\n", i+1, a.Title)
		fmt.Printf("   by %s | %d likes | %d comments | #%d\n\n",
			a.AuthorName, a.LikeCount, a.CommentCount, a.ID)
	}
}

func cmdStatus(args []string) {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Status: Not logged in")
		fmt.Println("\nRun: inkwell register --name <name>")
		return
	}

	fmt.Printf("User:   %s\n", cfg.Username)
	fmt.Printf("Server: %s\n", cfg.BaseURL)

	if cfg.Token == "" {
		fmt.Println("Token:  Not authenticated")
		fmt.Println("\nRun: inkwell login")
	} else {
		exp, _ := time.Parse(time.RFC3339, cfg.TokenExp)
		if time.Now().After(exp) {
			fmt.Println("Token:  Expired")
			fmt.Println("\nRun: inkwell login")
		} else {
			fmt.Printf("Token:  Valid until %s\n", cfg.TokenExp)
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func inkwellDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".inkwell")
}

func cliConfigPath() string {
	return filepath.Join(inkwellDir(), "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return CLIConfig{}, errors.New("not logged in")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	if err := os.MkdirAll(inkwellDir(), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return os.WriteFile(cliConfigPath(), data, 0600)
}

// resolvePassword takes the flag value or falls back to INKWELL_PASSWORD so
// the password does not have to appear in shell history.
func resolvePassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if pw := os.Getenv("INKWELL_PASSWORD"); pw != "" {
		return pw
	}
	fmt.Fprintln(os.Stderr, "Error: provide --password or set INKWELL_PASSWORD")
	os.Exit(1)
	return ""
}

func mustAuthenticatedClient() *client.Client {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun 'inkwell register --name <name>' first\n", err)
		os.Exit(1)
	}
	if cfg.Token == "" {
		fmt.Fprintln(os.Stderr, "Error: not authenticated - run 'inkwell login'")
		os.Exit(1)
	}
	if cfg.TokenExp != "" {
		exp, _ := time.Parse(time.RFC3339, cfg.TokenExp)
		if time.Now().After(exp) {
			fmt.Fprintln(os.Stderr, "Error: token expired - run 'inkwell login'")
			os.Exit(1)
		}
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	c.TokenExp, _ = time.Parse(time.RFC3339, cfg.TokenExp)
	return c
}
