package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/lessonhub/internal/curriculum"
	"github.com/pavelanni/lessonhub/internal/handler"
	appI18n "github.com/pavelanni/lessonhub/internal/i18n"
	"github.com/pavelanni/lessonhub/internal/lesson"
	"github.com/pavelanni/lessonhub/internal/model"
	"github.com/pavelanni/lessonhub/internal/session"
	"github.com/pavelanni/lessonhub/internal/store"
)

const defaultVariant = "studio1"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lessonhub",
		Short: "French lesson browser with flashcards and quizzes",
	}

	serve := serveCmd()
	root.AddCommand(serve, listCmd(), quizCmd(), checkCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `lessonhub --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceP("curriculum", "c", nil, "Paths to extra curriculum JSON files (repeatable)")
	f.String("variant", defaultVariant, "Curriculum variant slug")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP lesson server",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "lessonhub.db", "SQLite database path")
	f.StringP("lang", "l", "en", "UI language (en, fr)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /fr)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.Duration("session-ttl", session.DefaultTTL, "Idle lifetime of a study session")
	f.String("images-dir", "", "Directory served under /images/ and listed by the gallery")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List lessons matching an optional search query",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
	addCommonFlags(cmd)
	return cmd
}

func quizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz <lessonID>",
		Short: "Take a lesson quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuiz,
	}
	addCommonFlags(cmd)
	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate curriculum content",
		RunE:  runCheck,
	}
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored curriculum variant as JSON",
		RunE:  runExport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("db", "lessonhub.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LESSONHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lessonhub")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lessonhub")
	v.AddConfigPath("/etc/lessonhub")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := importCurricula(db, v.GetStringSlice("curriculum")); err != nil {
		return fmt.Errorf("import curricula: %w", err)
	}

	reg, err := storedRegistry(db)
	if err != nil {
		return fmt.Errorf("load curricula: %w", err)
	}
	c, err := reg.Get(v.GetString("variant"))
	if err != nil {
		return fmt.Errorf("select variant (available: %s): %w", strings.Join(reg.Slugs(), ", "), err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		Variant:       c.Slug,
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		SessionTTL:    v.GetDuration("session-ttl"),
		ImagesDir:     v.GetString("images-dir"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := session.NewManager(c, cfg.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	h, err := handler.New(c, sessions, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
	}()

	slog.Info("starting server",
		"addr", addr,
		"variant", c.Slug,
		"lessons", len(c.Lessons),
		"lang", lang,
		"base_path", basePath,
		"session_ttl", cfg.SessionTTL,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	c, err := selectVariant(v)
	if err != nil {
		return err
	}
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	return printLessons(cmd.OutOrStdout(), lesson.Filter(c.Lessons, query))
}

func printLessons(w io.Writer, lessons []model.Lesson) error {
	if len(lessons) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}
	for _, l := range lessons {
		if _, err := fmt.Fprintf(w, "%-6s %s\n", l.ID, l.Title); err != nil {
			return err
		}
		for _, g := range l.Goals {
			if _, err := fmt.Fprintf(w, "       - %s\n", g); err != nil {
				return err
			}
		}
	}
	return nil
}

func runQuiz(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	c, err := selectVariant(v)
	if err != nil {
		return err
	}
	l, ok := c.Lesson(args[0])
	if !ok {
		return fmt.Errorf("lesson %q not found in %s", args[0], c.Slug)
	}
	return takeQuiz(cmd.InOrStdin(), cmd.OutOrStdout(), l)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	curricula, err := readCurricula(v.GetStringSlice("curriculum"))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	total := 0
	for _, sc := range curricula {
		problems := curriculum.Validate(sc.curriculum)
		total += len(problems)
		status := "ok"
		if len(problems) > 0 {
			status = fmt.Sprintf("%d problem(s)", len(problems))
		}
		fmt.Fprintf(out, "%s (%s): %d lessons, %s\n", sc.curriculum.Slug, sc.source, len(sc.curriculum.Lessons), status)
		for _, p := range problems {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	if total > 0 {
		return fmt.Errorf("found %d content problem(s)", total)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := importCurricula(db, v.GetStringSlice("curriculum")); err != nil {
		return fmt.Errorf("import curricula: %w", err)
	}

	c, err := db.LoadCurriculum(v.GetString("variant"))
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
