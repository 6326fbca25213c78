package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TurtoiseMan/Quiz-App/internal/attempt"
	"github.com/TurtoiseMan/Quiz-App/internal/auth"
	"github.com/TurtoiseMan/Quiz-App/internal/blob"
	"github.com/TurtoiseMan/Quiz-App/internal/catalog"
	appI18n "github.com/TurtoiseMan/Quiz-App/internal/i18n"
	"github.com/TurtoiseMan/Quiz-App/internal/model"
	"github.com/TurtoiseMan/Quiz-App/internal/seed"
	"github.com/TurtoiseMan/Quiz-App/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizapp",
		Short: "Timed multiple-choice quizzes from the command line",
	}

	root.AddCommand(takeCmd(), historyCmd(), questionsCmd(), exportCmd())
	return root
}

// addStoreFlags registers the flags every command needs to open the state
// store.
func addStoreFlags(f *pflag.FlagSet) {
	f.String("store", "sqlite", "State store backend (sqlite, redis, memory)")
	f.String("db", "quizapp.db", "SQLite database path")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis backend")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

// addAuthFlags registers sign-in flags. The password is better supplied via
// QUIZAPP_PASSWORD.
func addAuthFlags(f *pflag.FlagSet) {
	f.StringP("username", "u", "", "Username to sign in with (required)")
	f.StringP("password", "p", "", "Password (or set QUIZAPP_PASSWORD)")
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a quiz under its time limit",
		RunE:  runTake,
	}
	f := cmd.Flags()
	addStoreFlags(f)
	addAuthFlags(f)
	f.StringP("quiz", "q", "", "Quiz id to take (required)")
	f.Bool("strict-options", false, "Reject answers that are not among a question's options")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List quiz attempts (admins see everyone's)",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	addStoreFlags(f)
	addAuthFlags(f)
	f.String("attempt", "", "Show the detailed review of one attempt")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List authored questions (admin only)",
		RunE:  runQuestions,
	}
	f := cmd.Flags()
	addStoreFlags(f)
	addAuthFlags(f)
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all attempt results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	addStoreFlags(f)
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

	v.SetEnvPrefix("QUIZAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizapp")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizapp")
	v.AddConfigPath("/etc/quizapp")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore opens the configured blob backend, wraps it, and seeds the
// built-in dataset into any empty collection.
func openStore(ctx context.Context, v *viper.Viper) (*store.Store, error) {
	var blobs blob.Store
	switch backend := v.GetString("store"); backend {
	case "sqlite":
		s, err := blob.NewSQLite(v.GetString("db"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		blobs = s
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: v.GetString("redis-addr")})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		blobs = blob.NewRedis(client)
	case "memory":
		blobs = blob.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}

	st := store.New(blobs)
	data, err := seed.Data()
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := st.Seed(ctx, data); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}
	return st, nil
}

func signIn(ctx context.Context, v *viper.Viper, st *store.Store) (model.User, error) {
	svc := auth.New(st)
	user, err := svc.Login(ctx, v.GetString("username"), v.GetString("password"))
	if err != nil {
		return model.User{}, fmt.Errorf("sign in: %w", err)
	}
	fmt.Println(appI18n.Td("SignedInAs", map[string]any{
		"Username": user.Username,
		"Role":     user.Role,
	}))
	return user, nil
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	st, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := signIn(ctx, v, st)
	if err != nil {
		return err
	}

	cat := catalog.New(st)
	var opts []attempt.Option
	if v.GetBool("strict-options") {
		opts = append(opts, attempt.WithStrictOptions())
	}
	engine := attempt.New(st, cat, opts...)

	quiz, err := cat.QuizByID(ctx, v.GetString("quiz"))
	if err != nil {
		return fmt.Errorf("quiz %s: %w", v.GetString("quiz"), err)
	}
	questions, err := cat.QuizQuestions(ctx, quiz)
	if err != nil {
		return err
	}

	att, err := engine.Start(ctx, quiz.ID, user.ID)
	if err != nil {
		return err
	}

	fmt.Println(appI18n.Td("StartingQuiz", map[string]any{"Title": quiz.Title}))
	if quiz.Description != "" {
		fmt.Println(quiz.Description)
	}
	fmt.Println(appI18n.Tp("TimeLimitMinutes", quiz.TimeLimit))

	// Auto-submit when the countdown hits zero. The engine's idempotent
	// Complete keeps this safe even if the main flow finishes first.
	var expired atomic.Bool
	countdown := attempt.StartCountdown(att.Remaining(quiz, time.Now()), nil, func() {
		expired.Store(true)
		if _, err := engine.Complete(context.Background(), att.ID); err != nil {
			slog.Error("auto-submit failed", "attempt_id", att.ID, "error", err)
		}
	})
	defer countdown.Stop()

	reader := bufio.NewReader(cmd.InOrStdin())
	for i, q := range questions {
		if expired.Load() {
			break
		}

		fmt.Println()
		fmt.Println(appI18n.Td("QuestionHeader", map[string]any{
			"Index":     i + 1,
			"Total":     len(questions),
			"Remaining": formatDuration(att.Remaining(quiz, time.Now())),
		}))
		fmt.Println(q.Text)
		for j, opt := range q.Options {
			fmt.Printf("  %d. %s\n", j+1, opt)
		}
		fmt.Print(appI18n.Td("AnswerPrompt", map[string]any{"Count": len(q.Options)}))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		choice := strings.TrimSpace(line)
		if choice == "" {
			continue
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(q.Options) {
			fmt.Println(appI18n.T("InvalidSelection"))
			continue
		}

		_, recorded, err := engine.RecordAnswer(ctx, att.ID, q.ID, q.Options[n-1])
		if err != nil {
			return err
		}
		if !recorded {
			// Lost the race against the auto-submit.
			break
		}
	}
	countdown.Stop()

	if expired.Load() {
		fmt.Println()
		fmt.Println(appI18n.T("TimeUp"))
	}

	final, err := engine.Complete(ctx, att.ID)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(appI18n.T("QuizCompleted"))
	if final.Score != nil {
		fmt.Println(appI18n.Td("YourScore", map[string]any{
			"Score": strconv.FormatFloat(*final.Score, 'f', -1, 64),
		}))
	}

	result, err := engine.Result(ctx, final)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(appI18n.T("ReviewHeader"))
	for _, qr := range result.Questions {
		printQuestionReview(qr)
	}
	return nil
}

func printQuestionReview(qr model.QuestionResult) {
	switch {
	case qr.Correct:
		fmt.Printf("  [+] %s: %s\n", qr.Text, appI18n.T("ReviewCorrect"))
	case qr.Answered:
		fmt.Printf("  [-] %s: %s\n", qr.Text,
			appI18n.Td("ReviewWrong", map[string]any{"Correct": qr.CorrectAnswer}))
	default:
		fmt.Printf("  [ ] %s: %s\n", qr.Text,
			appI18n.Td("ReviewUnanswered", map[string]any{"Correct": qr.CorrectAnswer}))
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	st, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := signIn(ctx, v, st)
	if err != nil {
		return err
	}

	cat := catalog.New(st)
	engine := attempt.New(st, cat)

	if attemptID := v.GetString("attempt"); attemptID != "" {
		return showAttemptDetail(ctx, engine, user, attemptID)
	}

	var attempts []model.QuizAttempt
	if user.IsAdmin() {
		attempts, err = engine.Attempts(ctx)
	} else {
		attempts, err = engine.AttemptsByUser(ctx, user.ID)
	}
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println(appI18n.T("NoAttempts"))
		return nil
	}

	// Newest first.
	for i := 0; i < len(attempts)/2; i++ {
		j := len(attempts) - 1 - i
		attempts[i], attempts[j] = attempts[j], attempts[i]
	}

	quizzes, err := cat.Quizzes(ctx)
	if err != nil {
		return err
	}
	titles := make(map[string]string, len(quizzes))
	for _, q := range quizzes {
		titles[q.ID] = q.Title
	}

	for _, a := range attempts {
		title, ok := titles[a.QuizID]
		if !ok {
			title = appI18n.T("UnknownQuiz")
		}
		status := appI18n.T("StatusInProgress")
		score := "-"
		if a.Completed() {
			status = appI18n.T("StatusCompleted")
			score = strconv.FormatFloat(*a.Score, 'f', -1, 64) + "%"
		}
		fmt.Printf("%s  %-30s  %-12s  %6s  %s\n",
			a.StartedAt.Format("2006-01-02 15:04"), title, status, score, a.ID)
	}
	return nil
}

func showAttemptDetail(ctx context.Context, engine *attempt.Engine, user model.User, attemptID string) error {
	att, err := engine.AttemptByID(ctx, attemptID)
	if err != nil {
		return err
	}
	if att == nil {
		return fmt.Errorf("attempt %s: %w", attemptID, model.ErrAttemptNotFound)
	}
	if !user.IsAdmin() && att.UserID != user.ID {
		return fmt.Errorf("attempt %s: not yours", attemptID)
	}

	result, err := engine.Result(ctx, *att)
	if err != nil {
		return err
	}
	title := result.QuizTitle
	if title == "" {
		title = appI18n.T("UnknownQuiz")
	}
	fmt.Println(title)
	if result.Score != nil {
		fmt.Println(appI18n.Td("YourScore", map[string]any{
			"Score": strconv.FormatFloat(*result.Score, 'f', -1, 64),
		}))
	}
	fmt.Println(appI18n.T("ReviewHeader"))
	for _, qr := range result.Questions {
		printQuestionReview(qr)
	}
	return nil
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	st, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := signIn(ctx, v, st); err != nil {
		return err
	}
	if _, err := auth.New(st).RequireAdmin(ctx); err != nil {
		return err
	}

	questions, err := catalog.New(st).Questions(ctx)
	if err != nil {
		return err
	}
	fmt.Println(appI18n.Tp("QuestionsAvailable", len(questions)))
	for _, q := range questions {
		fmt.Printf("%s  %s\n", q.ID, q.Text)
		for _, opt := range q.Options {
			marker := " "
			if opt == q.CorrectAnswer {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, opt)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	st, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := attempt.New(st, catalog.New(st))
	results, err := engine.ExportAll(ctx)
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	export := model.ResultExport{
		ExportedAt: time.Now(),
		Results:    results,
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}
