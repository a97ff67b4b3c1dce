package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aadu/tina-aunty/backend/internal/app"
	"github.com/aadu/tina-aunty/backend/internal/config"
	"github.com/aadu/tina-aunty/backend/internal/model/session"
	"github.com/aadu/tina-aunty/backend/internal/service/dialogue"
	"github.com/aadu/tina-aunty/backend/internal/service/intent"
)

var (
	sessionID string
	timeout   time.Duration

	childName string
	topicName string
	bookName  string
	language  string
)

var rootCmd = &cobra.Command{
	Use:   "sessiontester",
	Short: "Exercise the Tina Aunty services from the terminal",
	Long: `Drive the tutoring services directly, without the HTTP layer.

Available subcommands:
  chat    - Start a session and talk to Tina Aunty line by line
  timeout - Ask the classifier whether an utterance is a break request
  speak   - Synthesize text and store the audio artifact`,
	SilenceUsage: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session over stdin",
	RunE:  runChat,
}

var timeoutCmd = &cobra.Command{
	Use:   "timeout <utterance>",
	Short: "Classify an utterance as a timeout request",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTimeout,
}

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize text with the session voice",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpeak,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "session identity (default: generated)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "English", "conversation language")

	chatCmd.Flags().StringVar(&childName, "name", session.DefaultChildName, "child name")
	chatCmd.Flags().StringVar(&topicName, "topic", "ABCD", "topic id or label")
	chatCmd.Flags().StringVar(&bookName, "book", "", "book file for the Books topic")

	rootCmd.AddCommand(chatCmd, timeoutCmd, speakCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("配置加载失败: %w", err)
	}
	return app.New(ctx, cfg)
}

func resolveSessionID() string {
	if sessionID != "" {
		return sessionID
	}
	return fmt.Sprintf("manual-%d", time.Now().UnixNano())
}

func runChat(cmd *cobra.Command, _ []string) error {
	services, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	if services.AI == nil {
		return fmt.Errorf("AI service is not configured; set LLM_PROVIDER credentials first")
	}

	id := resolveSessionID()
	started, err := services.Engine.StartSession(cmd.Context(), id, dialogue.StartParams{
		ChildName: childName,
		Topic:     topicName,
		BookName:  bookName,
		Language:  language,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[session %s] %s\n", id, started.Message)
	fmt.Fprintln(out, started.Cues.Greeting)

	paused := false
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		if paused {
			if intent.IsReturnPhrase(line) {
				paused = false
				fmt.Fprintln(out, started.Cues.WelcomeBack)
			}
			continue
		}
		if intent.IsFarewell(line) {
			fmt.Fprintln(out, started.Cues.Farewell)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		if line != "" {
			isTimeout, err := services.Engine.CheckTimeout(ctx, id, line)
			if err == nil && isTimeout {
				cancel()
				paused = true
				fmt.Fprintln(out, started.Cues.TimeoutAck)
				continue
			}
		}

		result, err := services.Engine.Turn(ctx, id, line)
		cancel()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Tina Aunty: %s\n", result.Response)
		if result.ImageURL != "" {
			fmt.Fprintf(out, "  [image] %s\n", result.ImageURL)
		}
		if result.Whiteboard.Text != "" {
			fmt.Fprintf(out, "  [whiteboard] %s\n", result.Whiteboard.Text)
		}
	}
	return scanner.Err()
}

func runTimeout(cmd *cobra.Command, args []string) error {
	services, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	if !services.Timeouts.Enabled() {
		return fmt.Errorf("timeout classifier needs a configured chat model")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	// 会话只用来提供语言，翻译后再分类
	id := resolveSessionID()
	if _, err := services.Engine.StartSession(ctx, id, dialogue.StartParams{Language: language}); err != nil {
		return err
	}

	isTimeout, err := services.Engine.CheckTimeout(ctx, id, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "is_timeout=%t\n", isTimeout)
	return nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
	services, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	if services.Speech == nil {
		return fmt.Errorf("语音服务未启用，请先配置 AZURE_SPEECH_KEY 与 AZURE_REGION")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	lang, ok := session.ParseLanguage(language)
	if !ok {
		log.Printf("[WARN] unsupported language %q, using %s", language, lang)
	}

	start := time.Now()
	result, err := services.Speech.Speak(ctx, resolveSessionID(), lang, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status=%s url=%s elapsed=%s\n", result.Status, result.URL, time.Since(start).Round(time.Millisecond))
	return nil
}
