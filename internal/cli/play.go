package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-engine/internal/quiz"
	"github.com/gokatarajesh/quiz-engine/internal/quiz/timer"
)

// NewPlayCmd runs a timed quiz in the terminal against the real engine.
func NewPlayCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Play quiz text (use - for stdin) as a timed test in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read quiz: %w", err)
			}

			logger := zerolog.Nop()
			if verbose {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			}
			in := cmd.InOrStdin()
			if args[0] == "-" {
				// stdin already held the quiz
				in = strings.NewReader("")
			}
			return play(cmd.Context(), raw, in, cmd.OutOrStdout(), timer.Options{}, logger)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine events to stderr")
	return cmd
}

// terminal prints engine output and notices when the quiz has ended.
type terminal struct {
	mu   sync.Mutex
	out  io.Writer
	done chan struct{}
	once sync.Once
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out, done: make(chan struct{})}
}

func (t *terminal) println(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, text)
}

func (t *terminal) finish() {
	t.once.Do(func() { close(t.done) })
}

// Notify prints what the expiry path produced.
func (t *terminal) Notify(_ context.Context, _ uuid.UUID, ev quiz.Event) error {
	switch ev.Kind {
	case quiz.EventFeedback:
		t.println(ev.Feedback.Text)
	case quiz.EventQuestion:
		t.println("\n" + ev.Prompt.Text)
	case quiz.EventResult:
		t.println("\n" + ev.Result.Text())
		t.finish()
	}
	return nil
}

func play(ctx context.Context, raw string, in io.Reader, out io.Writer, timerOpts timer.Options, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	term := newTerminal(out)
	scheduler := timer.NewScheduler(timerOpts, logger)
	store := quiz.NewStore(scheduler, nil, logger)
	engine := quiz.NewEngine(store, scheduler, nil, nil, term, quiz.EngineOptions{}, logger)
	defer engine.Close()

	userID := uuid.New()
	prompt, err := engine.Start(ctx, userID, raw)
	if err != nil {
		return err
	}
	term.println(prompt.Text)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-term.done:
			return nil
		case <-ctx.Done():
			engine.Cancel(context.Background(), userID)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				engine.Cancel(ctx, userID)
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "stop") {
				engine.Cancel(ctx, userID)
				term.println("Test stopped.")
				return nil
			}
			if finished := answer(ctx, engine, term, userID, line); finished {
				return nil
			}
		}
	}
}

// answer feeds one typed line to the engine and reports whether the quiz ended.
func answer(ctx context.Context, engine *quiz.Engine, term *terminal, userID uuid.UUID, line string) bool {
	fb, err := engine.Answer(ctx, userID, line)
	if err != nil {
		term.println(quiz.UserMessage(err))
		return errors.Is(err, quiz.ErrNoActiveSession)
	}
	term.println(fb.Text)
	if fb.Outcome == quiz.OutcomeStale {
		return false
	}

	step, err := engine.Advance(ctx, userID)
	if err != nil {
		// the expiry path moved on first
		return false
	}
	if step.Done() {
		term.println("\n" + step.Result.Text())
		term.finish()
		return true
	}
	term.println("\n" + step.Prompt.Text)
	return false
}
