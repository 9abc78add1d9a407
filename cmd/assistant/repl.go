package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/app"
	"github.com/parkj/tubelens-go/internal/constants"
	"github.com/parkj/tubelens-go/internal/domain"
	"github.com/parkj/tubelens-go/internal/session"
	"github.com/parkj/tubelens-go/internal/util"
)

// repl drives one conversation session over stdin/stdout. Free text is
// debounced before it becomes a search; a bare number picks from the
// current suggestion list.
type repl struct {
	container *app.Container
	logger    *zap.Logger
	debouncer *util.Debouncer[string]

	lastVideoID string
}

func newREPL(container *app.Container, logger *zap.Logger) *repl {
	delay := container.Config.Search.DebounceDelay
	if delay <= 0 {
		delay = constants.DebounceConfig.QueryDelay
	}
	return &repl{
		container: container,
		logger:    logger,
		debouncer: util.NewDebouncer[string](delay),
	}
}

func (r *repl) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("Type a search query, a suggestion number, or /help.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case query := <-r.debouncer.C():
			r.submit(ctx, query)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := r.handle(ctx, line); done {
				return nil
			}
		}
	}
}

func (r *repl) Stop() {
	r.debouncer.Stop()
}

// handle dispatches one input line. Returns true when the user quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if n, err := strconv.Atoi(line); err == nil {
		r.selectSuggestion(ctx, n)
		return false
	}

	switch line {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println("Commands: /recent /speak /reset /clear-cache /quit")
	case "/recent":
		for i, q := range r.container.Caches.Recent.List() {
			fmt.Printf("%d. %s\n", i+1, q)
		}
	case "/reset":
		r.container.Session.Reset()
		fmt.Println("Session reset.")
	case "/clear-cache":
		r.container.Caches.ClearAll()
		fmt.Println("Caches cleared.")
	case "/speak":
		r.speak(ctx)
	default:
		r.debouncer.Observe(line)
	}
	return false
}

func (r *repl) submit(ctx context.Context, query string) {
	if err := r.container.Session.Submit(ctx, query); err != nil {
		if errors.Is(err, session.ErrSuperseded) {
			return
		}
		fmt.Printf("Search failed: %v\n", err)
		return
	}

	suggestions := r.container.Session.Suggestions()
	if len(suggestions) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, sug := range suggestions {
		fmt.Printf("%d. %s\n", i+1, sug.Title)
		if sug.Description != "" {
			fmt.Printf("   %s\n", util.TruncateString(sug.Description, 100))
		}
	}
}

func (r *repl) selectSuggestion(ctx context.Context, n int) {
	suggestions := r.container.Session.Suggestions()
	if n < 1 || n > len(suggestions) {
		fmt.Printf("Pick a number between 1 and %d.\n", len(suggestions))
		return
	}
	chosen := suggestions[n-1]

	fmt.Printf("Summarizing %q...\n", chosen.Title)
	if err := r.container.Session.Select(ctx, chosen); err != nil {
		if errors.Is(err, session.ErrSuperseded) {
			return
		}
		fmt.Printf("Could not summarize: %v\n", err)
		return
	}
	r.lastVideoID = chosen.VideoID

	fmt.Println(r.lastAssistantText())
}

func (r *repl) speak(ctx context.Context) {
	if r.container.Speech == nil {
		fmt.Println("Speech synthesis is not configured.")
		return
	}
	if r.lastVideoID == "" {
		fmt.Println("Nothing to speak yet; summarize a video first.")
		return
	}

	text := r.lastAssistantText()
	if text == "" {
		fmt.Println("Nothing to speak yet; summarize a video first.")
		return
	}

	speechCtx, cancel := context.WithTimeout(ctx, constants.APIConfig.SpeechTimeout)
	defer cancel()

	location, err := r.container.Speech.Synthesize(speechCtx, text, r.lastVideoID)
	if err != nil {
		fmt.Printf("Speech synthesis failed: %v\n", err)
		return
	}
	fmt.Printf("Audio ready: %s\n", location)
}

// lastAssistantText returns the most recent assistant response, skipping
// suggestion echoes.
func (r *repl) lastAssistantText() string {
	messages := r.container.Session.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleAssistant && messages[i].Kind == domain.KindQuery {
			return messages[i].Text
		}
	}
	return ""
}
