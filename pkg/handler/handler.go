package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"compass/pkg/api"
	"compass/pkg/llm"
	"compass/pkg/monitor"
)

// TurnRunner executes one conversational turn against history.
type TurnRunner interface {
	Run(ctx context.Context, input string, history *llm.ChatHistory) (*api.ExchangeResult, error)
}

// ChatHandler is the interactive prompt loop. It owns the conversation
// history, dispatches built-in commands and hands everything else to the
// TurnRunner.
type ChatHandler struct {
	runner       TurnRunner       // Executes turns (engine + history bookkeeping)
	history      *llm.ChatHistory // The single conversation of this process
	monitor      monitor.Monitor  // Prints replies, errors and tool traces
	out          io.Writer        // Prompt and command output, typically os.Stdout
	previewChars int              // Per-turn length shown by the history command
}

// NewChatHandler creates a handler. A nil out selects stdout.
func NewChatHandler(runner TurnRunner, history *llm.ChatHistory, mon monitor.Monitor, out io.Writer, previewChars int) *ChatHandler {
	if out == nil {
		out = os.Stdout
	}
	return &ChatHandler{
		runner:       runner,
		history:      history,
		monitor:      mon,
		out:          out,
		previewChars: previewChars,
	}
}

// inputLine is one line read from the user, or the error that ended input.
type inputLine struct {
	text string
	err  error
}

// Run reads lines from in until quit, EOF, an interrupt at the prompt, or ctx
// is done. An interrupt while a turn is running cancels only that turn.
// Run returns nil on every normal way out, including interrupts, and an error
// only when reading in fails for a reason other than EOF.
func (h *ChatHandler) Run(ctx context.Context, in io.Reader, interrupts <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan inputLine)
	go readLines(ctx, in, lines)

	fmt.Fprintln(h.out, "Chat with the agent (type 'quit' to exit, 'history' to see chat history, 'clear' to reset):")
	fmt.Fprintln(h.out)

	for {
		fmt.Fprint(h.out, "You: ")

		var line string
		select {
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(h.out, "\n\nGoodbye! 👋")
				return nil
			}
			if l.err != nil {
				slog.Error("Failed to read input", "error", l.err)
				fmt.Fprintf(h.out, "\n❌ Error: failed to read input: %v\n", l.err)
				return fmt.Errorf("read input: %w", l.err)
			}
			line = l.text
		case <-interrupts:
			fmt.Fprintln(h.out, "\n\nGoodbye! 👋")
			return nil
		case <-ctx.Done():
			fmt.Fprintln(h.out, "\n\nGoodbye! 👋")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Fprintln(h.out, "\nGoodbye! 👋")
			return nil
		case "history":
			h.printHistory()
			continue
		case "clear":
			h.history.Clear()
			fmt.Fprintln(h.out, "\n✅ Chat history cleared!")
			fmt.Fprintln(h.out)
			continue
		}

		h.runTurn(ctx, input, interrupts)
	}
}

// readLines sends every line of in on lines and closes it at EOF. Lines have
// no length limit. A read error other than EOF is sent as the last value.
func readLines(ctx context.Context, in io.Reader, lines chan<- inputLine) {
	defer close(lines)
	send := func(l inputLine) bool {
		select {
		case lines <- l:
			return true
		case <-ctx.Done():
			return false
		}
	}

	reader := bufio.NewReader(in)
	for {
		text, err := reader.ReadString('\n')
		if text != "" && (err == nil || errors.Is(err, io.EOF)) {
			if !send(inputLine{text: strings.TrimRight(text, "\r\n")}) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			send(inputLine{err: err})
			return
		}
	}
}

// runTurn executes one turn, cancelling it if an interrupt arrives first.
func (h *ChatHandler) runTurn(ctx context.Context, input string, interrupts <-chan os.Signal) {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		res *api.ExchangeResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.runner.Run(turnCtx, input, h.history)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	interrupted := false
	select {
	case out = <-done:
	case <-interrupts:
		interrupted = true
		cancel()
		out = <-done
	}

	switch {
	case out.err == nil:
		// A turn that completed just before the interrupt keeps its answer.
		h.monitor.OnReply(out.res.Answer)
	case interrupted || errors.Is(out.err, context.Canceled):
		slog.Info("Turn interrupted", "error", out.err)
		fmt.Fprintln(h.out, "\n\nInterrupted. Type 'quit' to exit.")
		fmt.Fprintln(h.out)
	default:
		h.monitor.OnError(out.err)
	}
}

func (h *ChatHandler) printHistory() {
	fmt.Fprintln(h.out, "\n--- Chat History ---")
	snapshot := h.history.Snapshot(h.previewChars)
	if len(snapshot) == 0 {
		fmt.Fprintln(h.out, "No chat history yet.")
	}
	for _, turn := range snapshot {
		fmt.Fprintf(h.out, "%s: %s\n", turn.Role, turn.Text)
	}
	fmt.Fprintln(h.out, "--- End History ---")
	fmt.Fprintln(h.out)
}
