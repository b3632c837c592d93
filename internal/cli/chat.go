package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const chatHelp = `Type a message and press enter to send it. Commands:
  /open <offer> [from]  show details for an offer (number or id)
  /close                close the open offer
  /history              show the whole conversation
  /retry                resend the last message that failed
  /quit                 leave`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation",
	Long: "Start an interactive conversation with the assistant.\n\n" + chatHelp,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	msgs, err := sess.Messages(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, defaultTheme.errorStyle().Render("Error: "+err.Error()))
	} else {
		renderMessages(os.Stdout, defaultTheme, msgs)
	}

	repl := &chatREPL{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	return repl.run(ctx)
}

type chatREPL struct {
	in  *bufio.Reader
	out io.Writer

	// draft keeps the text of a failed send for /retry.
	draft string
}

func (r *chatREPL) run(ctx context.Context) error {
	for {
		fmt.Fprint(r.out, "> ")
		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		quit, cmdErr := r.handle(ctx, strings.TrimRight(line, "\r\n"))
		if cmdErr != nil {
			fmt.Fprintln(r.out, defaultTheme.errorStyle().Render(cmdErr.Error()))
		}
		if quit || eof || ctx.Err() != nil {
			sess.CloseOffer()
			return nil
		}
	}
}

// handle executes one input line. It reports whether the REPL should exit.
func (r *chatREPL) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		if strings.TrimSpace(line) == "" {
			return false, nil
		}
		return false, r.send(ctx, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/history":
		msgs, err := sess.Messages(ctx)
		if err != nil {
			return false, err
		}
		renderMessages(r.out, defaultTheme, msgs)
	case "/retry":
		if r.draft == "" {
			return false, fmt.Errorf("nothing to retry")
		}
		return false, r.send(ctx, r.draft)
	case "/open":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /open <offer> [from]")
		}
		msgs, err := sess.Messages(ctx)
		if err != nil {
			return false, err
		}
		offerID, err := resolveOffer(msgs, fields[1])
		if err != nil {
			return false, err
		}
		return false, showDetails(ctx, r.out, offerID, strings.Join(fields[2:], " "))
	case "/close":
		sess.CloseOffer()
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
	return false, nil
}

// send submits text. A failed send is kept as the draft.
func (r *chatREPL) send(ctx context.Context, text string) error {
	fmt.Fprintln(r.out, defaultTheme.hintStyle().Render("Sending..."))
	if err := sendMessage(ctx, text); err != nil {
		r.draft = text
		return fmt.Errorf("%w (type /retry to resend)", err)
	}
	r.draft = ""

	msgs, err := sess.Messages(ctx)
	if err != nil {
		return err
	}
	if reply, ok := latestReply(msgs); ok {
		renderMessage(r.out, defaultTheme, reply)
	}
	return nil
}
