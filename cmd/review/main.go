package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fiszki/fiszki-go/internal/apiclient"
	"github.com/fiszki/fiszki-go/internal/review"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FISZKI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "fiszki-review [file]",
		Short: "Generate flashcards from text and review them in the terminal",
		Long: `fiszki-review sends a text to the fiszki API, shows the proposed
flashcards and saves the ones you accept.

The text is read from the given file, or from stdin when no file is given.
Credentials may come from flags or FISZKI_EMAIL / FISZKI_PASSWORD.

Examples:
  fiszki-review notes.txt
  fiszki-review --register --email me@example.com notes.txt`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("api", "http://localhost:8080/api/v1", "API base URL")
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().Bool("register", false, "create the account before generating")
	v.BindPFlags(cmd.Flags())

	return cmd
}

func run(ctx context.Context, v *viper.Viper, args []string, in io.Reader, out io.Writer) error {
	email, password := v.GetString("email"), v.GetString("password")
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	text, commands, closeCommands, err := readSource(args, in)
	if err != nil {
		return err
	}
	defer closeCommands()
	in = commands

	client := apiclient.New(v.GetString("api"), nil)
	if v.GetBool("register") {
		_, err = client.Register(ctx, email, password)
	} else {
		_, err = client.Login(ctx, email, password)
	}
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	fmt.Fprintln(out, "Generating flashcards...")
	resp, err := client.Generate(ctx, string(text))
	if err != nil {
		return err
	}
	if len(resp.Proposals) == 0 {
		fmt.Fprintln(out, "The model did not propose any flashcards.")
		return nil
	}

	r := &repl{
		session: review.NewSession(resp.GenerationID, resp.Proposals),
		store:   client,
		in:      in,
		out:     out,
	}
	return r.run(ctx)
}

// openTerminal opens the controlling terminal for commands when stdin
// carries the source text.
var openTerminal = func() (*os.File, error) {
	return os.Open("/dev/tty")
}

// readSource returns the text to generate from and the reader commands
// come from. The returned close func releases the terminal if one was
// opened.
func readSource(args []string, stdin io.Reader) ([]byte, io.Reader, func() error, error) {
	noop := func() error { return nil }
	if len(args) == 1 {
		text, err := os.ReadFile(args[0])
		return text, stdin, noop, err
	}

	text, err := io.ReadAll(stdin)
	if err != nil {
		return nil, nil, noop, err
	}
	tty, err := openTerminal()
	if err != nil {
		return nil, nil, noop, fmt.Errorf("opening terminal for commands: %w", err)
	}
	return text, tty, tty.Close, nil
}
