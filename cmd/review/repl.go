package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fiszki/fiszki-go/internal/review"
)

const help = `commands:
  l        list proposals
  a N      accept proposal N
  r N      reject proposal N
  e N      edit proposal N (empty input keeps the current text)
  s        save accepted proposals
  q        quit without saving`

// repl drives one review session from line-based input.
type repl struct {
	session *review.Session
	store   review.Store
	in      io.Reader
	out     io.Writer

	scanner *bufio.Scanner
}

func (r *repl) run(ctx context.Context) error {
	r.scanner = bufio.NewScanner(r.in)
	fmt.Fprintln(r.out, help)
	r.list()

	for {
		fmt.Fprint(r.out, "> ")
		line, ok := r.readLine()
		if !ok {
			return r.scanner.Err()
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "":
			continue
		case "l":
			r.list()
		case "a", "r", "e":
			id, err := r.parseID(arg)
			if err != nil {
				fmt.Fprintln(r.out, err)
				continue
			}
			r.apply(cmd, id)
		case "s":
			done, err := r.save(ctx)
			if err != nil {
				fmt.Fprintln(r.out, "save failed:", err)
				continue
			}
			if done {
				return nil
			}
		case "q":
			fmt.Fprintln(r.out, "Discarded.")
			return nil
		default:
			fmt.Fprintln(r.out, help)
		}
	}
}

func (r *repl) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return r.scanner.Text(), true
}

// parseID converts the 1-based number shown in the listing.
func (r *repl) parseID(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a proposal number, got %q", arg)
	}
	return n - 1, nil
}

func (r *repl) apply(cmd string, id int) {
	var err error
	switch cmd {
	case "a":
		err = r.session.Accept(id)
	case "r":
		err = r.session.Reject(id)
	case "e":
		err = r.edit(id)
	}
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	r.status()
}

func (r *repl) edit(id int) error {
	if err := r.session.StartEdit(id); err != nil {
		return err
	}
	item := r.session.Items()[id]

	fmt.Fprintf(r.out, "front [%s]: ", item.Front)
	if line, ok := r.readLine(); ok && strings.TrimSpace(line) != "" {
		if err := r.session.SetEditFront(id, line); err != nil {
			r.session.CancelEdit(id)
			return err
		}
	}
	fmt.Fprintf(r.out, "back [%s]: ", item.Back)
	if line, ok := r.readLine(); ok && strings.TrimSpace(line) != "" {
		if err := r.session.SetEditBack(id, line); err != nil {
			r.session.CancelEdit(id)
			return err
		}
	}

	if err := r.session.SaveEdit(id); err != nil {
		r.session.CancelEdit(id)
		return err
	}
	return nil
}

func (r *repl) save(ctx context.Context) (bool, error) {
	res, err := r.session.Save(ctx, r.store)
	if errors.Is(err, review.ErrNothingAccepted) {
		fmt.Fprintln(r.out, "Nothing accepted yet.")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	fmt.Fprintf(r.out, "Saved %d flashcards (%d unedited, %d edited).\n",
		len(res.Created), res.Counts.AcceptedUnedited, res.Counts.AcceptedEdited)
	if res.CountsErr != nil {
		fmt.Fprintln(r.out, "warning: could not record acceptance counts:", res.CountsErr)
	}
	return true, nil
}

func (r *repl) list() {
	for _, it := range r.session.Visible() {
		mark := " "
		switch {
		case it.Accepted && it.Edited:
			mark = "E"
		case it.Accepted:
			mark = "*"
		}
		fmt.Fprintf(r.out, "[%s] %d. %s\n       %s\n", mark, it.ID+1, it.Front, it.Back)
	}
	r.status()
}

func (r *repl) status() {
	c := r.session.Counts()
	fmt.Fprintf(r.out, "accepted %d of %d\n", c.Accepted, c.Visible)
}
