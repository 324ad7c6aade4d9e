package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pavelanni/lessonhub/internal/lesson"
	"github.com/pavelanni/lessonhub/internal/model"
)

// takeQuiz runs a lesson's quiz over a line-oriented terminal. Options are
// numbered from 1. Input that is not an option number is asked again.
func takeQuiz(in io.Reader, out io.Writer, l model.Lesson) error {
	fmt.Fprintf(out, "%s\n\n", l.Title)
	q := lesson.NewQuiz(l.Questions())
	if q.Len() == 0 {
		fmt.Fprintln(out, "This lesson has no quiz.")
		return nil
	}

	scanner := bufio.NewScanner(in)
	for !q.Complete() {
		st := q.State()
		fmt.Fprintf(out, "Question %d of %d: %s\n", st.Index+1, st.Total, st.Question.Prompt)
		if len(st.Question.Options) == 0 {
			fmt.Fprint(out, "(no options, skipped)\n\n")
			q.Answer(-1)
			continue
		}
		for i, opt := range st.Question.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read answer: %w", err)
			}
			return fmt.Errorf("quiz aborted after %d of %d questions", st.Index, st.Total)
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(st.Question.Options) {
			fmt.Fprintf(out, "Please enter a number between 1 and %d.\n\n", len(st.Question.Options))
			continue
		}
		if q.Answer(n - 1).Correct {
			fmt.Fprint(out, "Correct!\n\n")
		} else {
			fmt.Fprint(out, "Not quite.\n\n")
		}
	}

	fmt.Fprintln(out, q.Result())
	return nil
}
