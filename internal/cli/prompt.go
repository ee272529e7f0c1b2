package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter reads one trimmed line per question.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// exitWord ends the session from any prompt.
const exitWord = "exit"

// ask returns io.EOF once input is exhausted, even if the last line had no
// newline, and when the user types exit.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	answer := strings.TrimSpace(line)
	if strings.EqualFold(answer, exitWord) {
		return "", io.EOF
	}
	return answer, nil
}

func (p *prompter) println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *prompter) printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}
