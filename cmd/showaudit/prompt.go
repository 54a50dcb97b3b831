package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"showaudit/internal/matching"
)

const promptCandidates = 5

// promptDisambiguator asks the operator to confirm a low-confidence match and,
// on refusal, offers to enter the correct catalog id.
type promptDisambiguator struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptDisambiguator(in io.Reader, out io.Writer) *promptDisambiguator {
	return &promptDisambiguator{in: bufio.NewReader(in), out: out}
}

func (p *promptDisambiguator) Disambiguate(ctx context.Context, prompt matching.Prompt) (matching.Answer, error) {
	fmt.Fprintf(p.out, "\nLow-confidence match for %q (searched %q)\n", prompt.Folder, prompt.Query)

	ranked := prompt.Ranked
	if len(ranked) > promptCandidates {
		ranked = ranked[:promptCandidates]
	}
	rows := make([][]string, 0, len(ranked))
	for i, scored := range ranked {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			scored.Candidate.ID,
			scored.Candidate.Name,
			orDash(scored.Candidate.Year),
			strconv.Itoa(scored.Score),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(p.out, renderTable(
			[]string{"#", "TVDB ID", "Name", "Year", "Score"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight},
		))
	}

	top := prompt.Top
	fmt.Fprintf(p.out, "Best match %q (TVDB %s) scored %d, below %d. Accept? [y/N]: ",
		top.Candidate.Name, top.Candidate.ID, top.Score, prompt.Threshold)
	line, err := p.readLine(ctx)
	if err != nil {
		return matching.Answer{}, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return matching.Answer{Verdict: matching.Accept}, nil
	}

	fmt.Fprint(p.out, "Enter the correct TVDB ID (blank to skip): ")
	line, err = p.readLine(ctx)
	if err != nil {
		return matching.Answer{}, err
	}
	return matching.SubstituteAnswer(line), nil
}

// readLine returns the next trimmed line. End of input reads as a blank answer.
func (p *promptDisambiguator) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
