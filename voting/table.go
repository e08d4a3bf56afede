/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package voting

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Candidate is one feature on the ballot.
type Candidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VoteURL links to the signing page for one candidate of a contract.
func VoteURL(base, contract, candidate string) string {
	q := url.Values{}
	q.Set("contract", contract)
	q.Set("candidate", candidate)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// VoteTable renders the ballot posted to the vote discussion: the summary,
// a Markdown table with one vote link per candidate, and a footer naming
// the contract.
func VoteTable(base, contract, summary string, candidates []Candidate) string {
	var b strings.Builder
	if summary != "" {
		b.WriteString(summary)
		b.WriteString("\n\n")
	}

	table := newBallotTable(&b)
	for _, c := range candidates {
		_ = table.Append([]string{
			cell(c.Name),
			cell(c.Description),
			fmt.Sprintf("[Vote](%s)", VoteURL(base, contract, c.Name)),
		})
	}
	_ = table.Render()

	fmt.Fprintf(&b, "\nVoting is open for %d hours. Contract: `%s`\n", int(VotingPeriod.Hours()), contract)
	return b.String()
}

// newBallotTable writes a left-aligned pipe table with the headers kept as
// written and no wrapping, so links stay intact.
func newBallotTable(w *strings.Builder) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off, AutoWrap: tw.WrapNone},
		},
		Row: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
		},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{"Feature", "Description", "Vote"}),
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
