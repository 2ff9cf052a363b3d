// Package notify formats opportunities and delivers them to user channels.
package notify

import (
	"fmt"
	"strings"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/stakes"
)

// Embed colors.
const (
	ColorArb    = 0x10b981
	ColorMiddle = 0x3b82f6
)

// Footer is appended to every message.
const Footer = "Odds Trader"

// Field is one labelled value of a message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a channel-neutral rendering of an opportunity.
type Message struct {
	Title  string
	Color  int
	Fields []Field
	Legs   []arbitrage.Leg
	Footer string
}

// Format builds the alert for opp with legs staked from total.
func Format(opp *arbitrage.Opportunity, total float64) (Message, error) {
	staked, err := stakes.WithStakes(opp, total)
	if err != nil {
		return Message{}, fmt.Errorf("stake opportunity: %w", err)
	}

	color := ColorArb
	if opp.Type == arbitrage.TypeMiddle {
		color = ColorMiddle
	}

	msg := Message{
		Title:  fmt.Sprintf("%s Found: %s vs %s", opp.Type, opp.HomeTeam, opp.AwayTeam),
		Color:  color,
		Legs:   staked.Legs,
		Footer: Footer,
		Fields: []Field{
			{Name: "Sport", Value: opp.SportTitle, Inline: true},
			{Name: "Market", Value: strings.ToUpper(string(opp.MarketKey)), Inline: true},
			{Name: "Edge", Value: fmt.Sprintf("%+.2f%%", opp.EdgePct), Inline: true},
		},
	}

	if opp.MiddleWidth != nil {
		msg.Fields = append(msg.Fields, Field{
			Name:   "Width",
			Value:  fmt.Sprintf("%.1f pts", *opp.MiddleWidth),
			Inline: true,
		})
	}

	if opp.Type == arbitrage.TypeArb && staked.GuaranteedProfit > 0 {
		msg.Fields = append(msg.Fields, Field{
			Name:  "Guaranteed Profit",
			Value: fmt.Sprintf("$%.2f on $%s stake", staked.GuaranteedProfit, stakes.FormatAmount(total)),
		})
	}

	return msg, nil
}

// LegLines renders one line per leg, wrapping the outcome in bold markers.
func (m Message) LegLines(bold string) []string {
	lines := make([]string, 0, len(m.Legs))
	for _, leg := range m.Legs {
		var sb strings.Builder
		sb.WriteString(bold + leg.Outcome + bold)
		if leg.Point != nil {
			fmt.Fprintf(&sb, " (%+g)", *leg.Point)
		}
		fmt.Fprintf(&sb, " @ %.2f", leg.Odds)

		title := leg.BookmakerTitle
		if title == "" {
			title = leg.Bookmaker
		}
		sb.WriteString(" - " + title)

		if leg.Stake != nil {
			fmt.Fprintf(&sb, " - $%.2f", *leg.Stake)
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// Text renders the message as markdown-ish plain text for chat channels.
func (m Message) Text(bold string) string {
	var sb strings.Builder
	sb.WriteString(bold + m.Title + bold + "\n\n")
	for _, f := range m.Fields {
		fmt.Fprintf(&sb, "%s: %s\n", f.Name, f.Value)
	}
	sb.WriteString("\n")
	for _, line := range m.LegLines(bold) {
		sb.WriteString(line + "\n")
	}
	if m.Footer != "" {
		sb.WriteString("\n_" + m.Footer + "_")
	}
	return sb.String()
}
