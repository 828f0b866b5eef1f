package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/events"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	consoleChannel      string
	consoleConversation string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run a location dialog on stdin and stdout",
	Long: `console runs one conversation against the configured geocoding provider.
Type "@lat,lon" to send a channel native location.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.MustLoad()
		logger := setupLogger(cfg.Env)
		appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

		conversations, err := buildConversations(ctx, cfg, logger, appMetrics, repository.NewMemory(), events.Discard{})
		if err != nil {
			return err
		}

		return runConsole(ctx, conversations, os.Stdin, os.Stdout)
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleChannel, "channel", "console", "channel id reported to the dialog")
	consoleCmd.Flags().StringVar(&consoleConversation, "conversation", "console", "conversation id")
}

type conversationHandler interface {
	Handle(ctx context.Context, in service.Inbound) (*service.Outcome, error)
}

// runConsole starts the dialog and feeds it one line per turn until it finishes or input ends.
func runConsole(ctx context.Context, conversations conversationHandler, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	inbound := service.Inbound{ConversationID: consoleConversation, ChannelID: consoleChannel}

	for {
		outcome, err := conversations.Handle(ctx, inbound)
		if err != nil {
			return err
		}
		for _, reply := range outcome.Replies {
			fmt.Fprint(out, renderReply(reply))
		}
		if outcome.Done {
			fmt.Fprintln(out, renderPlace(outcome.Place))
			return nil
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		inbound.Text, inbound.Point = parseLine(scanner.Text())
	}
}

// parseLine reads "@lat,lon" as a native location and anything else as text.
func parseLine(line string) (string, *models.GeoPoint) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "@")
	if !ok {
		return line, nil
	}
	latRaw, lonRaw, ok := strings.Cut(rest, ",")
	if !ok {
		return line, nil
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if errLat != nil || errLon != nil {
		return line, nil
	}

	return "", models.NewGeoPoint(lat, lon)
}

func renderReply(r dialog.Reply) string {
	var b strings.Builder
	for i, card := range r.Cards {
		fmt.Fprintf(&b, "  [%d] %s", i+1, card.Title)
		if card.Subtitle != "" && card.Subtitle != card.Title {
			fmt.Fprintf(&b, " (%s)", card.Subtitle)
		}
		b.WriteString("\n")
	}
	if r.Text != "" {
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	if len(r.Buttons) > 0 {
		titles := make([]string, 0, len(r.Buttons))
		for _, btn := range r.Buttons {
			titles = append(titles, btn.Title)
		}
		fmt.Fprintf(&b, "  {%s}\n", strings.Join(titles, " | "))
	}
	if r.RequestLocation {
		b.WriteString("  {Send Location: type @lat,lon}\n")
	}

	return b.String()
}

func renderPlace(p *models.Place) string {
	if p == nil {
		return "No location captured."
	}

	var parts []string
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Address != nil && p.Address.FormattedAddress != "" {
		parts = append(parts, p.Address.FormattedAddress)
	}
	if p.Geo != nil {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", p.Geo.Latitude, p.Geo.Longitude))
	}

	return "Captured: " + strings.Join(parts, " / ")
}
