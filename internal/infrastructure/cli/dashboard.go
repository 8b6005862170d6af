package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/infrastructure/dashboard"
)

var (
	dashJSON    bool
	dashTUI     bool
	dashRange   string
	dashFrom    string
	dashTo      string
	dashProject string
	dashTeam    string
	dashMetric  string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the derived metrics dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := dashboardQuery(cmd)
		if err != nil {
			return NewCLIError(err.Error(), "Use --range 7d|14d|30d|custom with --from/--to as YYYY-MM-DD or RFC 3339", err)
		}
		s, err := loadSession()
		if err != nil {
			return err
		}
		svc := s.services.Dashboard

		if dashMetric != "" {
			v, err := svc.Metric(cmd.Context(), dashMetric, q)
			if err != nil {
				return MapError(fmt.Errorf("metric %s: %w", dashMetric, err))
			}
			return printJSON(out(cmd), v)
		}

		if dashTUI {
			if os.Getenv("FLOWCRAFT_SKIP_DASHBOARD_RUN") == "true" {
				return nil
			}
			p := tea.NewProgram(newDashboardModel(cmd.Context(), svc, q))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard run failed: %w", err)
			}
			return nil
		}

		d, err := svc.Dashboard(cmd.Context(), q)
		if err != nil {
			return MapError(fmt.Errorf("compute dashboard: %w", err))
		}
		if dashJSON {
			return printJSON(out(cmd), d)
		}
		renderDashboard(out(cmd), d)
		return nil
	},
}

// dashboardQuery turns the flags into the same query the HTTP API accepts.
// Only flags given on the command line override stored preferences.
func dashboardQuery(cmd *cobra.Command) (application.DashboardQuery, error) {
	v := url.Values{}
	for flag, param := range map[string]string{
		"range": "range", "from": "from", "to": "to", "project": "project", "team": "team",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, _ := cmd.Flags().GetString(flag)
		v.Set(param, value)
	}
	return dashboard.ParseQuery(v)
}

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)
	cardTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

var wipStyles = map[analytics.WipLevel]lipgloss.Style{
	analytics.WipGreen: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	analytics.WipAmber: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	analytics.WipRed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

func days(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fd", *v)
}

func etaDays(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%dd", *v)
}

func rangeLabel(d analytics.Dashboard) string {
	return fmt.Sprintf("%s (%s to %s)", d.TimeRange.Preset,
		d.Window.From.Format("2006-01-02"), d.Window.To.Format("2006-01-02"))
}

// dashboardRows flattens the cards into metric/value pairs, shared by the
// text output and the TUI table.
func dashboardRows(d analytics.Dashboard) [][2]string {
	st := d.Status
	rows := [][2]string{
		{"Status", fmt.Sprintf("Todo %d (%d%%) | In Progress %d (%d%%) | In Review %d (%d%%) | Done %d (%d%%) | Total %d",
			st.Todo, st.TodoPercent, st.InProgress, st.InProgressPercent, st.InReview, st.InReviewPercent, st.Done, st.DonePercent, st.Total)},
	}

	sprint := "no active sprint"
	if sp := d.ActiveSprint.Sprint; sp != nil {
		sprint = fmt.Sprintf("%s: %d/%d done (%d%%)", sp.Name, d.ActiveSprint.Done, d.ActiveSprint.Total, d.ActiveSprint.Percent)
	}
	rows = append(rows, [2]string{"Sprint", sprint})

	tp := fmt.Sprintf("%d completed", d.Throughput.Count)
	if d.Throughput.Approximate {
		tp += fmt.Sprintf(" (approximate, %d from updated_at)", d.Throughput.Fallback)
	}
	rows = append(rows, [2]string{"Throughput", tp})

	wl := make([]string, 0, len(d.Workload))
	for _, e := range d.Workload {
		wl = append(wl, fmt.Sprintf("%s %d", e.AssigneeID, e.Count))
	}
	rows = append(rows, [2]string{"Workload", joinOr(wl, "no assigned open work")})

	vel := make([]string, 0, len(d.Velocity))
	for _, e := range d.Velocity {
		vel = append(vel, fmt.Sprintf("%s %d", e.Name, e.DoneCount))
	}
	rows = append(rows, [2]string{"Velocity", joinOr(vel, "no sprints")})

	rows = append(rows,
		[2]string{"Blocked/Stale", fmt.Sprintf("%d blocked (%s), %d stale (>%dd)",
			d.BlockedStale.TotalBlocked, d.BlockedStale.Mode, d.BlockedStale.TotalStale, d.BlockedStale.StaleAgeDays)},
		[2]string{"WIP", wipStyles[d.WipPressure.Level].Render(fmt.Sprintf("%d/%d %s",
			d.WipPressure.WIP, d.WipPressure.Threshold, d.WipPressure.Level))},
	)

	ct := fmt.Sprintf("median %s, p75 %s, mean %s over %d issues",
		days(d.CycleTime.Median), days(d.CycleTime.P75), days(d.CycleTime.Mean), d.CycleTime.Samples)
	if d.CycleTime.InsufficientData {
		ct += " (insufficient data)"
	}
	rows = append(rows, [2]string{"Cycle time", ct})

	eta := make([]string, 0, len(d.DeliveryEta))
	for _, e := range d.DeliveryEta {
		eta = append(eta, fmt.Sprintf("%s: %d left, %s (best %s)",
			e.ProjectID, e.Remaining, etaDays(e.EtaMedianDays), etaDays(e.EtaOptimisticDays)))
	}
	rows = append(rows, [2]string{"Delivery ETA", joinOr(eta, "no projects")})
	return rows
}

func joinOr(parts []string, empty string) string {
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, ", ")
}

func renderDashboard(w io.Writer, d analytics.Dashboard) {
	fmt.Fprintln(w, headerStyle.Render("FlowCraft dashboard")+" "+dimStyle.Render(rangeLabel(d)))
	for _, row := range dashboardRows(d) {
		fmt.Fprintf(w, "%s %s\n", cardTitle.Render(fmt.Sprintf("%-14s", row[0])), row[1])
	}
}

// Interactive dashboard

var tuiRanges = []analytics.Preset{analytics.Preset7d, analytics.Preset14d, analytics.Preset30d}

type dashboardSource interface {
	Dashboard(ctx context.Context, q application.DashboardQuery) (analytics.Dashboard, error)
}

type dashboardMsg struct {
	d   analytics.Dashboard
	err error
}

type dashboardModel struct {
	ctx    context.Context
	source dashboardSource
	query  application.DashboardQuery
	table  table.Model
	dash   analytics.Dashboard
	err    error
}

func newDashboardModel(ctx context.Context, source dashboardSource, q application.DashboardQuery) dashboardModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Metric", Width: 14},
			{Title: "Value", Width: 90},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return dashboardModel{ctx: ctx, source: source, query: q, table: t}
}

func (m dashboardModel) load() tea.Cmd {
	q := m.query
	return func() tea.Msg {
		d, err := m.source.Dashboard(m.ctx, q)
		return dashboardMsg{d: d, err: err}
	}
}

func (m dashboardModel) Init() tea.Cmd { return m.load() }

// nextRange cycles the preset; a custom range starts the cycle over.
func (m dashboardModel) nextRange() analytics.Preset {
	current := m.dash.TimeRange.Preset
	for i, p := range tuiRanges {
		if p == current {
			return tuiRanges[(i+1)%len(tuiRanges)]
		}
	}
	return tuiRanges[0]
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load()
		case "t":
			m.query.TimeRange = &analytics.TimeRange{Preset: m.nextRange()}
			return m, m.load()
		}
	case dashboardMsg:
		m.err = msg.err
		if msg.err == nil {
			m.dash = msg.d
			rows := make([]table.Row, 0, 9)
			for _, r := range dashboardRows(msg.d) {
				rows = append(rows, table.Row{r[0], r[1]})
			}
			m.table.SetRows(rows)
		}
		return m, nil
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}
	header := headerStyle.Render("FlowCraft") + " " + dimStyle.Render(rangeLabel(m.dash))
	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.table.View(),
			"\n[q] Quit  [r] Refresh  [t] Time range  [Up/Down] Navigate",
		),
	) + "\n"
}

func init() {
	dashboardCmd.Flags().BoolVar(&dashJSON, "json", false, "Output in JSON format")
	dashboardCmd.Flags().BoolVar(&dashTUI, "tui", false, "Interactive terminal dashboard")
	dashboardCmd.Flags().StringVar(&dashRange, "range", "", "Time range: 7d, 14d, 30d or custom")
	dashboardCmd.Flags().StringVar(&dashFrom, "from", "", "Custom range start")
	dashboardCmd.Flags().StringVar(&dashTo, "to", "", "Custom range end")
	dashboardCmd.Flags().StringVar(&dashProject, "project", "", "Comma separated project IDs; empty clears the stored filter")
	dashboardCmd.Flags().StringVar(&dashTeam, "team", "", "Comma separated team IDs; empty clears the stored filter")
	dashboardCmd.Flags().StringVar(&dashMetric, "metric", "", "Print a single metric as JSON ("+strings.Join(application.MetricNames, ", ")+")")
	RootCmd.AddCommand(dashboardCmd)
}
