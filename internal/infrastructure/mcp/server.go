package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
	"github.com/felixgeelhaar/flowcraft/pkg/infrastructure/dashboard"
)

type Server struct {
	mcpServer    *mcp.Server
	issueSvc     *application.IssueService
	dashboardSvc *application.DashboardService
	log          zerolog.Logger
	root         string
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(root string, logger zerolog.Logger) *Server {
	services := wiring.BuildAppServices(root, logger)

	info := mcp.ServerInfo{
		Name:    "flowcraft",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("FlowCraft MCP Server"),
			mcp.WithDescription("FlowCraft exposes derived delivery metrics for a local issue tracker to MCP clients."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use the flowcraft_* tools to read dashboard metrics and move issues across the board."),
		),
		issueSvc:     services.Issues,
		dashboardSvc: services.Dashboard,
		log:          logger,
		root:         root,
	}

	s.registerTools()
	s.registerResources()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("flowcraft_dashboard").
		Description("Compute every dashboard card (status, sprint, throughput, workload, velocity, blocked/stale, WIP, cycle time, delivery ETA)").
		Handler(s.handleDashboard)

	s.mcpServer.Tool("flowcraft_throughput").
		Description("Count issues completed in the selected time range").
		Handler(s.handleThroughput)

	s.mcpServer.Tool("flowcraft_cycle_time").
		Description("Median, p75 and mean days from In Progress to Done for issues that first entered In Progress within the range").
		Handler(s.handleCycleTime)

	s.mcpServer.Tool("flowcraft_delivery_eta").
		Description("Estimate days to finish the remaining work of each project from recent sprint throughput").
		Handler(s.handleDeliveryEta)

	s.mcpServer.Tool("flowcraft_wip").
		Description("Compare open work against the WIP threshold").
		Handler(s.handleWip)

	s.mcpServer.Tool("flowcraft_move_issue").
		Description("Move an issue to another board status (Todo, In Progress, In Review, Done) along the allowed workflow").
		Handler(s.handleMoveIssue)
}

func (s *Server) query(args ScopeArgs) (application.DashboardQuery, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("range", args.Range)
	set("from", args.From)
	set("to", args.To)
	set("project", string(args.Projects))
	set("team", string(args.Teams))

	q, err := dashboard.ParseQuery(v)
	if err != nil {
		return q, mcpErr(fmt.Sprintf("Invalid arguments: %v. Use range 7d, 14d, 30d or custom with from/to timestamps.", err))
	}
	return q, nil
}

// loadErr turns a compute failure into a message the client can act on.
func (s *Server) loadErr(err error) error {
	if errors.Is(err, tracker.ErrWorkspaceNotInitialized) {
		return mcpErr("Workspace not initialized. Run 'flowcraft init' in the project directory.")
	}
	s.log.Error().Err(err).Msg("mcp: dashboard computation failed")
	return mcpErr("Failed to compute metrics. Check workspace.json and preferences.yaml.")
}

func (s *Server) handleDashboard(ctx context.Context, args ScopeArgs) (any, error) {
	q, err := s.query(args)
	if err != nil {
		return nil, err
	}
	d, err := s.dashboardSvc.Dashboard(ctx, q)
	if err != nil {
		return nil, s.loadErr(err)
	}
	return d, nil
}

func (s *Server) handleThroughput(ctx context.Context, args ScopeArgs) (any, error) {
	q, err := s.query(args)
	if err != nil {
		return nil, err
	}
	r, err := s.dashboardSvc.Throughput(ctx, q)
	if err != nil {
		return nil, s.loadErr(err)
	}
	return r, nil
}

func (s *Server) handleCycleTime(ctx context.Context, args ScopeArgs) (any, error) {
	q, err := s.query(args)
	if err != nil {
		return nil, err
	}
	r, err := s.dashboardSvc.CycleTime(ctx, q)
	if err != nil {
		return nil, s.loadErr(err)
	}
	return r, nil
}

func (s *Server) handleDeliveryEta(ctx context.Context, args ScopeArgs) (any, error) {
	q, err := s.query(args)
	if err != nil {
		return nil, err
	}
	r, err := s.dashboardSvc.DeliveryEta(ctx, q)
	if err != nil {
		return nil, s.loadErr(err)
	}
	return r, nil
}

func (s *Server) handleWip(ctx context.Context, args ScopeArgs) (any, error) {
	q, err := s.query(args)
	if err != nil {
		return nil, err
	}
	r, err := s.dashboardSvc.Metric(ctx, application.MetricWIP, q)
	if err != nil {
		return nil, s.loadErr(err)
	}
	return r, nil
}

func (s *Server) handleMoveIssue(ctx context.Context, args MoveIssueArgs) (string, error) {
	target := tracker.IssueStatus(args.Status)
	issue, err := s.issueSvc.MoveIssue(ctx, args.IssueID, target)
	if err != nil {
		var terr *tracker.TransitionError
		switch {
		case errors.As(err, &terr):
			next := tracker.NextStatuses(terr.From)
			return "", mcpErr(fmt.Sprintf("Cannot move %s from %s to %s. Allowed next statuses: %v.", args.IssueID, terr.From, terr.To, next))
		case errors.Is(err, tracker.ErrIssueNotFound):
			return "", mcpErr(fmt.Sprintf("Issue '%s' not found.", args.IssueID))
		case errors.Is(err, tracker.ErrInvalidInput):
			return "", mcpErr(fmt.Sprintf("Unknown status '%s'. Use Todo, In Progress, In Review or Done.", args.Status))
		}
		return "", s.loadErr(err)
	}
	return fmt.Sprintf("Issue %s moved to %s", issue.ID, issue.Status), nil
}

func (s *Server) Start() error {
	return s.StartStdio()
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}
