package admin

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/quizboss/internal/game/session"
)

// Sessions is the view of running sessions the service steers.
// *session.Manager implements it.
type Sessions interface {
	List() []session.Snapshot
	Get(id string) (*session.Session, error)
	Stop(id string) error
}

// Packs reloads the pack catalog. *content.Catalog implements it.
type Packs interface {
	Reload(ctx context.Context) error
	Names() []string
}

// Scripts reloads encounter scripts. *scripting.Manager implements it.
type Scripts interface {
	LoadDir(dir string) error
	Keys() []string
}

// SessionInfo describes one running session.
type SessionInfo struct {
	ID        string
	Pack      string
	State     string
	BossHP    int
	BossMaxHP int
	Hearts    int
	Question  int
	Total     int
	Started   time.Time
}

// Service implements AdminServer.
type Service struct {
	sessions   Sessions
	packs      Packs
	scripts    Scripts
	scriptsDir string
	logger     *zap.Logger
}

// NewService creates the admin service. scripts may be nil, in which case
// ReloadPacks only reloads packs.
//
// Precondition: sessions, packs and logger must be non-nil.
func NewService(sessions Sessions, packs Packs, scripts Scripts, scriptsDir string, logger *zap.Logger) *Service {
	if sessions == nil || packs == nil || logger == nil {
		panic("admin.NewService: sessions, packs and logger must not be nil")
	}
	return &Service{
		sessions:   sessions,
		packs:      packs,
		scripts:    scripts,
		scriptsDir: scriptsDir,
		logger:     logger,
	}
}

// ListSessions implements AdminServer.
func (s *Service) ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	snaps := s.sessions.List()
	list := make([]any, 0, len(snaps))
	for _, snap := range snaps {
		list = append(list, infoFromSnapshot(snap).toMap())
	}
	out, err := structpb.NewStruct(map[string]any{"sessions": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding sessions: %v", err)
	}
	return out, nil
}

// PauseSession implements AdminServer.
//
// Postcondition: Returns FailedPrecondition unless the session is playing.
func (s *Service) PauseSession(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return s.steer(req, session.StatePlaying, session.CmdPause)
}

// ResumeSession implements AdminServer.
//
// Postcondition: Returns FailedPrecondition unless the session is paused.
func (s *Service) ResumeSession(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return s.steer(req, session.StatePaused, session.CmdResume)
}

func (s *Service) steer(req *structpb.Struct, want session.State, kind session.CommandKind) (*emptypb.Empty, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	if state := sess.Snapshot().State; state != want {
		return nil, status.Errorf(codes.FailedPrecondition, "session %s is %s, not %s", id, state, want)
	}
	if err := sess.Send(session.Command{Kind: kind}); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// StopSession implements AdminServer.
func (s *Service) StopSession(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Stop(id); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("session stopped by admin", zap.String("session_id", id))
	return &emptypb.Empty{}, nil
}

// ReloadPacks implements AdminServer. Running sessions keep the packs and
// scripts they started with.
func (s *Service) ReloadPacks(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.packs.Reload(ctx); err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "reloading packs: %v", err)
	}
	var scripts []string
	if s.scripts != nil && s.scriptsDir != "" {
		if err := s.scripts.LoadDir(s.scriptsDir); err != nil {
			return nil, status.Errorf(codes.FailedPrecondition, "reloading scripts: %v", err)
		}
		scripts = s.scripts.Keys()
	}
	packs := s.packs.Names()
	s.logger.Info("content reloaded by admin", zap.Int("packs", len(packs)), zap.Int("script_sets", len(scripts)))

	out, err := structpb.NewStruct(map[string]any{
		"packs":   anyList(packs),
		"scripts": anyList(scripts),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding reload result: %v", err)
	}
	return out, nil
}

// NewGRPCServer returns a gRPC server carrying svc and the standard health
// service, which reports SERVING for ServiceName.
//
// Postcondition: The caller owns both servers; call health.Shutdown before
// GracefulStop to fail health checks during drain.
func NewGRPCServer(svc AdminServer, logger *zap.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	RegisterAdminServer(srv, svc)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv, hs
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			logger.Warn("admin call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("admin call", fields...)
		}
		return resp, err
	}
}

func sessionID(req *structpb.Struct) (string, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return "", status.Error(codes.InvalidArgument, "id is required")
	}
	return id, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrInputFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, session.ErrClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func infoFromSnapshot(s session.Snapshot) SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		Pack:      s.Pack,
		State:     s.State.String(),
		BossHP:    s.BossHP,
		BossMaxHP: s.BossMaxHP,
		Hearts:    s.Hearts,
		Question:  s.Question,
		Total:     s.Total,
		Started:   s.Started,
	}
}

func (i SessionInfo) toMap() map[string]any {
	return map[string]any{
		"id":          i.ID,
		"pack":        i.Pack,
		"state":       i.State,
		"boss_hp":     i.BossHP,
		"boss_max_hp": i.BossMaxHP,
		"hearts":      i.Hearts,
		"question":    i.Question,
		"total":       i.Total,
		"started":     i.Started.UTC().Format(time.RFC3339Nano),
	}
}

func sessionsFromStruct(s *structpb.Struct) []SessionInfo {
	values := s.GetFields()["sessions"].GetListValue().GetValues()
	out := make([]SessionInfo, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		started, _ := time.Parse(time.RFC3339Nano, f["started"].GetStringValue())
		out = append(out, SessionInfo{
			ID:        f["id"].GetStringValue(),
			Pack:      f["pack"].GetStringValue(),
			State:     f["state"].GetStringValue(),
			BossHP:    int(f["boss_hp"].GetNumberValue()),
			BossMaxHP: int(f["boss_max_hp"].GetNumberValue()),
			Hearts:    int(f["hearts"].GetNumberValue()),
			Question:  int(f["question"].GetNumberValue()),
			Total:     int(f["total"].GetNumberValue()),
			Started:   started,
		})
	}
	return out
}

func anyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func stringList(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, e := range values {
		out = append(out, e.GetStringValue())
	}
	return out
}
