// Package admin exposes operator controls for a running quizboss server over
// gRPC: listing and steering sessions and reloading content.
//
// Messages are the protobuf well-known types (structpb, emptypb), so the
// service needs no generated code.
package admin

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "quizboss.admin.v1.AdminService"

// AdminServer is the server API of the admin service.
type AdminServer interface {
	// ListSessions returns {"sessions": [...]} describing every running session.
	ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// PauseSession pauses the playing session named by {"id": ...}.
	PauseSession(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// ResumeSession resumes the paused session named by {"id": ...}.
	ResumeSession(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// StopSession ends the session named by {"id": ...}.
	StopSession(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// ReloadPacks reloads question packs and encounter scripts and returns
	// {"packs": [...], "scripts": [...]}.
	ReloadPacks(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes AdminService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		method("ListSessions", AdminServer.ListSessions),
		method("PauseSession", AdminServer.PauseSession),
		method("ResumeSession", AdminServer.ResumeSession),
		method("StopSession", AdminServer.StopSession),
		method("ReloadPacks", AdminServer.ReloadPacks),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quizboss/admin/v1/admin.proto",
}

// RegisterAdminServer registers srv on s.
func RegisterAdminServer(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// method builds the unary handler for one AdminServer method.
func method[Req, Resp any](name string, call func(AdminServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AdminServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(AdminServer), ctx, req.(*Req))
			})
		},
	}
}

// Client calls AdminService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ListSessions returns every running session.
func (c *Client) ListSessions(ctx context.Context, opts ...grpc.CallOption) ([]SessionInfo, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("ListSessions"), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return sessionsFromStruct(out), nil
}

// PauseSession pauses the session with id.
func (c *Client) PauseSession(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.invokeID(ctx, "PauseSession", id, opts)
}

// ResumeSession resumes the session with id.
func (c *Client) ResumeSession(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.invokeID(ctx, "ResumeSession", id, opts)
}

// StopSession ends the session with id.
func (c *Client) StopSession(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.invokeID(ctx, "StopSession", id, opts)
}

// ReloadPacks reloads content and returns the pack names and script set keys
// now loaded.
func (c *Client) ReloadPacks(ctx context.Context, opts ...grpc.CallOption) (packs, scripts []string, err error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("ReloadPacks"), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, nil, err
	}
	return stringList(out.GetFields()["packs"]), stringList(out.GetFields()["scripts"]), nil
}

func (c *Client) invokeID(ctx context.Context, name, id string, opts []grpc.CallOption) error {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{"id": structpb.NewStringValue(id)}}
	return c.cc.Invoke(ctx, fullMethod(name), in, &emptypb.Empty{}, opts...)
}
