// Package console exposes a running engine over gRPC for debugging: a status
// snapshot and a small command language. Requests are executed on the
// engine's frame loop through its command queue.
package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cory-johannsen/cardstack/internal/game/engine"
	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cardstack.console.v1.Console"

const (
	statusMethod = "/" + ServiceName + "/Status"
	execMethod   = "/" + ServiceName + "/Exec"
)

// DefaultTimeout bounds how long a request waits for the frame loop.
const DefaultTimeout = 5 * time.Second

// Target is the engine surface the console drives. Every method except
// Submit must be called from the frame loop.
type Target interface {
	Submit(fn func()) error
	Status() engine.Status
	State() *state.GameState
	ChangeToCard(card uint16, t media.Transition) error
	ChangeToStack(stack, card, linkSrc, linkDst uint16) error
	DropPage()
	LoadGame(slot int) (bool, error)
	SaveGame(slot int, description string) bool
	Quit()
}

// ConsoleServer is the server API of the console service.
type ConsoleServer interface {
	Status(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Exec(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// Server implements ConsoleServer against a Target.
type Server struct {
	target  Target
	logger  *zap.Logger
	timeout time.Duration
}

// NewServer creates a console server.
//
// Precondition: target and logger must be non-nil.
// Postcondition: Returns a server waiting at most timeout per request; a
// non-positive timeout uses DefaultTimeout.
func NewServer(target Target, logger *zap.Logger, timeout time.Duration) *Server {
	if target == nil || logger == nil {
		panic("console.NewServer: nil dependency")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Server{target: target, logger: logger, timeout: timeout}
}

// Register adds the console service to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}

// onLoop runs fn on the frame loop and waits for it to finish.
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	done := make(chan struct{})
	if err := s.target.Submit(func() {
		defer close(done)
		fn()
	}); err != nil {
		if errors.Is(err, engine.ErrQueueFull) {
			return status.Error(codes.ResourceExhausted, err.Error())
		}
		return status.Error(codes.Unavailable, err.Error())
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return status.FromContextError(ctx.Err()).Err()
	}
}

// Status implements ConsoleServer.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	var st engine.Status
	if err := s.onLoop(ctx, func() { st = s.target.Status() }); err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(statusFields(st))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func statusFields(st engine.Status) map[string]any {
	return map[string]any{
		"stack":       float64(st.Stack),
		"stack_name":  st.StackName,
		"card":        float64(st.Card),
		"in_menu":     st.InMenu,
		"interactive": st.Interactive,
		"frames":      float64(st.Frames),
		"age":         st.Age.String(),
		"held_page":   float64(st.HeldPage),
		"main_cursor": float64(st.MainCursor),
		"millis":      float64(st.Millis),
	}
}

// Exec implements ConsoleServer.
func (s *Server) Exec(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	cmd, err := Parse(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var (
		reply  string
		cmdErr error
	)
	if err := s.onLoop(ctx, func() { reply, cmdErr = cmd.Run(s.target) }); err != nil {
		return nil, err
	}
	if cmdErr != nil {
		s.logger.Warn("console command failed",
			zap.String("command", req.GetValue()),
			zap.Error(cmdErr),
		)
		return nil, status.Error(commandCode(cmdErr), cmdErr.Error())
	}
	s.logger.Info("console command", zap.String("command", req.GetValue()))
	return wrapperspb.String(reply), nil
}

// commandCode maps a failed command to a status code. Unknown targets are
// rejected before the engine changes anything.
func commandCode(err error) codes.Code {
	if errors.Is(err, engine.ErrUnknownCard) || errors.Is(err, stack.ErrUnknownStack) {
		return codes.InvalidArgument
	}
	return codes.FailedPrecondition
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsoleServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConsoleServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func execHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsoleServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: execMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConsoleServer).Exec(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsoleServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Exec", Handler: execHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cardstack/console/v1/console.proto",
}

// Client calls a console server.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Status returns the engine status as a field map.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statusMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fmt.Errorf("console status: %w", err)
	}
	return out.AsMap(), nil
}

// Exec runs one command line and returns its reply.
func (c *Client) Exec(ctx context.Context, line string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, execMethod, wrapperspb.String(line), out); err != nil {
		return "", fmt.Errorf("console exec %q: %w", line, err)
	}
	return out.GetValue(), nil
}
