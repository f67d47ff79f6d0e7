package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/nox-hq/chatgen/gateway"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// CompletionServiceName is the fully-qualified gRPC service name.
	CompletionServiceName = "chatgen.v1.Completion"

	generateFullMethod = "/" + CompletionServiceName + "/Generate"

	// RequestIDHeader carries the request ID in both directions. A caller
	// supplied ID is kept; otherwise one is generated.
	RequestIDHeader = "x-request-id"
)

// CompletionServer is the server API for the chatgen.v1.Completion service.
// Requests and replies are google.protobuf.Struct values:
//
//	request:  {"messages": [{"role": "user", "content": "..."}]}
//	response: {"text": "...", "source": "remote"|"placeholder"|"fallback"}
type CompletionServer interface {
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var completionServiceDesc = grpc.ServiceDesc{
	ServiceName: CompletionServiceName,
	HandlerType: (*CompletionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Generate",
			Handler:    generateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatgen/v1/completion.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompletionServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: generateFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CompletionServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterCompletionServer registers srv on s.
func RegisterCompletionServer(s grpc.ServiceRegistrar, srv CompletionServer) {
	s.RegisterService(&completionServiceDesc, srv)
}

type completionService struct {
	gw *gateway.Gateway
}

// Generate implements CompletionServer.
func (c *completionService) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	msgs, err := messagesFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res := c.gw.Generate(ctx, msgs)
	out, err := structpb.NewStruct(map[string]any{
		"text":   res.Text,
		"source": string(res.Source),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding reply: %v", err)
	}
	return out, nil
}

// NewGRPCServer returns a gRPC server with the completion service and the
// standard health service registered.
func NewGRPCServer(gw *gateway.Gateway, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	s := grpc.NewServer(opts...)

	RegisterCompletionServer(s, &completionService{gw: gw})

	hs := health.NewServer()
	hs.SetServingStatus(CompletionServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	return s
}

// ServeGRPC listens on addr and serves until ctx is cancelled, then stops
// gracefully.
func ServeGRPC(ctx context.Context, addr string, gw *gateway.Gateway, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s := NewGRPCServer(gw, logger)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.GracefulStop()
	}()

	logger.Info("gRPC server listening", "addr", lis.Addr().String())
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serving gRPC: %w", err)
	}
	<-stopped
	return nil
}

// GenerateRemote calls Generate on a chatgen gRPC server.
func GenerateRemote(ctx context.Context, cc grpc.ClientConnInterface, msgs []gateway.Message) (gateway.Result, error) {
	in, err := messagesToStruct(msgs)
	if err != nil {
		return gateway.Result{}, err
	}

	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, generateFullMethod, in, out); err != nil {
		return gateway.Result{}, err
	}

	return gateway.Result{
		Text:   out.GetFields()["text"].GetStringValue(),
		Source: gateway.Source(out.GetFields()["source"].GetStringValue()),
	}, nil
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			"request_id", id,
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

func messagesToStruct(msgs []gateway.Message) (*structpb.Struct, error) {
	list := make([]any, len(msgs))
	for i, m := range msgs {
		list[i] = map[string]any{
			"role":    string(m.Role),
			"content": m.Content,
		}
	}
	s, err := structpb.NewStruct(map[string]any{"messages": list})
	if err != nil {
		return nil, fmt.Errorf("encoding messages: %w", err)
	}
	return s, nil
}

// messagesFromStruct decodes the request's messages. A missing field is an
// empty conversation.
func messagesFromStruct(s *structpb.Struct) ([]gateway.Message, error) {
	field, ok := s.GetFields()["messages"]
	if !ok {
		return nil, nil
	}
	list := field.GetListValue()
	if list == nil {
		return nil, errors.New("messages must be a list")
	}

	msgs := make([]gateway.Message, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		obj := v.GetStructValue()
		if obj == nil {
			return nil, fmt.Errorf("message %d: must be an object", i)
		}
		role := gateway.Role(obj.GetFields()["role"].GetStringValue())
		if !role.Valid() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, role)
		}
		msgs = append(msgs, gateway.Message{
			Role:    role,
			Content: obj.GetFields()["content"].GetStringValue(),
		})
	}
	return msgs, nil
}
