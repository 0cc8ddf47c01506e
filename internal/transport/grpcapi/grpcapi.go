// Package grpcapi serves the progression operations over gRPC. Requests and
// responses are google.protobuf.Struct values carrying the same JSON shapes
// as the HTTP API.
package grpcapi

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/service"
)

const ServiceName = "progression.v1.Progression"

const (
	MethodPull        = "Pull"
	MethodStartBattle = "StartBattle"
	MethodEncounter   = "GetEncounter"
	MethodAttack      = "Attack"
	MethodFlee        = "Flee"
	MethodRunDungeon  = "RunDungeon"
	MethodGetProfile  = "GetProfile"
)

// ProgressionServer is the handler type registered for ServiceName.
type ProgressionServer interface {
	Pull(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartBattle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEncounter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Attack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Flee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunDungeon(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type Server struct {
	ops service.Operations
}

var _ ProgressionServer = (*Server)(nil)

func NewServer(ops service.Operations) *Server {
	return &Server{ops: ops}
}

// Register adds the progression service to s.
func Register(s grpc.ServiceRegistrar, srv ProgressionServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProgressionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPull, ProgressionServer.Pull),
		unary(MethodStartBattle, ProgressionServer.StartBattle),
		unary(MethodEncounter, ProgressionServer.GetEncounter),
		unary(MethodAttack, ProgressionServer.Attack),
		unary(MethodFlee, ProgressionServer.Flee),
		unary(MethodRunDungeon, ProgressionServer.RunDungeon),
		unary(MethodGetProfile, ProgressionServer.GetProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "progression/v1/progression.proto",
}

type call func(ProgressionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(ProgressionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(srv.(ProgressionServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

func (s *Server) Pull(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	count, err := intField(in, "count", 1)
	if err != nil {
		return respond(MethodPull, nil, err)
	}
	out, err := s.ops.Pull(ctx, stringField(in, "player_id"), count)
	return respond(MethodPull, out, err)
}

func (s *Server) StartBattle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.ops.StartBattle(ctx, stringField(in, "player_id"))
	return respond(MethodStartBattle, out, err)
}

func (s *Server) GetEncounter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.ops.Encounter(ctx, stringField(in, "player_id"))
	return respond(MethodEncounter, out, err)
}

func (s *Server) Attack(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.ops.Attack(ctx, stringField(in, "player_id"))
	return respond(MethodAttack, out, err)
}

func (s *Server) Flee(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.ops.Flee(ctx, stringField(in, "player_id"))
	return respond(MethodFlee, out, err)
}

func (s *Server) RunDungeon(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.ops.RunDungeon(ctx, stringField(in, "player_id"), stringField(in, "set"))
	return respond(MethodRunDungeon, out, err)
}

func (s *Server) GetProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.ops.GetProfile(ctx, stringField(in, "player_id"))
	return respond(MethodGetProfile, out, err)
}

// respond converts a result to a Struct, or err to a status error.
func respond(method string, out any, err error) (*structpb.Struct, error) {
	if err != nil {
		if !perr.GetCode(err).Recoverable() {
			log.Printf("grpc %s: %v", method, err)
		}
		return nil, perr.HandleError(err)
	}
	st, err := toStruct(out)
	if err != nil {
		log.Printf("grpc %s: encode response: %v", method, err)
		return nil, perr.HandleError(err)
	}
	return st, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return structpb.NewStruct(payload)
}

func stringField(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

func intField(in *structpb.Struct, key string, def int) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, perr.New(perr.CodeInvalidArgument, "%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}
