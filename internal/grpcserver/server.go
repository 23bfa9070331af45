// Package grpcserver exposes chat authorization and chat push fan-out to the
// chat service over gRPC.
//
// It delegates all business logic to chatauth.Service and notify.Dispatcher
// and handles only the gRPC transport concerns: metadata extraction, error
// mapping and conversion between domain values and well-known proto types.
package grpcserver

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/flosslyDevs/ToothMatch/internal/apperr"
	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/events"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/notify"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "toothmatch.v1.ChatAuthorization"

// Authorizer evaluates the messaging predicate.
type Authorizer interface {
	HasConfirmedInterviewOrMatch(ctx context.Context, a, b string) (bool, error)
}

// ChatNotifier pushes a chat message to the recipient's devices.
type ChatNotifier interface {
	NotifyChat(ctx context.Context, recipientUserID string, chat notify.Chat) (notify.Report, error)
}

// Presence reports whether a user has an open event stream.
type Presence interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// LivePublisher delivers an event to connected users.
type LivePublisher interface {
	Publish(ctx context.Context, evt events.Event, recipients ...string)
}

// Server implements ChatAuthorizationServer.
type Server struct {
	authz    Authorizer
	notifier ChatNotifier
	presence Presence
	live     LivePublisher
	log      logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLiveDelivery sends chat messages to recipients with an open event
// stream as EVENT_CHAT_MESSAGE instead of a push.
func WithLiveDelivery(presence Presence, live LivePublisher) Option {
	return func(s *Server) { s.presence, s.live = presence, live }
}

// NewServer constructs a Server.
func NewServer(authz Authorizer, notifier ChatNotifier, log logger.Logger, opts ...Option) *Server {
	s := &Server{authz: authz, notifier: notifier, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// New returns a grpc.Server with the chat authorization and health services
// registered.
func New(srv *Server, log logger.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))
	RegisterChatAuthorizationServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// CanMessage reports whether userA may message userB. userA defaults to the
// caller forwarded in x-user-id metadata.
func (s *Server) CanMessage(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	userA := stringField(req, "userA")
	if userA == "" {
		id, err := userIDFromCtx(ctx)
		if err != nil {
			return nil, err
		}
		userA = id
	}
	userB := stringField(req, "userB")
	if userB == "" {
		return nil, status.Error(codes.InvalidArgument, "userB is required")
	}

	ok, err := s.authz.HasConfirmedInterviewOrMatch(ctx, userA, userB)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return wrapperspb.Bool(ok), nil
}

// NotifyMessage pushes a stored chat message to the recipient's devices and
// returns the delivery report. The sender must be allowed to message the
// recipient.
func (s *Server) NotifyMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	recipient := stringField(req, "recipientId")
	if recipient == "" {
		return nil, status.Error(codes.InvalidArgument, "recipientId is required")
	}
	chat := notify.Chat{
		MessageID:    stringField(req, "messageId"),
		SenderID:     stringField(req, "senderId"),
		SenderName:   stringField(req, "senderName"),
		SenderAvatar: stringField(req, "senderAvatar"),
		Message:      stringField(req, "message"),
		CreatedAt:    time.Now().UTC(),
	}
	if ts := stringField(req, "timestamp"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid timestamp %q", ts)
		}
		chat.CreatedAt = t
	}
	if chat.SenderID == "" {
		id, err := userIDFromCtx(ctx)
		if err != nil {
			return nil, err
		}
		chat.SenderID = id
	}

	allowed, err := s.authz.HasConfirmedInterviewOrMatch(ctx, chat.SenderID, recipient)
	if err != nil {
		return nil, toGRPCError(err)
	}
	if !allowed {
		return nil, status.Error(codes.PermissionDenied, "sender may not message recipient")
	}

	if s.deliverLive(ctx, recipient, chat) {
		return structpb.NewStruct(map[string]interface{}{
			"delivery": "stream", "total": 0, "successful": 0, "failed": 0, "pruned": 0,
		})
	}

	report, err := s.notifier.NotifyChat(ctx, recipient, chat)
	if err != nil {
		// Push is best effort.
		s.log.Warn("chat notification failed", map[string]interface{}{"recipientId": recipient, "error": err})
	}
	return structpb.NewStruct(map[string]interface{}{
		"delivery":   "push",
		"total":      report.Total,
		"successful": report.Successful,
		"failed":     report.Failed,
		"pruned":     report.Pruned,
	})
}

// deliverLive publishes chat to recipient's event stream when one is open.
// A presence lookup failure falls back to push.
func (s *Server) deliverLive(ctx context.Context, recipient string, chat notify.Chat) bool {
	if s.presence == nil || s.live == nil {
		return false
	}
	online, err := s.presence.IsOnline(ctx, recipient)
	if err != nil {
		s.log.Warn("presence lookup failed", map[string]interface{}{"recipientId": recipient, "error": err})
		return false
	}
	if !online {
		return false
	}
	_, data := notify.ChatMessage(chat)
	s.live.Publish(ctx, events.Event{Type: events.TypeChatMessage, Data: data}, recipient)
	return true
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// userIDFromCtx extracts the x-user-id value forwarded by the gateway via
// gRPC metadata.
func userIDFromCtx(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get(auth.GatewayHeader)
	if len(vals) == 0 || vals[0] == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id metadata")
	}
	return vals[0], nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, apperr.Message(err))
	case apperr.KindConflict:
		return status.Error(codes.FailedPrecondition, apperr.Message(err))
	case apperr.KindAuthorization:
		return status.Error(codes.PermissionDenied, apperr.Message(err))
	case apperr.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, apperr.Message(err))
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, apperr.Message(err))
	}
	return status.Error(codes.Internal, "internal server error")
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return fmt.Sprint(k.NumberValue)
	}
	return ""
}

func loggingInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := map[string]interface{}{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}
		if err != nil && status.Code(err) == codes.Internal {
			log.Error("grpc request failed", fields)
		} else {
			log.Debug("grpc request", fields)
		}
		return resp, err
	}
}
