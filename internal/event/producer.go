package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Agamvashisht/fintrack/internal/domain"
	pkgkafka "github.com/Agamvashisht/fintrack/pkg/kafka"
)

// Kafka topic constants for account domain events.
const (
	TopicUserRegistered  = "fintrack.user.registered"
	TopicSessionsRevoked = "fintrack.user.sessions_revoked"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceAPI = "fintrack-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// SessionsRevokedData is the payload for a user.sessions_revoked event.
// Reason is either "reuse_detected" or "logout_all".
type SessionsRevokedData struct {
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
	Revoked int64  `json:"revoked"`
}

// Producer publishes account domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishSessionsRevoked publishes a user.sessions_revoked event.
func (p *Producer) PublishSessionsRevoked(ctx context.Context, userID, reason string, revoked int64) error {
	data := SessionsRevokedData{
		UserID:  userID,
		Reason:  reason,
		Revoked: revoked,
	}

	event, err := pkgkafka.NewEvent(TopicSessionsRevoked, userID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.sessions_revoked event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionsRevoked, event); err != nil {
		return fmt.Errorf("publish user.sessions_revoked event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.sessions_revoked event",
		slog.String("user_id", userID),
		slog.String("reason", reason),
		slog.Int64("revoked", revoked),
	)

	return nil
}
