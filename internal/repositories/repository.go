package repositories

import "context"

// Repository aggregates all entity repositories behind a single handle so
// services depend on one interface and transactions can rebind every
// sub-repository at once.
type Repository interface {
	Question() QuestionRepository
	Collection() CollectionRepository
	Session() SessionRepository
	SessionQuestion() SessionQuestionRepository
	Response() ResponseRepository
	Admin() AdminRepository

	// WithTransaction runs fn against a repository whose operations all share
	// one database transaction. fn returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}
