package domain

import "context"

// TransactionManager runs fn inside one database transaction carried by the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
