package repository

import (
	"fmt"

	"github.com/yourusername/formcast/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Decision DecisionRepository
	Result   ResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Decision: NewPostgresDecisionRepository(db),
		Result:   NewPostgresResultRepository(db),
	}, nil
}
