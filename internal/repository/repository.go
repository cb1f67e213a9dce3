package repository

import (
	"github.com/prperemyshlev/statboard/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User      UserRepository
	Token     TokenRepository
	Product   ProductRepository
	Statistic StatisticRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Token:     NewTokenRepository(db),
		Product:   NewProductRepository(db),
		Statistic: NewStatisticRepository(db),
	}
}
