package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/migrations"
	"github.com/prperemyshlev/statboard/pkg/database"
	"github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresSuite runs the repositories against a real PostgreSQL.
// Run with GO_TEST_INTEGRATION=1 go test ./internal/repository -run Postgres -v
type PostgresSuite struct {
	suite.Suite
	container tc.Container
	db        *database.Postgres
	repos     *Repositories
	ctx       context.Context
}

func TestPostgresSuite(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	req := tc.ContainerRequest{
		Image: "docker.io/postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "statboard",
			"POSTGRES_PASSWORD": "statboard_password",
			"POSTGRES_DB":       "statboard_db",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(s.ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	s.Require().NoError(err)
	s.container = c

	host, err := c.Host(s.ctx)
	s.Require().NoError(err)
	port, err := c.MappedPort(s.ctx, "5432/tcp")
	s.Require().NoError(err)

	url := fmt.Sprintf("postgres://statboard:statboard_password@%s:%s/statboard_db?sslmode=disable", host, port.Port())
	s.Require().NoError(migrations.Up(url))

	s.db, err = database.NewPostgres(s.ctx, url)
	s.Require().NoError(err)
	s.repos = NewRepositories(s.db)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.db.DB.ExecContext(s.ctx, `TRUNCATE statistics, refresh_tokens, products, users CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) localUser(email, name string) *domain.User {
	hash := "$2a$04$stored-hash"
	user := &domain.User{Email: email, Name: name, Password: &hash, Provider: domain.ProviderLocal}
	s.Require().NoError(s.repos.User.Create(s.ctx, user))
	return user
}

func (s *PostgresSuite) federatedUser(email, name string, provider domain.Provider) *domain.User {
	user := &domain.User{
		Email:    email,
		Name:     name,
		Roles:    []domain.Role{domain.RoleAdmin},
		Provider: provider,
	}
	s.Require().NoError(s.repos.User.Upsert(s.ctx, user))
	return user
}

func (s *PostgresSuite) TestCreateRejectsSecondLocalUser() {
	s.localUser("ann@example.com", "annie")

	err := s.repos.User.Create(s.ctx, &domain.User{Email: "ann@example.com", Name: "other", Provider: domain.ProviderLocal})
	s.ErrorIs(err, ErrDuplicate)
}

func (s *PostgresSuite) TestCreateTakesOverFederatedUser() {
	federated := s.federatedUser("ann@example.com", "Ann", domain.ProviderGoogle)

	hash := "$2a$04$new-hash"
	local := &domain.User{Email: "ann@example.com", Name: "annie", Password: &hash, Provider: domain.ProviderLocal}
	s.Require().NoError(s.repos.User.Create(s.ctx, local))
	s.Equal(federated.ID, local.ID)

	stored, err := s.repos.User.GetByEmail(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Equal(domain.ProviderLocal, stored.Provider)
	s.Require().NotNil(stored.Password)
	s.Equal(hash, *stored.Password)
}

func (s *PostgresSuite) TestUpsertKeepsLocalAccount() {
	local := s.localUser("victim@example.com", "victim")

	err := s.repos.User.Upsert(s.ctx, &domain.User{
		Email:    "victim@example.com",
		Name:     "Attacker",
		Roles:    []domain.Role{domain.RoleAdmin},
		Provider: domain.ProviderGitHub,
	})
	s.ErrorIs(err, ErrDuplicate)

	stored, err := s.repos.User.GetByID(s.ctx, local.ID)
	s.Require().NoError(err)
	s.Equal("victim", stored.Name)
	s.Equal(domain.ProviderLocal, stored.Provider)
	s.Equal([]domain.Role{domain.RoleUser}, stored.Roles)
	s.Require().NotNil(stored.Password)
}

func (s *PostgresSuite) TestUpsertOverwritesFederatedUser() {
	first := s.federatedUser("ann@example.com", "Ann", domain.ProviderGoogle)

	image := "https://avatars.example.com/ann.png"
	second := &domain.User{
		Email:    "ann@example.com",
		Name:     "Ann B",
		Image:    &image,
		Roles:    []domain.Role{domain.RoleUser},
		Provider: domain.ProviderGitHub,
	}
	s.Require().NoError(s.repos.User.Upsert(s.ctx, second))
	s.Equal(first.ID, second.ID)

	stored, err := s.repos.User.GetByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal("Ann B", stored.Name)
	s.Equal(domain.ProviderGitHub, stored.Provider)
	s.Equal([]domain.Role{domain.RoleUser}, stored.Roles)
	s.Require().NotNil(stored.Image)
	s.Equal(image, *stored.Image)
}

func (s *PostgresSuite) TestMalformedIDIsInvalidInput() {
	_, err := s.repos.User.GetByID(s.ctx, "not-a-uuid")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *PostgresSuite) TestTokenUpsertKeepsOnePerDevice() {
	user := s.localUser("ann@example.com", "annie")
	expires := time.Now().Add(time.Hour)

	for _, token := range []string{"token-1", "token-2"} {
		s.Require().NoError(s.repos.Token.Upsert(s.ctx, &domain.RefreshToken{
			Token: token, UserID: user.ID, UserAgent: "laptop", ExpiresAt: expires,
		}))
	}
	s.Require().NoError(s.repos.Token.Upsert(s.ctx, &domain.RefreshToken{
		Token: "token-3", UserID: user.ID, UserAgent: "phone", ExpiresAt: expires,
	}))

	_, err := s.repos.Token.GetByToken(s.ctx, "token-1")
	s.ErrorIs(err, ErrNotFound)

	stored, err := s.repos.Token.GetByToken(s.ctx, "token-2")
	s.Require().NoError(err)
	s.Equal("laptop", stored.UserAgent)

	_, err = s.repos.Token.GetByToken(s.ctx, "token-3")
	s.NoError(err)

	var count int
	s.Require().NoError(s.db.DB.QueryRowContext(s.ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1`, user.ID).Scan(&count))
	s.Equal(2, count)
}

func (s *PostgresSuite) TestDeleteByTokenSucceedsOnce() {
	user := s.localUser("ann@example.com", "annie")
	s.Require().NoError(s.repos.Token.Upsert(s.ctx, &domain.RefreshToken{
		Token: "token-1", UserID: user.ID, UserAgent: "laptop", ExpiresAt: time.Now().Add(time.Hour),
	}))

	s.NoError(s.repos.Token.DeleteByToken(s.ctx, "token-1"))
	s.ErrorIs(s.repos.Token.DeleteByToken(s.ctx, "token-1"), ErrNotFound)
}

func (s *PostgresSuite) TestDeleteExpiredTokens() {
	user := s.localUser("ann@example.com", "annie")
	now := time.Now()

	s.Require().NoError(s.repos.Token.Upsert(s.ctx, &domain.RefreshToken{
		Token: "old", UserID: user.ID, UserAgent: "laptop", ExpiresAt: now.Add(-time.Minute),
	}))
	s.Require().NoError(s.repos.Token.Upsert(s.ctx, &domain.RefreshToken{
		Token: "live", UserID: user.ID, UserAgent: "phone", ExpiresAt: now.Add(time.Hour),
	}))

	deleted, err := s.repos.Token.DeleteExpired(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.repos.Token.GetByToken(s.ctx, "live")
	s.NoError(err)
}

func (s *PostgresSuite) TestLeaderboardOrdersAndHidesBlockedUsers() {
	alice := s.localUser("alice@example.com", "alice")
	bob := s.localUser("bob@example.com", "bobby")
	carol := s.localUser("carol@example.com", "carol")

	product := &domain.Product{Name: "Tetris", Description: "falling blocks"}
	s.Require().NoError(s.repos.Product.Create(s.ctx, product))

	score := func(v float64) *float64 { return &v }
	other := "no score"
	for _, stat := range []*domain.Statistic{
		{UserID: alice.ID, ProductID: product.ID, Score: score(230)},
		{UserID: bob.ID, ProductID: product.ID, Score: score(510)},
		{UserID: carol.ID, ProductID: product.ID, Score: score(999)},
		{UserID: alice.ID, ProductID: product.ID, Other: &other},
	} {
		s.Require().NoError(s.repos.Statistic.Create(s.ctx, stat))
	}

	blocked := true
	_, err := s.repos.User.Update(s.ctx, carol.ID, domain.UserUpdate{IsBlocked: &blocked})
	s.Require().NoError(err)

	board, err := s.repos.Statistic.Query(s.ctx, domain.StatsFilter{
		ProductID:      product.ID,
		Sort:           []domain.SortKey{{Field: domain.StatFieldScore, Order: domain.SortDesc}},
		Limit:          10,
		ExcludeBlocked: true,
	})
	s.Require().NoError(err)
	s.Require().Len(board, 2)
	s.Equal(510.0, *board[0].Score)
	s.Equal(bob.ID, board[0].User.ID)
	s.Equal(230.0, *board[1].Score)
	s.Equal("Tetris", board[1].Product.Name)

	top, err := s.repos.Statistic.Query(s.ctx, domain.StatsFilter{
		ProductID: product.ID,
		Sort:      []domain.SortKey{{Field: domain.StatFieldScore, Order: domain.SortDesc}},
		Limit:     1,
	})
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(carol.ID, top[0].UserID)
}

func (s *PostgresSuite) TestStatisticGetByIDJoinsUserAndProduct() {
	alice := s.localUser("alice@example.com", "alice")
	product := &domain.Product{Name: "Tetris", Description: "falling blocks"}
	s.Require().NoError(s.repos.Product.Create(s.ctx, product))

	total := "00:12:30"
	stat := &domain.Statistic{UserID: alice.ID, ProductID: product.ID, TotalTime: &total}
	s.Require().NoError(s.repos.Statistic.Create(s.ctx, stat))

	stored, err := s.repos.Statistic.GetByID(s.ctx, stat.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.User)
	s.Require().NotNil(stored.Product)
	s.Equal("alice", stored.User.Name)
	s.Equal("Tetris", stored.Product.Name)
	s.Equal(total, *stored.TotalTime)
	s.Nil(stored.Score)

	_, err = s.repos.Statistic.GetByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresSuite) TestStatisticForUnknownProduct() {
	alice := s.localUser("alice@example.com", "alice")
	score := 1.0

	err := s.repos.Statistic.Create(s.ctx, &domain.Statistic{UserID: alice.ID, ProductID: uuid.NewString(), Score: &score})
	s.ErrorIs(err, ErrForeignKey)
}
