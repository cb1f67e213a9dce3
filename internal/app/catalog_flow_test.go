package app

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
)

func (s *Suite) createProduct(admin session, name string) domain.Product {
	resp := s.do(request{
		method: http.MethodPost,
		path:   "/api/products",
		token:  admin.token,
		body:   dto.CreateProductRequest{Name: name, Description: name + " description"},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var product domain.Product
	s.decode(resp, &product)
	return product
}

func (s *Suite) postScore(user session, productID string, score float64) {
	resp := s.do(request{
		method: http.MethodPost,
		path:   "/api/stats/products/" + productID,
		token:  user.token,
		body:   dto.CreateStatisticRequest{Score: &score},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
}

func (s *Suite) TestProductLifecycle() {
	admin := s.registerAdmin("admin@example.com", "admin")
	alice := s.register("alice@example.com", "alice")

	product := s.createProduct(admin, "Tetris")
	s.NotEmpty(product.ID)

	resp := s.do(request{
		method: http.MethodPost,
		path:   "/api/products",
		token:  admin.token,
		body:   dto.CreateProductRequest{Name: "Tetris", Description: "again"},
	})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("Product Already exist", s.errorMessage(resp))

	resp = s.do(request{
		method: http.MethodPost,
		path:   "/api/products",
		token:  alice.token,
		body:   dto.CreateProductRequest{Name: "Snake", Description: "classic"},
	})
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp = s.do(request{method: http.MethodGet, path: "/api/products", token: alice.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var products []domain.Product
	s.decode(resp, &products)
	s.Len(products, 1)

	description := "falling blocks"
	resp = s.do(request{
		method: http.MethodPut,
		path:   "/api/products/" + product.ID,
		token:  admin.token,
		body:   dto.UpdateProductRequest{Description: &description},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(request{method: http.MethodGet, path: "/api/products/" + product.ID, token: alice.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var fetched domain.Product
	s.decode(resp, &fetched)
	s.Equal(description, fetched.Description)

	resp = s.do(request{method: http.MethodGet, path: "/api/products/not-a-uuid", token: alice.token})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("Incorrect ID", s.errorMessage(resp))

	resp = s.do(request{method: http.MethodDelete, path: "/api/products/" + product.ID, token: admin.token})
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(request{method: http.MethodGet, path: "/api/products/" + product.ID, token: alice.token})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("Product Not found", s.errorMessage(resp))
}

func (s *Suite) TestCachedListIsResetByWrites() {
	admin := s.registerAdmin("admin@example.com", "admin")
	s.createProduct(admin, "Tetris")

	resp := s.do(request{method: http.MethodGet, path: "/api/products", token: admin.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Empty(resp.Header.Get("X-Cache"))

	resp = s.do(request{method: http.MethodGet, path: "/api/products", token: admin.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("HIT", resp.Header.Get("X-Cache"))

	s.createProduct(admin, "Snake")

	resp = s.do(request{method: http.MethodGet, path: "/api/products", token: admin.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Empty(resp.Header.Get("X-Cache"))
	var products []domain.Product
	s.decode(resp, &products)
	s.Len(products, 2)
}

func (s *Suite) TestLeaderboardSortsAndHidesBlockedUsers() {
	admin := s.registerAdmin("admin@example.com", "admin")
	alice := s.register("alice@example.com", "alice")
	bob := s.register("bob@example.com", "bobby")
	carol := s.register("carol@example.com", "carol")

	product := s.createProduct(admin, "Tetris")
	s.postScore(alice, product.ID, 230)
	s.postScore(bob, product.ID, 510)
	s.postScore(carol, product.ID, 999)

	resp := s.do(request{
		method: http.MethodPatch,
		path:   "/api/users/" + carol.id + "?isBlocked=true",
		token:  admin.token,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(request{
		method: http.MethodGet,
		path:   "/api/stats/products/" + product.ID + "/sortByField?field=score&sortOrder=desc&limit=10",
		token:  alice.token,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var board []domain.Statistic
	s.decode(resp, &board)
	s.Require().Len(board, 2)
	s.Equal(510.0, *board[0].Score)
	s.Equal(230.0, *board[1].Score)
	s.Require().NotNil(board[0].User)
	s.Equal(bob.id, board[0].User.ID)

	resp = s.do(request{
		method: http.MethodGet,
		path:   "/api/stats/products/" + product.ID + "/sortByField?field=level&sortOrder=desc&limit=10",
		token:  alice.token,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(s.errorMessage(resp), "field must be one of the following values: totalTime, score, other")

	resp = s.do(request{method: http.MethodGet, path: "/api/stats/users/" + carol.id, token: admin.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var own []domain.Statistic
	s.decode(resp, &own)
	s.Len(own, 1)
}

func (s *Suite) TestStatisticValidation() {
	alice := s.register("alice@example.com", "alice")

	resp := s.do(request{
		method: http.MethodPost,
		path:   "/api/stats/products/" + uuid.NewString(),
		token:  alice.token,
		body:   map[string]any{"score": 10},
	})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("Product or User Not found", s.errorMessage(resp))

	resp = s.do(request{
		method: http.MethodPost,
		path:   "/api/stats/products/" + uuid.NewString(),
		token:  alice.token,
		body:   map[string]any{"level": 3},
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = s.do(request{
		method: http.MethodGet,
		path:   "/api/stats/users/" + alice.id + "/sortByField?field=score&sortOrder=asc&limit=5",
		token:  alice.token,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(s.errorMessage(resp), "productId should not be empty")
}

func (s *Suite) TestStatisticOwnership() {
	admin := s.registerAdmin("admin@example.com", "admin")
	alice := s.register("alice@example.com", "alice")
	bob := s.register("bob@example.com", "bobby")

	product := s.createProduct(admin, "Tetris")
	s.postScore(alice, product.ID, 42)

	resp := s.do(request{method: http.MethodGet, path: "/api/stats/users/" + alice.id, token: bob.token})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("Access Denied (only available to owner or administrator)", s.errorMessage(resp))

	resp = s.do(request{method: http.MethodGet, path: "/api/stats/users/" + alice.id, token: alice.token})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var stats []domain.Statistic
	s.decode(resp, &stats)
	s.Require().Len(stats, 1)

	resp = s.do(request{
		method: http.MethodDelete,
		path:   "/api/stats/" + stats[0].ID + "/users/" + alice.id,
		token:  alice.token,
	})
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(request{method: http.MethodGet, path: "/api/stats/" + stats[0].ID, token: alice.token})
	s.Equal(http.StatusNotFound, resp.StatusCode)
}
