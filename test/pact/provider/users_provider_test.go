//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/Apurer/go-gin-users-crud/test/pact"

	usersserver "github.com/Apurer/go-gin-users-crud/go"
	usermemory "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/memory"
	userobs "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/observability"
	userworkflows "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/workflows"
	userapp "github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	userdomain "github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestUsersProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateUsersBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetUsers(t)
			return nil, nil
		},
		pacttest.StateUserExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetUsers(t)
			if setup {
				app.seedUser(t, pacttest.ExistingUserID, pacttest.UserPrimaryUsername, 30, pacttest.UserPetName)
			}
			return nil, nil
		},
		pacttest.StateUserMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetUsers(t)
			return nil, nil
		},
		pacttest.StateUsersByAge: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetUsers(t)
			if setup {
				for i, age := range pacttest.ExampleUserAges() {
					app.seedUser(t, "", fmt.Sprintf("aged-%d", i), age)
				}
			}
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.resetUsers(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	repo   *usermemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	repo := usermemory.NewRepository()
	service := userobs.New(userapp.NewService(repo, userapp.WithIdempotencyStore(usermemory.NewIdempotencyStore())))
	workflows := userworkflows.NewInlineUserWorkflows(service)

	handlers := usersserver.ApiHandleFunctions{
		UserAPI: usersserver.NewUserAPI(service, workflows, ""),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = usersserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{
		repo:   repo,
		server: server,
	}
}

func (a *contractProviderApp) resetUsers(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	var ids []string
	for user, err := range a.repo.FindAll(ctx) {
		require.NoError(t, err)
		ids = append(ids, user.ID)
	}
	for _, id := range ids {
		require.NoError(t, a.repo.DeleteByID(ctx, id))
	}
}

func (a *contractProviderApp) seedUser(t testing.TB, id, username string, age int, pets ...string) {
	t.Helper()
	user, err := userdomain.NewUser(username)
	require.NoError(t, err)
	user.ID = id
	user.UpdateProfile("Pact", "User")
	user.UpdateAge(age)
	user.ReplacePets(pets)
	_, err = a.repo.Save(context.Background(), user)
	require.NoError(t, err)
}
