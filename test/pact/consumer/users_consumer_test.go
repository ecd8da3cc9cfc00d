//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-users-crud/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type userPayload struct {
	UserID    string   `json:"userId,omitempty"`
	Username  string   `json:"username"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Age       int      `json:"age,omitempty"`
	Pets      []string `json:"pets,omitempty"`
}

type userCount struct {
	NoOfUsers int64 `json:"NoOfUsers"`
}

type apiError struct {
	status  int
	message string
}

func (e apiError) Error() string {
	msg := e.message
	if msg == "" {
		msg = "api error"
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestUsersPortalContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	example := pacttest.ExampleUserPayload()
	requestUser := userPayload{
		Username:  pacttest.UserPrimaryUsername,
		FirstName: example["firstName"].(string),
		LastName:  example["lastName"].(string),
		Age:       example["age"].(int),
		Pets:      []string{pacttest.UserPetName},
	}
	userBodyMatcher := matchers.Map{
		"userId":    matchers.Like(pacttest.ExistingUserID),
		"username":  matchers.Like(requestUser.Username),
		"firstName": matchers.Like(requestUser.FirstName),
		"lastName":  matchers.Like(requestUser.LastName),
		"age":       matchers.Like(requestUser.Age),
		"pets":      matchers.ArrayMinLike(pacttest.UserPetName, 1),
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateUsersBaseline).
		UponReceiving("a request to create a user").
		WithRequest("POST", "/users", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"username":  matchers.Like(requestUser.Username),
				"firstName": matchers.Like(requestUser.FirstName),
				"lastName":  matchers.Like(requestUser.LastName),
				"age":       matchers.Like(requestUser.Age),
				"pets":      matchers.ArrayMinLike(pacttest.UserPetName, 1),
			})
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Location", matchers.Regex("/users/"+pacttest.ExistingUserID, "\\/users\\/[A-Za-z0-9-]+$"))
		})

	pact.AddInteraction().
		Given(pacttest.StateUserExists).
		UponReceiving("a request to fetch an existing user").
		WithRequest("GET", "/users/"+pacttest.ExistingUserID).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(userBodyMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateUserMissing).
		UponReceiving("a request for a missing user").
		WithRequest("GET", "/users/"+pacttest.MissingUserID).
		WillRespondWith(http.StatusBadRequest, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("message", matchers.Like("no user exists with that id"))
		})

	pact.AddInteraction().
		Given(pacttest.StateUsersByAge).
		UponReceiving("a request to count users at most 30 years old").
		WithRequest("GET", "/users/count", func(b *pactconsumer.V2RequestBuilder) {
			b.Query("maxAge", matchers.S("30"))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"NoOfUsers": matchers.Like(2),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newUsersClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		location, err := client.CreateUser(ctx, requestUser)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if !strings.Contains(location, "/users/") {
			return fmt.Errorf("expected a user location, got %q", location)
		}

		fetched, err := client.GetUser(ctx, pacttest.ExistingUserID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if fetched == nil || fetched.UserID != pacttest.ExistingUserID {
			return fmt.Errorf("expected user id %s, got %+v", pacttest.ExistingUserID, fetched)
		}

		if _, err := client.GetUser(ctx, pacttest.MissingUserID); err == nil {
			return fmt.Errorf("expected 400 for user %s", pacttest.MissingUserID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusBadRequest {
			return fmt.Errorf("expected 400, got %d", apiErr.Status())
		}

		count, err := client.CountUsersAtMostAge(ctx, 30)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count != 2 {
			return fmt.Errorf("expected 2 users, got %d", count)
		}
		return nil
	})
	require.NoError(t, err)
}

type usersClient struct {
	baseURL    string
	httpClient *http.Client
}

func newUsersClient(config pactconsumer.MockServerConfig) *usersClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &usersClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *usersClient) CreateUser(ctx context.Context, user userPayload) (string, error) {
	body, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		return "", decodeAPIError(res)
	}
	return res.Header.Get("Location"), nil
}

func (c *usersClient) GetUser(ctx context.Context, id string) (*userPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+id, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload userPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *usersClient) CountUsersAtMostAge(ctx context.Context, maxAge int) (int64, error) {
	url := fmt.Sprintf("%s/users/count?maxAge=%d", c.baseURL, maxAge)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return 0, decodeAPIError(res)
	}

	var payload userCount
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.NoOfUsers, nil
}

func decodeAPIError(res *http.Response) error {
	return apiError{
		status:  res.StatusCode,
		message: res.Header.Get("message"),
	}
}
