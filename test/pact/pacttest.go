//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "users-api"
	ConsumerName = "users-portal"

	StateUsersBaseline = "users baseline"
	StateUserExists    = "user with id pact-user-1 exists"
	StateUserMissing   = "no user with id ghost-user"
	StateUsersByAge    = "users aged 20, 30 and 40 exist"
)

const (
	ExistingUserID = "pact-user-1"
	MissingUserID  = "ghost-user"

	UserPrimaryUsername = "pact-user"
	UserPetName         = "rex"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the users portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleUserPayload provides stable test data for user interactions.
func ExampleUserPayload() map[string]any {
	return map[string]any{
		"username":  UserPrimaryUsername,
		"firstName": "Pact",
		"lastName":  "User",
		"age":       30,
		"pets":      []string{UserPetName},
	}
}

// ExampleUserAges lists the ages seeded by StateUsersByAge.
func ExampleUserAges() []int {
	return []int{20, 30, 40}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
