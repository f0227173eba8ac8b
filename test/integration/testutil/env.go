package testutil

import (
	"os"
	"testing"
	"time"
)

const DefaultHealthCheckTimeout = 30 * time.Second

// TestEnv describes the externally running deployment a suite talks to.
// Suites are opt-in: without TEST_SERVER_URL they skip, so a plain
// `go test ./...` stays green on machines with no services up.
type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("set TEST_SERVER_URL to run integration tests")
	}

	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    serverURL,
	}
}

// Setup connects to Mongo, clears service data and waits for the server.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *Client) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanAll(t)

	client := NewClient(e.ServerURL)
	client.WaitForHealthy(t, DefaultHealthCheckTimeout)

	return mongo, client
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanAll(t)
		mongo.Close(t)
	}
}

// WebhookSecret returns the shared secret the target deployment verifies
// webhook signatures with, or skips the test when it isn't configured.
func WebhookSecret(t *testing.T) string {
	t.Helper()

	secret := os.Getenv("TEST_WEBHOOK_SECRET")
	if secret == "" {
		t.Skip("set TEST_WEBHOOK_SECRET to run webhook integration tests")
	}
	return secret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
