package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
}

func TestApplyVaultSecrets_KV2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/coworking-scheduler/test", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"VAULT_TEST_JWT_SECRET":"from-vault","VAULT_TEST_DB_PORT":5433,"VAULT_TEST_KEEP":"vault"}}}`))
	}))
	defer server.Close()

	t.Setenv("VAULT_TEST_KEEP", "local")
	t.Cleanup(func() {
		os.Unsetenv("VAULT_TEST_JWT_SECRET")
		os.Unsetenv("VAULT_TEST_DB_PORT")
	})

	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root",
		Mount:     "secret",
		Path:      "coworking-scheduler/test",
		KVVersion: 2,
		Timeout:   time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Loaded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "from-vault", os.Getenv("VAULT_TEST_JWT_SECRET"))
	assert.Equal(t, "5433", os.Getenv("VAULT_TEST_DB_PORT"))
	assert.Equal(t, "local", os.Getenv("VAULT_TEST_KEEP"))
}

func TestApplyVaultSecrets_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "bad", Mount: "secret", Path: "x", KVVersion: 2, Timeout: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSecretURL(t *testing.T) {
	url, err := secretURL("http://vault:8200/", "/kv/", "/app/prod", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/kv/app/prod", url)

	_, err = secretURL("http://vault:8200", "secret", "", 2)
	assert.Error(t, err)
}
