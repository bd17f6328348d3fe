package internal

import (
	"os"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/envvar/vault"
)

//NewVaultProvider instantiates the Vault client using configuration defined in environment variables.
//Secure values are optional, a nil provider is returned when VAULT_ADDRESS is not set.
func NewVaultProvider() (*vault.Provider, error) {
	vaultPath := os.Getenv("VAULT_PATH")
	vaultToken := os.Getenv("VAULT_TOKEN")
	vaultAddress := os.Getenv("VAULT_ADDRESS")

	if vaultAddress == "" {
		return nil, nil
	}

	provider, err := vault.New(vaultToken, vaultAddress, vaultPath)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "vault.New")
	}

	return provider, nil
}
