package vault

import (
	"github.com/hashicorp/vault/api"

	"github.com/sanLimbu/todo-web/internal"
)

//Provider ...
type Provider struct {
	path   string
	client *api.Logical
}

//New instantiates the Vault client.
func New(token, addr, path string) (*Provider, error) {
	config := api.DefaultConfig()
	config.Address = addr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return &Provider{
		path:   path,
		client: client.Logical(),
	}, nil
}

//Get retrieves the value of v from the secret stored at the configured path.
func (p *Provider) Get(v string) (string, error) {
	secret, err := p.client.Read(p.path)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Read")
	}

	if secret == nil {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "no secret at %s", p.path)
	}

	data := secret.Data
	if inner, ok := data["data"].(map[string]interface{}); ok { // kv v2 engine nests values
		data = inner
	}

	res, ok := data[v].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "secret %s not found", v)
	}

	return res, nil
}
