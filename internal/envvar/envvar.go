package envvar

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sanLimbu/todo-web/internal"
)

//Provider ...
type Provider interface {
	Get(key string) (string, error)
}

//Configuration ...
type Configuration struct {
	provider Provider
}

//Load read the env filename and load it into ENV for this process.
func Load(filename string) error {
	if filename == "" {
		return nil
	}

	if err := godotenv.Load(filename); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "godotenv.Load")
	}

	return nil
}

//New ...
func New(provider Provider) *Configuration {
	return &Configuration{
		provider: provider,
	}
}

//Get returns the value from environment variable `<key>`. When an environment variable `<key>_SECURE` exists
//the provider is used for getting the value.
func (c *Configuration) Get(key string) (string, error) {
	res := os.Getenv(key)
	valSecret := os.Getenv(fmt.Sprintf("%s_SECURE", key))

	if valSecret != "" {
		if c.provider == nil {
			return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "no secure provider configured for %s", key)
		}

		valSecretRes, err := c.provider.Get(valSecret)
		if err != nil {
			return "", internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "provider.Get")
		}

		res = valSecretRes
	}

	return res, nil
}

//GetDefault behaves like Get but returns def when the value is empty.
func (c *Configuration) GetDefault(key, def string) (string, error) {
	res, err := c.Get(key)
	if err != nil {
		return "", err
	}

	if res == "" {
		return def, nil
	}

	return res, nil
}

//GetInt returns the value of key converted to an integer, def is used when the value is empty.
func (c *Configuration) GetInt(key string, def int) (int, error) {
	res, err := c.Get(key)
	if err != nil {
		return 0, err
	}

	if res == "" {
		return def, nil
	}

	i, err := strconv.Atoi(res)
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "strconv.Atoi %s", key)
	}

	return i, nil
}
