package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)

	// Given only the mandatory secret
	t.Setenv("JWT_SECRET", "secret")

	// When the environment is decoded
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	// Then the defaults apply
	req.NoError(err)
	req.Equal(5001, config.Port)
	req.Equal(time.Hour, config.AuthTokenDuration)
	req.Equal([]string{"http://localhost:3000"}, config.Origins())
	req.False(config.RelayTrustClientFields)
	req.Equal("0.0.0.0:5001", config.Address())
}

func TestConfig_Origins(t *testing.T) {
	config := Config{AllowedOrigins: " http://a.test , ,http://b.test"}
	require.Equal(t, []string{"http://a.test", "http://b.test"}, config.Origins())
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("##")
	req.Error(err)
	_, err = CharacterRune("")
	req.Error(err)
}
