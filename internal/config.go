package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=5001"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=./data/bluge"`
	UploadsDir     string `env:"UPLOADS_DIR,default=./uploads"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=1h"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	LoginRateLimit    int           `env:"LOGIN_RATE_LIMIT,default=10"`
	LoginRateWindow   time.Duration `env:"LOGIN_RATE_WINDOW,default=1m"`

	DeliveryTimeout        time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	ConnectionBufferSize   int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	EventBufferSize        int           `env:"EVENT_BUFFER_SIZE,default=1024"`
	MaxMessageSize         int           `env:"MAX_MESSAGE_SIZE,default=4096"`
	RateLimitBurst         int           `env:"RATE_LIMIT_BURST,default=5"`
	RateLimitPerSecond     float64       `env:"RATE_LIMIT_PER_SECOND,default=5"`
	RelayTrustClientFields bool          `env:"RELAY_TRUST_CLIENT_FIELDS,default=false"`

	ModerationEnabled              bool   `env:"MODERATION_ENABLED,default=false"`
	ModerationCharacterReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=15s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	DebugInspectPort  int           `env:"DEBUG_INSPECT_PORT,default=0"`
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
