package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Curation Curation `yaml:"curation"`
	Mail     Mail     `yaml:"mail"`
}

type Server struct {
	Listen        string        `yaml:"listen"`
	PostgresDsn   string        `yaml:"postgresDsn"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	TaxonomyTTL   time.Duration `yaml:"taxonomyTTL"`
	EnableTrace   bool          `yaml:"enableTrace"`
	TraceEndpoint string        `yaml:"traceEndpoint"`
}

type Curation struct {
	// RequireState gates publication on the pipeline state. Empty disables
	// the gate.
	RequireState string `yaml:"requireState"`
	// RetainAfterPublish keeps the pipeline copy after publication instead
	// of deleting it.
	RetainAfterPublish *bool `yaml:"retainAfterPublish"`
}

type Mail struct {
	SMTPAddr string   `yaml:"smtpAddr"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := defaults()
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func defaults() Config {
	retain := true
	return Config{
		Server: Server{
			Listen:      ":8000",
			CacheTTL:    5 * time.Minute,
			TaxonomyTTL: 30 * time.Minute,
		},
		Curation: Curation{
			RequireState:       "Curation",
			RetainAfterPublish: &retain,
		},
	}
}
