package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type FeedConfig struct {
	URLs       []string `mapstructure:"urls"`
	Category   string   `mapstructure:"category"`
	SourceName string   `mapstructure:"source_name"`
}

type Config struct {
	App struct {
		Env      string `mapstructure:"env"`
		Port     string `mapstructure:"port"`
		OpsToken string `mapstructure:"ops_token"`
	} `mapstructure:"app"`
	WordPress struct {
		URL      string `mapstructure:"url"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		// Static name -> term ID seed for known categories. Merged with,
		// and overridden by, the live bulk fetch at client construction.
		Categories map[string]int `mapstructure:"categories"`
	} `mapstructure:"wordpress"`
	AI struct {
		Keys       []string `mapstructure:"keys"`
		Model      string   `mapstructure:"model"`
		PromptFile string   `mapstructure:"prompt_file"`
		BaseURL    string   `mapstructure:"base_url"`
	} `mapstructure:"ai"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Pipeline struct {
		// hotlink | wordpress | cloudinary
		ImagesMode    string                `mapstructure:"images_mode"`
		PublisherName string                `mapstructure:"publisher_name"`
		Order         []string              `mapstructure:"order"`
		Feeds         map[string]FeedConfig `mapstructure:"feeds"`
	} `mapstructure:"pipeline"`
	Schedule struct {
		CheckInterval      time.Duration `mapstructure:"check_interval"`
		MaxArticlesPerFeed int           `mapstructure:"max_articles_per_feed"`
		PerArticleDelay    time.Duration `mapstructure:"per_article_delay"`
		PerFeedDelay       time.Duration `mapstructure:"per_feed_delay"`
		CleanupAfter       time.Duration `mapstructure:"cleanup_after"`
	} `mapstructure:"schedule"`
}

func LoadConfig(path string) (cfg Config, err error) {

	if err = godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use environment only.")
	}

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err = viper.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("app.port", "APP_PORT")
	viper.BindEnv("app.ops_token", "OPS_TOKEN")
	viper.BindEnv("wordpress.url", "WORDPRESS_URL")
	viper.BindEnv("wordpress.user", "WORDPRESS_USER")
	viper.BindEnv("wordpress.password", "WORDPRESS_PASSWORD")
	viper.BindEnv("ai.model", "AI_MODEL")
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("db.dsn", "DB_DSN")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	viper.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	viper.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	viper.BindEnv("pipeline.images_mode", "IMAGES_MODE")

	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("ai.model", "gemini-1.5-flash-latest")
	viper.SetDefault("ai.prompt_file", "universal_prompt.txt")
	viper.SetDefault("pipeline.images_mode", "hotlink")
	viper.SetDefault("pipeline.publisher_name", "The Sport")
	viper.SetDefault("schedule.check_interval", 15*time.Minute)
	viper.SetDefault("schedule.max_articles_per_feed", 3)
	viper.SetDefault("schedule.per_article_delay", 8*time.Second)
	viper.SetDefault("schedule.per_feed_delay", 15*time.Second)
	viper.SetDefault("schedule.cleanup_after", 72*time.Hour)

	err = viper.Unmarshal(&cfg)
	return
}
