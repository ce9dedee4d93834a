package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Flow    FlowConfig    `mapstructure:"flow"`
	Sweeper SweeperConfig `mapstructure:"sweeper"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Worker  WorkerConfig  `mapstructure:"worker"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	GrpcPort string `mapstructure:"grpc_port"`

	// AdminToken 管理接口 (手动触发关闭等) 的访问令牌，为空时管理接口全部拒绝
	AdminToken string `mapstructure:"admin_token"`
}

type DBConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Driver     string `mapstructure:"driver"` // postgres | sqlite
	SQLitePath string `mapstructure:"sqlite_path"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
}

// DSN 返回 gorm postgres 驱动使用的连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

// URL 返回 golang-migrate 使用的连接串
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Name)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// FlowConfig 链上账户与合约配置
// 私钥来源优先级: private_key > keystore_path > mnemonic
type FlowConfig struct {
	Network            string        `mapstructure:"network"`
	RestURL            string        `mapstructure:"rest_url"` // 为空时使用网络预设
	Address            string        `mapstructure:"address"`
	PrivateKey         string        `mapstructure:"private_key"`
	KeystorePath       string        `mapstructure:"keystore_path"`
	KeystorePassword   string        `mapstructure:"keystore_password"`
	Mnemonic           string        `mapstructure:"mnemonic"`
	DerivationPath     string        `mapstructure:"derivation_path"`
	KeyIndex           uint32        `mapstructure:"key_index"`
	SignatureAlgorithm string        `mapstructure:"signature_algorithm"`
	HashAlgorithm      string        `mapstructure:"hash_algorithm"`
	ContractName       string        `mapstructure:"contract_name"`
	ContractAddress    string        `mapstructure:"contract_address"`
	GasLimit           uint64        `mapstructure:"gas_limit"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts    int           `mapstructure:"max_poll_attempts"`
	MinBalance         string        `mapstructure:"min_balance"`
	SerializeWriters   bool          `mapstructure:"serialize_writers"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// MinBalanceDecimal 解析最低余额阈值，非法配置回落到 0.001
func (c FlowConfig) MinBalanceDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinBalance)
	if err != nil {
		return decimal.RequireFromString("0.001")
	}
	return d
}

// EffectiveContractAddress 未配置合约地址时，合约默认部署在签名账户下
func (c FlowConfig) EffectiveContractAddress() string {
	if c.ContractAddress != "" {
		return c.ContractAddress
	}
	return c.Address
}

type SweeperConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Spec    string        `mapstructure:"spec"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type CacheConfig struct {
	ProposalTTL time.Duration `mapstructure:"proposal_ttl"`
}

type NotifyConfig struct {
	Topic          string   `mapstructure:"topic"`
	SMTPServer     string   `mapstructure:"smtp_server"`
	SMTPPort       int      `mapstructure:"smtp_port"`
	SenderEmail    string   `mapstructure:"sender_email"`
	SenderPassword string   `mapstructure:"sender_password"`
	Recipients     []string `mapstructure:"recipients"`
	AppURL         string   `mapstructure:"app_url"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

var Global Config

// Init 加载配置到 Global，失败直接退出
func Init() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Fatal error config file: %s \n", err)
	}
	Global = *cfg
	log.Printf("Configuration loaded successfully. Env: %s, Network: %s", Global.App.Env, Global.Flow.Network)
}

// Load 读取 config.yaml + 环境变量，返回独立的配置实例
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// 环境变量: flow.private_key -> FLOW_PRIVATE_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindLegacyEnv(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.Flow.Address = strings.TrimPrefix(strings.TrimSpace(cfg.Flow.Address), "0x")
	cfg.Flow.ContractAddress = strings.TrimPrefix(strings.TrimSpace(cfg.Flow.ContractAddress), "0x")
	return &cfg, nil
}

// bindLegacyEnv 兼容旧部署脚本中的邮件相关环境变量名
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("notify.smtp_server", "NOTIFY_SMTP_SERVER", "SMTP_SERVER")
	_ = v.BindEnv("notify.smtp_port", "NOTIFY_SMTP_PORT", "SMTP_PORT")
	_ = v.BindEnv("notify.sender_email", "NOTIFY_SENDER_EMAIL", "SENDER_EMAIL")
	_ = v.BindEnv("notify.sender_password", "NOTIFY_SENDER_PASSWORD", "SENDER_PASSWORD")
	_ = v.BindEnv("notify.app_url", "NOTIFY_APP_URL", "APP_URL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")
	v.SetDefault("app.grpc_port", "50051")
	v.SetDefault("app.admin_token", "")

	v.SetDefault("db.enabled", true)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.sqlite_path", "proposal.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "proposal_user")
	v.SetDefault("db.password", "proposal_password")
	v.SetDefault("db.name", "proposal_db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.mq_type", "redis")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})

	v.SetDefault("flow.network", NetworkTestnet)
	v.SetDefault("flow.rest_url", "")
	v.SetDefault("flow.address", "")
	v.SetDefault("flow.private_key", "")
	v.SetDefault("flow.keystore_path", "")
	v.SetDefault("flow.keystore_password", "")
	v.SetDefault("flow.mnemonic", "")
	v.SetDefault("flow.derivation_path", "m/44'/539'/0'/0/0")
	v.SetDefault("flow.key_index", 0)
	v.SetDefault("flow.signature_algorithm", "ECDSA_P256")
	v.SetDefault("flow.hash_algorithm", "SHA3_256")
	v.SetDefault("flow.contract_name", "CommunityVoting")
	v.SetDefault("flow.contract_address", "")
	v.SetDefault("flow.gas_limit", 9999)
	v.SetDefault("flow.poll_interval", 2*time.Second)
	v.SetDefault("flow.max_poll_attempts", 30)
	v.SetDefault("flow.min_balance", "0.001")
	v.SetDefault("flow.serialize_writers", true)
	v.SetDefault("flow.request_timeout", 15*time.Second)

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.spec", "@every 10m")
	v.SetDefault("sweeper.lock_ttl", 15*time.Minute)

	v.SetDefault("cache.proposal_ttl", 30*time.Second)

	v.SetDefault("notify.topic", "proposal_events_created")
	v.SetDefault("notify.smtp_server", "smtp.gmail.com")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.sender_email", "")
	v.SetDefault("notify.sender_password", "")
	v.SetDefault("notify.recipients", []string{})
	v.SetDefault("notify.app_url", "http://localhost:3000")

	v.SetDefault("worker.concurrency", 10)
}
