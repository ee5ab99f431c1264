package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Server       Server       `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	Analytics    Analytics    `mapstructure:",squash"`
	AnalysisSync AnalysisSync `mapstructure:",squash"`
	Kafka        Kafka        `mapstructure:",squash"`
	SecretKey    string       `mapstructure:"secret_key"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN             string        `mapstructure:"-"`
	Driver          string        `mapstructure:"database_driver"`
	Password        string        `mapstructure:"database_password"`
	URL             string        `mapstructure:"database_url"`
	User            string        `mapstructure:"database_user"`
	AutoMigrate     bool          `mapstructure:"database_auto_migrate"` // Cria as tabelas na inicialização
	MaxOpenConns    int           `mapstructure:"database_max_open_conns"`
	MaxIdleConns    int           `mapstructure:"database_max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"database_conn_max_lifetime"`
}

type App struct {
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Analytics reúne os parâmetros do motor de previsão e alertas.
// É passado por valor para cada componente na construção.
type Analytics struct {
	ForecastHorizonMonths   int                `mapstructure:"forecast_horizon_months"`
	MinHistoricalPeriods    int                `mapstructure:"min_historical_periods"`
	ConfidenceIntervals     []float64          `mapstructure:"confidence_intervals"`
	IntervalPolicy          string             `mapstructure:"forecast_interval_policy"`
	ModelWeightsSpec        string             `mapstructure:"forecast_model_weights"` // Ex: linear_trend=1,seasonal=2
	ModelWeights            map[string]float64 `mapstructure:"-"`
	RevenueGrowthTarget     float64            `mapstructure:"revenue_growth_target"`
	ProfitMarginTarget      float64            `mapstructure:"profit_margin_target"`
	CustomerRetentionTarget float64            `mapstructure:"customer_retention_target"`
	ChurnRateThreshold      float64            `mapstructure:"churn_rate_threshold"`
	MinCLVCACRatio          float64            `mapstructure:"min_clv_cac_ratio"`
	PerformanceGrowthTarget float64            `mapstructure:"performance_growth_target"`
	AnomalyZScoreThreshold  float64            `mapstructure:"anomaly_zscore_threshold"`
	AnomalyMediumZScore     float64            `mapstructure:"anomaly_medium_zscore"`
	AnomalyWindowMonths     int                `mapstructure:"anomaly_window_months"`
}

// Políticas para escolher o desvio padrão usado nos intervalos de confiança
const (
	IntervalPolicyMax  = "max"
	IntervalPolicyMean = "mean"
)

type AnalysisSync struct {
	CronSchedule      string `mapstructure:"analysis_sync_cron"`
	Enabled           bool   `mapstructure:"analysis_sync_enabled"`
	MaxConcurrentJobs int    `mapstructure:"analysis_max_concurrent_jobs"` // Séries previstas em paralelo
}

type Kafka struct {
	Enabled     bool     `mapstructure:"kafka_enabled"`
	Brokers     []string `mapstructure:"kafka_brokers"`
	AlertsTopic string   `mapstructure:"kafka_alerts_topic"`
}

// DefaultAnalytics retorna os parâmetros padrão do motor de análise
func DefaultAnalytics() Analytics {
	return Analytics{
		ForecastHorizonMonths:   12,
		MinHistoricalPeriods:    24,
		ConfidenceIntervals:     []float64{0.80, 0.95},
		IntervalPolicy:          IntervalPolicyMax,
		ModelWeights:            map[string]float64{},
		RevenueGrowthTarget:     0.15,
		ProfitMarginTarget:      0.20,
		CustomerRetentionTarget: 0.90,
		ChurnRateThreshold:      0.05,
		MinCLVCACRatio:          3,
		PerformanceGrowthTarget: 0.05,
		AnomalyZScoreThreshold:  3,
		AnomalyMediumZScore:     4,
		AnomalyWindowMonths:     12,
	}
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/revenue")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_AUTO_MIGRATE", true)
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")

	viper.SetDefault("SECRET_KEY", "your_secret_key")

	defaults := DefaultAnalytics()
	viper.SetDefault("FORECAST_HORIZON_MONTHS", defaults.ForecastHorizonMonths)
	viper.SetDefault("MIN_HISTORICAL_PERIODS", defaults.MinHistoricalPeriods)
	viper.SetDefault("CONFIDENCE_INTERVALS", defaults.ConfidenceIntervals)
	viper.SetDefault("FORECAST_INTERVAL_POLICY", defaults.IntervalPolicy)
	viper.SetDefault("FORECAST_MODEL_WEIGHTS", "") // Vazio = pesos iguais
	viper.SetDefault("REVENUE_GROWTH_TARGET", defaults.RevenueGrowthTarget)
	viper.SetDefault("PROFIT_MARGIN_TARGET", defaults.ProfitMarginTarget)
	viper.SetDefault("CUSTOMER_RETENTION_TARGET", defaults.CustomerRetentionTarget)
	viper.SetDefault("CHURN_RATE_THRESHOLD", defaults.ChurnRateThreshold)
	viper.SetDefault("MIN_CLV_CAC_RATIO", defaults.MinCLVCACRatio)
	viper.SetDefault("PERFORMANCE_GROWTH_TARGET", defaults.PerformanceGrowthTarget)
	viper.SetDefault("ANOMALY_ZSCORE_THRESHOLD", defaults.AnomalyZScoreThreshold)
	viper.SetDefault("ANOMALY_MEDIUM_ZSCORE", defaults.AnomalyMediumZScore)
	viper.SetDefault("ANOMALY_WINDOW_MONTHS", defaults.AnomalyWindowMonths)

	viper.SetDefault("ANALYSIS_SYNC_CRON", "0 6 1 * *") // No primeiro dia de cada mês às 6h da manhã
	viper.SetDefault("ANALYSIS_SYNC_ENABLED", false)
	viper.SetDefault("ANALYSIS_MAX_CONCURRENT_JOBS", 4)

	viper.SetDefault("KAFKA_ENABLED", false)
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_ALERTS_TOPIC", "revenue-alerts")

	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Analytics.ModelWeights, err = ParseModelWeights(config.Analytics.ModelWeightsSpec)
	if err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseModelWeights interpreta pesos no formato "modelo=peso,modelo=peso"
func ParseModelWeights(spec string) (map[string]float64, error) {
	weights := make(map[string]float64)
	if strings.TrimSpace(spec) == "" {
		return weights, nil
	}

	for _, pair := range strings.Split(spec, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || name == "" {
			return nil, NewConfigurationError("forecast_model_weights", fmt.Sprintf("par inválido %q", pair))
		}

		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || weight < 0 {
			return nil, NewConfigurationError("forecast_model_weights", fmt.Sprintf("peso inválido para %s: %q", name, value))
		}

		weights[strings.TrimSpace(name)] = weight
	}

	return weights, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
