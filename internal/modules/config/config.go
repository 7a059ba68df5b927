package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	databaseDSNENV    = "DATABASE_DSN"
	apiKeyENV         = "BINANCE_API_KEY"
	apiSecretENV      = "BINANCE_SECRET_KEY"
	signalTokenENV    = "SIGNAL_AUTH_TOKEN"
	telegramTokenENV  = "TELEGRAM_TOKEN"
)

// ScoringProfile — все периоды, пороги и веса скоринга одной стратегии.
// Раньше эти константы были размазаны по вариантам стратегии — теперь
// это один версионируемый профиль, выбираемый на старте.
type ScoringProfile struct {
	// Периоды индикаторов
	RSIPeriod   int     `yaml:"rsi_period"`
	StochPeriod int     `yaml:"stoch_period"`
	StochK      int     `yaml:"stoch_k"`
	StochD      int     `yaml:"stoch_d"`
	MACDFast    int     `yaml:"macd_fast"`
	MACDSlow    int     `yaml:"macd_slow"`
	MACDSignal  int     `yaml:"macd_signal"`
	EMAPeriod   int     `yaml:"ema_period"`
	BBPeriod    int     `yaml:"bb_period"`
	BBStdDev    float64 `yaml:"bb_std_dev"`
	ADXPeriod   int     `yaml:"adx_period"`

	// Баллы и пороги
	MinConfidenceScore int `yaml:"min_confidence_score"`
	TrendPoints        int `yaml:"trend_points"`

	RSIEntryBuy    float64 `yaml:"rsi_entry_buy"`  // BUY: RSI ниже => +RSIEntryPoints
	RSIDeepBuy     float64 `yaml:"rsi_deep_buy"`   // BUY: RSI ниже => ещё +RSIDeepPoints
	RSIEntrySell   float64 `yaml:"rsi_entry_sell"` // SELL: RSI выше
	RSIDeepSell    float64 `yaml:"rsi_deep_sell"`
	RSIEntryPoints int     `yaml:"rsi_entry_points"`
	RSIDeepPoints  int     `yaml:"rsi_deep_points"`

	StochLowBand  float64 `yaml:"stoch_low_band"`  // BUY: K ниже и K>D
	StochHighBand float64 `yaml:"stoch_high_band"` // SELL: K выше и K<D
	StochPoints   int     `yaml:"stoch_points"`

	MACDPoints int    `yaml:"macd_points"`
	MACDRule   string `yaml:"macd_rule"` // hist_or_signal | hist_only

	BBProximity float64 `yaml:"bb_proximity"` // допуск к краю канала, напр. 0.005
	BBPoints    int     `yaml:"bb_points"`

	ADXThreshold float64 `yaml:"adx_threshold"`
	ADXPoints    int     `yaml:"adx_points"`

	// Скор может уходить за 100 — это эвристика веса, а не вероятность.
	// Клампим только если явно попросили.
	ClampScore bool `yaml:"clamp_score"`

	// Параметры сделки
	TPPercent float64 `yaml:"tp_percent"`
	SLPercent float64 `yaml:"sl_percent"`
	Leverage  int     `yaml:"leverage"`
}

const (
	MACDRuleHistOrSignal = "hist_or_signal"
	MACDRuleHistOnly     = "hist_only"
)

type RiskConfig struct {
	MaxOpenTrades    int     `yaml:"max_open_trades"`
	MaxDailyLoss     float64 `yaml:"max_daily_loss"`
	RiskPerTrade     float64 `yaml:"risk_per_trade"`    // доля equity, напр. 0.02
	FallbackNotional float64 `yaml:"fallback_notional"` // USDT, запасной размер
	MinEquity        float64 `yaml:"min_equity"`        // ниже — сразу fallback
}

type Config struct {
	Watchlist []string `yaml:"watchlist"`

	MarketDataURL     string `yaml:"market_data_url"`
	Timeframe         string `yaml:"timeframe"`
	CandleLimit       int    `yaml:"candle_limit"`
	MinCandles        int    `yaml:"min_candles"`
	ExternalSignalURL string `yaml:"external_signal_url"`

	DB string `yaml:"db_dsn"`

	Profile  string                    `yaml:"profile"`
	Profiles map[string]ScoringProfile `yaml:"profiles"`

	Risk RiskConfig `yaml:"risk"`

	Exchange struct {
		BaseURL    string `yaml:"base_url"`
		QuoteAsset string `yaml:"quote_asset"`
		APIKey     string
		APISecret  string
	} `yaml:"exchange"`

	Server struct {
		Addr      string `yaml:"addr"`
		AuthToken string
	} `yaml:"server"`

	Notify struct {
		WebhookURL     string `yaml:"webhook_url"`
		TelegramToken  string
		TelegramChatID int64 `yaml:"telegram_chat_id"`
	} `yaml:"notify"`

	Stream struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"stream"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	// Длительности держим в ENV (yaml.v2 не парсит "1h")
	TickInterval      time.Duration
	CooldownPerSymbol time.Duration
	RequestTimeout    time.Duration

	DedupCapacity int
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := Config{
		Watchlist: []string{
			"BTCUSDT", "ETHUSDT", "BNBUSDT", "ADAUSDT", "SOLUSDT",
			"XRPUSDT", "DOGEUSDT", "LTCUSDT", "DOTUSDT", "AVAXUSDT",
		},
		MarketDataURL: getenvDefault("MARKET_DATA_URL", "https://api.binance.com/api/v3/klines"),
		Timeframe:     getenvDefault("TIMEFRAME", "1h"),
		CandleLimit:   intFromEnv("CANDLE_LIMIT", 200),
		MinCandles:    intFromEnv("MIN_CANDLES", 50),

		ExternalSignalURL: os.Getenv("EXTERNAL_SIGNAL_URL"),

		Profile:  getenvDefault("SCORING_PROFILE", "trend_following"),
		Profiles: DefaultProfiles(),

		Risk: RiskConfig{
			MaxOpenTrades:    intFromEnv("MAX_OPEN_TRADES", 5),
			MaxDailyLoss:     floatFromEnv("MAX_DAILY_LOSS", 100),
			RiskPerTrade:     floatFromEnv("RISK_PER_TRADE", 0.02),
			FallbackNotional: floatFromEnv("TARGET_NOTIONAL_USDT", 50),
			MinEquity:        floatFromEnv("MIN_EQUITY", 10),
		},

		TickInterval:      durationFromEnv("TICK_INTERVAL", "1m"),
		CooldownPerSymbol: durationFromEnv("TRADE_COOLDOWN", "1h"),
		RequestTimeout:    durationFromEnv("REQUEST_TIMEOUT", "10s"),

		DedupCapacity: intFromEnv("DEDUP_CAPACITY", 4096),
	}
	config.Exchange.BaseURL = getenvDefault("EXCHANGE_BASE_URL", "https://api.binance.com")
	config.Exchange.QuoteAsset = "USDT"
	config.Server.Addr = getenvDefault("SERVER_ADDR", ":8080")

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err == nil {
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	if dsn := os.Getenv(databaseDSNENV); dsn != "" {
		config.DB = dsn
	}
	config.Exchange.APIKey = os.Getenv(apiKeyENV)
	config.Exchange.APISecret = os.Getenv(apiSecretENV)
	config.Server.AuthToken = os.Getenv(signalTokenENV)
	config.Notify.TelegramToken = os.Getenv(telegramTokenENV)

	if _, ok := config.Profiles[config.Profile]; !ok {
		return nil, fmt.Errorf("unknown scoring profile %q", config.Profile)
	}

	return &config, nil
}

// ActiveProfile — профиль, выбранный на старте.
func (c *Config) ActiveProfile() ScoringProfile {
	return c.Profiles[c.Profile]
}

// DefaultProfiles — встроенные профили. trend_following повторяет боевые
// значения 1H-стратегии, scalping — агрессивный вариант на младших ТФ.
func DefaultProfiles() map[string]ScoringProfile {
	trend := ScoringProfile{
		RSIPeriod:   14,
		StochPeriod: 14,
		StochK:      3,
		StochD:      3,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		EMAPeriod:   200,
		BBPeriod:    20,
		BBStdDev:    2,
		ADXPeriod:   14,

		MinConfidenceScore: 75,
		TrendPoints:        25,

		RSIEntryBuy:    45,
		RSIDeepBuy:     30,
		RSIEntrySell:   55,
		RSIDeepSell:    70,
		RSIEntryPoints: 10,
		RSIDeepPoints:  5,

		StochLowBand:  20,
		StochHighBand: 80,
		StochPoints:   15,

		MACDPoints: 25,
		MACDRule:   MACDRuleHistOrSignal,

		BBProximity: 0.005,
		BBPoints:    20,

		ADXThreshold: 25,
		ADXPoints:    20,

		TPPercent: 0.06,
		SLPercent: 0.02,
		Leverage:  1,
	}

	scalping := trend
	scalping.RSIPeriod = 9
	scalping.EMAPeriod = 50
	scalping.MinConfidenceScore = 80
	scalping.MACDRule = MACDRuleHistOnly
	scalping.TPPercent = 0.015
	scalping.SLPercent = 0.008

	return map[string]ScoringProfile{
		"trend_following": trend,
		"scalping":        scalping,
	}
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
