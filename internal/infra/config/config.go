package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv  string `envconfig:"APP_ENV" default:"dev"`
	TZ      string `envconfig:"TZ" default:"Asia/Shanghai"`
	Port    int    `envconfig:"PORT" default:"8080"`
	Storage string `envconfig:"STORAGE" default:"postgres"`

	// MetricsAddr адрес /metrics для процессов без основного HTTP сервера.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9091"`

	WeChat struct {
		Token     string `envconfig:"WECHAT_TOKEN"`
		AppID     string `envconfig:"WECHAT_APP_ID"`
		AppSecret string `envconfig:"WECHAT_APP_SECRET"`
		APIBase   string `envconfig:"WECHAT_API_BASE" default:"https://api.weixin.qq.com"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Session struct {
		SecretCode    string        `envconfig:"SECRET_CODE"`
		VerifyTimeout time.Duration `envconfig:"VERIFY_TIMEOUT" default:"300s"`
		TTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
		LockTimeout   time.Duration `envconfig:"USER_LOCK_TIMEOUT" default:"2s"`
		DedupTTL      time.Duration `envconfig:"MSG_DEDUP_TTL" default:"30s"`
		ReplyWindow   time.Duration `envconfig:"REPLY_WINDOW" default:"4500ms"`
	} `envconfig:""`

	AI struct {
		ChatPriority      []string      `envconfig:"AI_CHAT_PRIORITY" default:"zhipu,qwen,spark"`
		TranslatePriority []string      `envconfig:"AI_TRANSLATE_PRIORITY" default:"siliconflow,zhipu,qwen,spark"`
		Timeout           time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"2s"`
		ReplyBudget       time.Duration `envconfig:"AI_REPLY_BUDGET" default:"4s"`
		MaxTokens         int           `envconfig:"AI_MAX_TOKENS" default:"300"`
		Temperature       float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
		HistoryTurns      int           `envconfig:"AI_HISTORY_TURNS" default:"10"`
		HistoryTTL        time.Duration `envconfig:"AI_HISTORY_TTL" default:"1h"`

		QwenKey      string `envconfig:"QWEN_API_KEY"`
		QwenURL      string `envconfig:"QWEN_BASE_URL" default:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
		QwenModel    string `envconfig:"QWEN_MODEL" default:"qwen-plus"`
		ZhipuKey     string `envconfig:"ZHIPU_API_KEY"`
		ZhipuURL     string `envconfig:"ZHIPU_BASE_URL" default:"https://open.bigmodel.cn/api/paas/v4"`
		ZhipuModel   string `envconfig:"ZHIPU_MODEL" default:"glm-4-flash"`
		SiliconKey   string `envconfig:"SILICONFLOW_API_KEY"`
		SiliconURL   string `envconfig:"SILICONFLOW_BASE_URL" default:"https://api.siliconflow.cn/v1"`
		SiliconModel string `envconfig:"SILICONFLOW_MODEL" default:"tencent/Hunyuan-MT-7B"`
		SparkKey     string `envconfig:"SPARK_API_KEY"`
		SparkURL     string `envconfig:"SPARK_BASE_URL" default:"https://spark-api-open.xf-yun.com/v2"`
		SparkModel   string `envconfig:"SPARK_MODEL" default:"spark-x"`
	} `envconfig:""`

	Weather struct {
		QWeatherKey  string        `envconfig:"QWEATHER_API_KEY"`
		QWeatherHost string        `envconfig:"QWEATHER_API_HOST" default:"devapi.qweather.com"`
		Priority     []string      `envconfig:"WEATHER_PRIORITY" default:"qweather,wttr"`
		Timeout      time.Duration `envconfig:"WEATHER_TIMEOUT" default:"3s"`
	} `envconfig:""`

	Report struct {
		Time         string `envconfig:"REPORT_TIME" default:"07:00"`
		City         string `envconfig:"REPORT_CITY" default:"广州"`
		ThumbMediaID string `envconfig:"REPORT_THUMB_MEDIA_ID"`
		Author       string `envconfig:"REPORT_AUTHOR" default:"源源和娇娇"`
		Queue        string `envconfig:"REPORT_QUEUE" default:"redis"`
		QueueKey     string `envconfig:"REPORT_QUEUE_KEY" default:"report_jobs"`
		AMQPURL      string `envconfig:"AMQP_URL"`
	} `envconfig:""`

	Notify struct {
		ServerChanKey string `envconfig:"SERVERCHAN_SEND_KEY"`
	} `envconfig:""`
}

// Load загружает .env (если есть) и конфиг из окружения.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("не удалось прочитать .env: %v", err)
	}
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Location возвращает часовой пояс процесса.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.Local
	}
	return loc
}
