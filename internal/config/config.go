package config

import (
	"os"
	"strconv"
	"time"
)

type Gateway struct {
	BaseURL      string
	AdminKey     string
	MerchantCode string
	PaymentHost  string
	SuccessPath  string
	CancelPath   string
	FailPath     string
	Timeout      time.Duration
}

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	Addr        string
	SessionTTL  time.Duration
	Gateway     Gateway
}

func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "qrp"),
		Env:         getEnv("ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Addr:        ":" + getEnv("PORT", "8080"),
		SessionTTL:  getDuration("SESSION_TTL", 30*time.Minute),
		Gateway: Gateway{
			BaseURL:      getEnv("PAY_API_URL", "https://kapi.kakao.com"),
			AdminKey:     getEnv("PAY_ADMIN_KEY", ""),
			MerchantCode: getEnv("PAY_MERCHANT_CODE", "TC0ONETIME"),
			PaymentHost:  getEnv("PAY_HOST", "http://localhost:8080"),
			SuccessPath:  getEnv("PAY_SUCCESS_PATH", "/payment/success"),
			CancelPath:   getEnv("PAY_CANCEL_PATH", "/payment/cancel"),
			FailPath:     getEnv("PAY_FAIL_PATH", "/payment/fail"),
			Timeout:      getDuration("PAY_TIMEOUT", 10*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
