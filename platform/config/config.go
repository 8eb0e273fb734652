// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides redis connection settings for dedup and the task queue.
type RedisConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// AdminAuthConfig provides settings for the back-office bearer auth.
type AdminAuthConfig interface {
	GetAdminJWTSecret() string
}

// WhatsAppConfig provides settings for the WhatsApp Cloud API client.
type WhatsAppConfig interface {
	GetWhatsAppToken() string
	GetWhatsAppPhoneNumberID() string
	GetWhatsAppVerifyToken() string
	GetSalespersonPhone() string
}

// CRMConfig provides settings for the remote CRM API.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMUser() string
	GetCRMPassword() string
	GetCRMAppName() string
	GetCRMAppCode() string
}

// InventoryConfig provides settings for the remote inventory API.
type InventoryConfig interface {
	GetInventoryBaseURL() string
	GetInventoryBranchID() int
}

// EmailConfig provides settings for purchasing-desk emails.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetPurchasingAddress() string
}

// MinIOConfig provides settings for the quote document store.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketQuoteDocs() string
	IsMinIOEnabled() bool
}

// GotenbergConfig provides settings for the Gotenberg HTML-to-PDF service.
type GotenbergConfig interface {
	GetGotenbergURL() string
	GetGotenbergUsername() string
	GetGotenbergPassword() string
	IsGotenbergEnabled() bool
}

// GenAIConfig provides settings for the optional LLM enrichment path.
type GenAIConfig interface {
	GetGenAIAPIKey() string
	GetGenAIModel() string
	IsGenAIEnabled() bool
}

// ScheduleConfig provides settings for the background trigger loops.
type ScheduleConfig interface {
	GetTimezone() string
	GetCatalogSyncInterval() time.Duration
	GetIdentitySyncHour() int
	GetFollowUpHour() int
	GetBirthdayHour() int
	GetWeeklyGreetingWeekday() time.Weekday
	GetWeeklyGreetingHour() int
}

// QuotesConfig provides quotation policy settings.
type QuotesConfig interface {
	GetQuoteValidityDays() int
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	RedisURL            string
	AsynqQueueName      string
	AsynqConcurrency    int
	CORSAllowAll        bool
	CORSOrigins         []string
	AdminJWTSecret      string
	WhatsAppToken       string
	WhatsAppNumberID    string
	WhatsAppVerifyToken string
	SalespersonPhone    string
	CRMBaseURL          string
	CRMUser             string
	CRMPassword         string
	CRMAppName          string
	CRMAppCode          string
	InventoryBaseURL    string
	InventoryBranchID   int
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	PurchasingAddress   string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinioBucketQuotes   string
	GotenbergURL        string
	GotenbergUsername   string
	GotenbergPassword   string
	GenAIAPIKey         string
	GenAIModel          string
	Timezone            string
	CatalogSyncInterval time.Duration
	IdentitySyncHour    int
	FollowUpHour        int
	BirthdayHour        int
	WeeklyWeekday       time.Weekday
	WeeklyHour          int
	QuoteValidityDays   int
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    getIntEnv("ASYNQ_CONCURRENCY", 10),
		CORSAllowAll:        getBoolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:         splitCSV(os.Getenv("CORS_ORIGINS")),
		AdminJWTSecret:      os.Getenv("ADMIN_JWT_SECRET"),
		WhatsAppToken:       os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppNumberID:    os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppVerifyToken: os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		SalespersonPhone:    os.Getenv("SALESPERSON_PHONE"),
		CRMBaseURL:          getEnv("CRM_BASE_URL", ""),
		CRMUser:             os.Getenv("CRM_USER"),
		CRMPassword:         os.Getenv("CRM_PASS"),
		CRMAppName:          getEnv("CRM_APP_NAME", "Ovidio Bot"),
		CRMAppCode:          getEnv("CRM_APP_CODE", "ovidio-bot"),
		InventoryBaseURL:    os.Getenv("INVENTORY_API_URL"),
		InventoryBranchID:   getIntEnv("INVENTORY_BRANCH_ID", 2),
		EmailEnabled:        getBoolEnv("EMAIL_ENABLED", false),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getIntEnv("SMTP_PORT", 587),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPassword:        os.Getenv("SMTP_PASS"),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Ovidio"),
		EmailFromAddress:    os.Getenv("EMAIL_FROM_ADDRESS"),
		PurchasingAddress:   os.Getenv("EMAIL_TO_PURCHASING"),
		MinIOEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:         getBoolEnv("MINIO_USE_SSL", false),
		MinioBucketQuotes:   getEnv("MINIO_BUCKET_QUOTE_DOCS", "quote-documents"),
		GotenbergURL:        os.Getenv("GOTENBERG_URL"),
		GotenbergUsername:   os.Getenv("GOTENBERG_USERNAME"),
		GotenbergPassword:   os.Getenv("GOTENBERG_PASSWORD"),
		GenAIAPIKey:         os.Getenv("GENAI_API_KEY"),
		GenAIModel:          getEnv("GENAI_MODEL", "gemini-2.0-flash"),
		Timezone:            getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),
		CatalogSyncInterval: getDurationEnv("CATALOG_SYNC_INTERVAL", time.Hour),
		IdentitySyncHour:    getIntEnv("IDENTITY_SYNC_HOUR", 3),
		FollowUpHour:        getIntEnv("FOLLOWUP_HOUR", 10),
		BirthdayHour:        getIntEnv("BIRTHDAY_HOUR", 9),
		WeeklyWeekday:       time.Weekday(getIntEnv("WEEKLY_GREETING_WEEKDAY", int(time.Monday))),
		WeeklyHour:          getIntEnv("WEEKLY_GREETING_HOUR", 9),
		QuoteValidityDays:   getIntEnv("QUOTE_VALIDITY_DAYS", 15),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string       { return c.DatabaseURL }
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetHTTPAddr() string          { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool        { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string     { return c.CORSOrigins }
func (c *Config) GetAdminJWTSecret() string    { return c.AdminJWTSecret }
func (c *Config) GetWhatsAppToken() string     { return c.WhatsAppToken }
func (c *Config) GetWhatsAppPhoneNumberID() string { return c.WhatsAppNumberID }
func (c *Config) GetWhatsAppVerifyToken() string   { return c.WhatsAppVerifyToken }
func (c *Config) GetSalespersonPhone() string  { return c.SalespersonPhone }
func (c *Config) GetCRMBaseURL() string        { return c.CRMBaseURL }
func (c *Config) GetCRMUser() string           { return c.CRMUser }
func (c *Config) GetCRMPassword() string       { return c.CRMPassword }
func (c *Config) GetCRMAppName() string        { return c.CRMAppName }
func (c *Config) GetCRMAppCode() string        { return c.CRMAppCode }
func (c *Config) GetInventoryBaseURL() string  { return c.InventoryBaseURL }
func (c *Config) GetInventoryBranchID() int    { return c.InventoryBranchID }
func (c *Config) GetEmailEnabled() bool        { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUser() string          { return c.SMTPUser }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string     { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetPurchasingAddress() string { return c.PurchasingAddress }
func (c *Config) GetMinIOEndpoint() string     { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string    { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string    { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool         { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketQuoteDocs() string { return c.MinioBucketQuotes }

// IsMinIOEnabled reports whether the document store is configured.
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func (c *Config) GetGotenbergURL() string      { return c.GotenbergURL }
func (c *Config) GetGotenbergUsername() string { return c.GotenbergUsername }
func (c *Config) GetGotenbergPassword() string { return c.GotenbergPassword }

// IsGotenbergEnabled reports whether the PDF renderer is configured.
func (c *Config) IsGotenbergEnabled() bool { return c.GotenbergURL != "" }

func (c *Config) GetGenAIAPIKey() string { return c.GenAIAPIKey }
func (c *Config) GetGenAIModel() string  { return c.GenAIModel }

// IsGenAIEnabled reports whether the LLM enrichment path is configured.
func (c *Config) IsGenAIEnabled() bool { return c.GenAIAPIKey != "" }

func (c *Config) GetTimezone() string                    { return c.Timezone }
func (c *Config) GetCatalogSyncInterval() time.Duration  { return c.CatalogSyncInterval }
func (c *Config) GetIdentitySyncHour() int               { return c.IdentitySyncHour }
func (c *Config) GetFollowUpHour() int                   { return c.FollowUpHour }
func (c *Config) GetBirthdayHour() int                   { return c.BirthdayHour }
func (c *Config) GetWeeklyGreetingWeekday() time.Weekday { return c.WeeklyWeekday }
func (c *Config) GetWeeklyGreetingHour() int             { return c.WeeklyHour }
func (c *Config) GetQuoteValidityDays() int              { return c.QuoteValidityDays }

// =============================================================================
// Env helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
