package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docsort/constants"
)

// Config holds all application configuration
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Schema  SchemaConfig  `yaml:"schema"`
	LLM     LLMConfig     `yaml:"llm"`
	Extract ExtractConfig `yaml:"extract"`
	Fields  FieldsConfig  `yaml:"fields"`
	Report  ReportConfig  `yaml:"report"`
	State   StateConfig   `yaml:"state"`
	Archive ArchiveConfig `yaml:"archive"`
	Log     LogConfig     `yaml:"log"`
}

// InputConfig describes the directory tree to process
type InputConfig struct {
	Dir           string        `yaml:"dir"`
	IncludeHidden bool          `yaml:"include_hidden"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// SchemaConfig points at the field schema source
type SchemaConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig holds inference-service configuration
type LLMConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	ClassifyModel     string        `yaml:"classify_model"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxPromptChars    int           `yaml:"max_prompt_chars"`
}

// ExtractConfig holds text-extraction and readability settings
type ExtractConfig struct {
	Pdftotext         string  `yaml:"pdftotext"`
	MinPrintableRatio float64 `yaml:"min_printable_ratio"`
	PDFMinTextRatio   float64 `yaml:"pdf_min_text_ratio"`
	MaxFileBytes      int64   `yaml:"max_file_bytes"`
}

// FieldsConfig holds field-extraction settings
type FieldsConfig struct {
	Attempts int `yaml:"attempts"`
}

// ReportConfig holds output table locations
type ReportConfig struct {
	OutputDir      string `yaml:"output_dir"`
	OutcomeLog     string `yaml:"outcome_log"`
	LicenseTable   string `yaml:"license_table"`
	AgreementTable string `yaml:"agreement_table"`
	XLSXPath       string `yaml:"xlsx_path"`
}

// StateConfig holds the run-state ledger configuration
type StateConfig struct {
	DSN         string        `yaml:"dsn"`
	Resume      bool          `yaml:"resume"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// ArchiveConfig holds the optional S3-compatible artifact archive
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultConfig mirrors the behavior of the original batch script.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Dir:           "data",
			IncludeHidden: true,
			WatchDebounce: 2 * time.Second,
		},
		Schema: SchemaConfig{Path: "fields.json"},
		LLM: LLMConfig{
			BaseURL: "http://localhost:11434",
			Model:   "mistral",
			Timeout: 5 * time.Minute,
		},
		Extract: ExtractConfig{
			Pdftotext:         "pdftotext",
			MinPrintableRatio: 0.5,
			PDFMinTextRatio:   0.01,
			MaxFileBytes:      100 << 20,
		},
		Fields: FieldsConfig{Attempts: 1},
		Report: ReportConfig{
			OutputDir:      ".",
			OutcomeLog:     constants.OutcomeLogFile,
			LicenseTable:   constants.LicenseTableFile,
			AgreementTable: constants.AgreementTableFile,
		},
		State: StateConfig{
			DSN:         "docsort-state.db",
			DialTimeout: 3 * time.Second,
		},
		Archive: ArchiveConfig{Prefix: "docsort"},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   constants.ProcessingLogFile,
		},
	}
}

// LoadConfig applies defaults, then the YAML file at path (if non-empty), then
// environment overrides. A path that was given but cannot be read is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ConfigError(fmt.Sprintf("config file %q not found", path), err)
			}
			return nil, ConfigError("read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, ConfigError("parse config file", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Input.Dir = getEnv("INPUT_DIR", c.Input.Dir)
	c.Schema.Path = getEnv("FIELDS_PATH", c.Schema.Path)

	c.LLM.BaseURL = getEnv("OLLAMA_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OLLAMA_MODEL", c.LLM.Model)
	c.LLM.ClassifyModel = getEnv("OLLAMA_CLASSIFY_MODEL", c.LLM.ClassifyModel)
	c.LLM.Timeout = getEnvAsDuration("OLLAMA_TIMEOUT", c.LLM.Timeout)
	c.LLM.RequestsPerSecond = getEnvAsFloat("OLLAMA_RPS", c.LLM.RequestsPerSecond)
	c.LLM.MaxPromptChars = getEnvAsInt("OLLAMA_MAX_PROMPT_CHARS", c.LLM.MaxPromptChars)

	c.Extract.Pdftotext = getEnv("PDFTOTEXT", c.Extract.Pdftotext)
	c.Extract.MinPrintableRatio = getEnvAsFloat("MIN_PRINTABLE_RATIO", c.Extract.MinPrintableRatio)
	c.Extract.PDFMinTextRatio = getEnvAsFloat("PDF_MIN_TEXT_RATIO", c.Extract.PDFMinTextRatio)

	c.Fields.Attempts = getEnvAsInt("FIELD_ATTEMPTS", c.Fields.Attempts)

	c.Report.OutputDir = getEnv("OUTPUT_DIR", c.Report.OutputDir)
	c.Report.XLSXPath = getEnv("XLSX_PATH", c.Report.XLSXPath)

	c.State.DSN = getEnv("STATE_DSN", c.State.DSN)
	c.State.Resume = getEnvAsBool("RESUME", c.State.Resume)

	c.Archive.Endpoint = getEnv("ARCHIVE_ENDPOINT", c.Archive.Endpoint)
	c.Archive.AccessKey = getEnv("ARCHIVE_ACCESS_KEY", c.Archive.AccessKey)
	c.Archive.SecretKey = getEnv("ARCHIVE_SECRET_KEY", c.Archive.SecretKey)
	c.Archive.Bucket = getEnv("ARCHIVE_BUCKET", c.Archive.Bucket)
	c.Archive.UseSSL = getEnvAsBool("ARCHIVE_USE_SSL", c.Archive.UseSSL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("input.dir", c.Input.Dir, Required).
		Field("schema.path", c.Schema.Path, Required).
		Field("llm.base_url", c.LLM.BaseURL, Required).
		Field("llm.model", c.LLM.Model, Required).
		Field("llm.requests_per_second", c.LLM.RequestsPerSecond, NonNegative).
		Field("llm.max_prompt_chars", c.LLM.MaxPromptChars, NonNegative).
		Field("extract.pdftotext", c.Extract.Pdftotext, Required).
		Field("extract.min_printable_ratio", c.Extract.MinPrintableRatio, Ratio).
		Field("extract.pdf_min_text_ratio", c.Extract.PDFMinTextRatio, NonNegative).
		Field("fields.attempts", c.Fields.Attempts, Positive).
		Field("report.outcome_log", c.Report.OutcomeLog, Required).
		Field("report.license_table", c.Report.LicenseTable, Required).
		Field("report.agreement_table", c.Report.AgreementTable, Required).
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error")).
		Field("log.format", c.Log.Format, OneOf("json", "text"))
	if c.Archive.Endpoint != "" {
		v.Field("archive.bucket", c.Archive.Bucket, Required)
	}
	if v.HasErrors() {
		return ConfigError(v.ErrorMessage(), v.Error())
	}
	return nil
}

// ClassifierModel falls back to the extraction model when unset.
func (c LLMConfig) ClassifierModel() string {
	if c.ClassifyModel != "" {
		return c.ClassifyModel
	}
	return c.Model
}
