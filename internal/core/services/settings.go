package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes environment overrides: RAGDESK_CHUNKING_SIZE overrides chunking.size.
const EnvPrefix = "RAGDESK_"

// Config keys.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyCorpusDir          = "corpus.dir"
	KeyChunkSize          = "chunking.size"
	KeyChunkOverlap       = "chunking.overlap"
	KeyChunkSplitter      = "chunking.splitter"
	KeyTopK               = "retrieval.top_k"
	KeyEmbedProvider      = "embedding.provider"
	KeyEmbedModel         = "embedding.model"
	KeyEmbedBaseURL       = "embedding.base_url"
	KeyEmbedAPIKey        = "embedding.api_key"
	KeyEmbedDimensions    = "embedding.dimensions"
	KeyEmbedBatchSize     = "embedding.batch_size"
	KeyEmbedConcurrency   = "embedding.concurrency"
	KeyLLMProvider        = "llm.provider"
	KeyLLMModel           = "llm.model"
	KeyLLMBaseURL         = "llm.base_url"
	KeyLLMAPIKey          = "llm.api_key"
	KeyLLMTemperature     = "llm.temperature"
	KeyLLMMaxTokens       = "llm.max_tokens"
	KeyRemoteMaxRetries   = "remote.max_retries"
	KeyRemoteTimeout      = "remote.timeout_seconds"
	KeyRemoteRate         = "remote.rate_per_second"
	KeyIndexPersist       = "index.persist"
	KeyIndexBackend       = "index.backend"
	KeyIndexDir           = "index.dir"
	KeyIndexPostgresDSN   = "index.postgres_dsn"
	KeyPromptLanguage     = "prompt.language"
	KeyPromptStyle        = "prompt.style"
	KeyPromptSystem       = "prompt.system"
	KeyPromptHuman        = "prompt.human"
	KeyPromptHistoryTurns = "prompt.history_turns"
	KeySessionBackend     = "session.backend"
	KeySessionRedisAddr   = "session.redis_addr"
	KeySessionTTL         = "session.ttl_minutes"
	KeyServerAddr         = "server.addr"
)

// Provider credential variables.
//
//nolint:gosec // G101: environment variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvClaudeKey    = "CLAUDE_API_KEY"
)

// Default providers when none is configured.
const (
	DefaultEmbeddingProvider = domain.AIProviderOpenAI
	DefaultLLMProvider       = domain.AIProviderOpenAI
)

// Setting sources reported by Lookup.
const (
	SourceDefault = "default"
	SourceConfig  = "config"
	SourceEnv     = "env"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

type keySpec struct {
	kind     valueKind
	secret   bool
	validate func(string) error
}

var keySpecs = map[string]keySpec{
	KeyCorpusDir:          {kind: kindString},
	KeyChunkSize:          {kind: kindInt, validate: positive},
	KeyChunkOverlap:       {kind: kindInt, validate: nonNegative},
	KeyChunkSplitter:      {kind: kindString},
	KeyTopK:               {kind: kindInt, validate: positive},
	KeyEmbedProvider:      {kind: kindString, validate: oneOfProviders(domain.AllEmbeddingProviders)},
	KeyEmbedModel:         {kind: kindString},
	KeyEmbedBaseURL:       {kind: kindString},
	KeyEmbedAPIKey:        {kind: kindString, secret: true},
	KeyEmbedDimensions:    {kind: kindInt, validate: nonNegative},
	KeyEmbedBatchSize:     {kind: kindInt, validate: positive},
	KeyEmbedConcurrency:   {kind: kindInt, validate: positive},
	KeyLLMProvider:        {kind: kindString, validate: oneOfProviders(domain.AllLLMProviders)},
	KeyLLMModel:           {kind: kindString},
	KeyLLMBaseURL:         {kind: kindString},
	KeyLLMAPIKey:          {kind: kindString, secret: true},
	KeyLLMTemperature:     {kind: kindFloat},
	KeyLLMMaxTokens:       {kind: kindInt, validate: nonNegative},
	KeyRemoteMaxRetries:   {kind: kindInt, validate: nonNegative},
	KeyRemoteTimeout:      {kind: kindInt, validate: positive},
	KeyRemoteRate:         {kind: kindFloat},
	KeyIndexPersist:       {kind: kindBool},
	KeyIndexBackend:       {kind: kindString, validate: oneOf("sqlite", "postgres")},
	KeyIndexDir:           {kind: kindString},
	KeyIndexPostgresDSN:   {kind: kindString, secret: true},
	KeyPromptLanguage:     {kind: kindString},
	KeyPromptStyle:        {kind: kindString},
	KeyPromptSystem:       {kind: kindString},
	KeyPromptHuman:        {kind: kindString},
	KeyPromptHistoryTurns: {kind: kindInt, validate: nonNegative},
	KeySessionBackend:     {kind: kindString, validate: oneOf("memory", "redis")},
	KeySessionRedisAddr:   {kind: kindString},
	KeySessionTTL:         {kind: kindInt, validate: nonNegative},
	KeyServerAddr:         {kind: kindString},
}

// SettingsService resolves settings from defaults, the config store and the
// environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
	dataDir     string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// WithDataDir sets the directory that index.dir defaults under.
func WithDataDir(dir string) SettingsOption {
	return func(s *SettingsService) {
		s.dataDir = dir
	}
}

// NewSettingsService creates a new settings service. The validator may be nil.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get resolves the effective settings. Malformed values wrap domain.ErrConfiguration.
func (s *SettingsService) Get() (domain.Settings, error) {
	values := s.defaults()
	for key := range keySpecs {
		if v, _, ok := s.raw(key); ok {
			values[key] = v
		}
	}

	set := domain.DefaultSettings()
	var err error
	str := func(key string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = toString(key, values[key])
		return v
	}
	num := func(key string) int {
		if err != nil {
			return 0
		}
		var v int
		v, err = toInt(key, values[key])
		return v
	}
	flt := func(key string) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = toFloat(key, values[key])
		return v
	}
	flag := func(key string) bool {
		if err != nil {
			return false
		}
		var v bool
		v, err = toBool(key, values[key])
		return v
	}

	set.CorpusDir = str(KeyCorpusDir)
	set.Chunking.Size = num(KeyChunkSize)
	set.Chunking.Overlap = num(KeyChunkOverlap)
	set.Chunking.Splitter = str(KeyChunkSplitter)
	set.Retrieval.TopK = num(KeyTopK)

	set.Embedding.Provider = domain.AIProvider(str(KeyEmbedProvider))
	set.Embedding.Model = str(KeyEmbedModel)
	set.Embedding.BaseURL = str(KeyEmbedBaseURL)
	set.Embedding.APIKey = str(KeyEmbedAPIKey)
	set.Embedding.Dimensions = num(KeyEmbedDimensions)
	set.Embedding.BatchSize = num(KeyEmbedBatchSize)
	set.Embedding.Concurrency = num(KeyEmbedConcurrency)

	set.LLM.Provider = domain.AIProvider(str(KeyLLMProvider))
	set.LLM.Model = str(KeyLLMModel)
	set.LLM.BaseURL = str(KeyLLMBaseURL)
	set.LLM.APIKey = str(KeyLLMAPIKey)
	temperature := flt(KeyLLMTemperature)
	set.LLM.Temperature = &temperature
	set.LLM.MaxTokens = num(KeyLLMMaxTokens)

	set.Remote.MaxRetries = num(KeyRemoteMaxRetries)
	set.Remote.Timeout = time.Duration(num(KeyRemoteTimeout)) * time.Second
	set.Remote.RatePerSecond = flt(KeyRemoteRate)

	set.Index.Persist = flag(KeyIndexPersist)
	set.Index.Backend = domain.IndexBackend(str(KeyIndexBackend))
	set.Index.Dir = str(KeyIndexDir)
	set.Index.PostgresDSN = str(KeyIndexPostgresDSN)

	set.Prompt.Language = str(KeyPromptLanguage)
	set.Prompt.Style = str(KeyPromptStyle)
	set.Prompt.SystemInstruction = str(KeyPromptSystem)
	set.Prompt.HumanTemplate = str(KeyPromptHuman)
	set.Prompt.HistoryTurns = num(KeyPromptHistoryTurns)

	set.Session.Backend = domain.SessionBackend(str(KeySessionBackend))
	set.Session.RedisAddr = str(KeySessionRedisAddr)
	set.Session.TTL = time.Duration(num(KeySessionTTL)) * time.Minute

	set.ServerAddr = str(KeyServerAddr)

	if err != nil {
		return domain.Settings{}, err
	}

	s.fillProviderDefaults(&set)
	return set, nil
}

// fillProviderDefaults sets models and credentials that depend on the provider.
func (s *SettingsService) fillProviderDefaults(set *domain.Settings) {
	if set.Embedding.Model == "" {
		set.Embedding.Model = domain.DefaultEmbeddingModels()[set.Embedding.Provider]
	}
	if set.LLM.Model == "" {
		set.LLM.Model = domain.DefaultLLMModels()[set.LLM.Provider]
	}
	if set.Embedding.APIKey == "" {
		set.Embedding.APIKey = s.providerKey(set.Embedding.Provider)
	}
	if set.LLM.APIKey == "" {
		set.LLM.APIKey = s.providerKey(set.LLM.Provider)
	}
}

// providerKey reads the vendor's conventional credential variable.
func (s *SettingsService) providerKey(p domain.AIProvider) string {
	var names []string
	switch p {
	case domain.AIProviderOpenAI:
		names = []string{EnvOpenAIKey}
	case domain.AIProviderAnthropic:
		names = []string{EnvAnthropicKey, EnvClaudeKey}
	}
	for _, name := range names {
		if v, ok := s.lookupEnv(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// ProviderKeyEnv returns the environment variable holding a provider's API key.
func ProviderKeyEnv(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return EnvOpenAIKey
	case domain.AIProviderAnthropic:
		return EnvAnthropicKey
	default:
		return ""
	}
}

// Set validates and stores a single configuration key.
func (s *SettingsService) Set(key, value string) error {
	spec, ok := keySpecs[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)
	if spec.validate != nil {
		if err := spec.validate(value); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
	}

	var typed any
	var err error
	switch spec.kind {
	case kindInt:
		typed, err = strconv.Atoi(value)
	case kindFloat:
		typed, err = strconv.ParseFloat(value, 64)
	case kindBool:
		typed, err = strconv.ParseBool(value)
	default:
		typed = value
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a valid value", domain.ErrInvalidInput, key, value)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised configuration keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(keySpecs))
	for k := range keySpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the effective value of a key as text and where it came from.
func (s *SettingsService) Lookup(key string) (value, source string, err error) {
	if _, ok := keySpecs[key]; !ok {
		return "", "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if v, src, ok := s.raw(key); ok {
		return fmt.Sprint(v), src, nil
	}
	return fmt.Sprint(s.defaults()[key]), SourceDefault, nil
}

// IsSecret reports whether a key holds a credential.
func (s *SettingsService) IsSecret(key string) bool {
	return keySpecs[key].secret
}

// EnvName returns the environment variable that overrides a key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured generation provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// raw returns the environment or config value for a key.
func (s *SettingsService) raw(key string) (any, string, bool) {
	if v, ok := s.lookupEnv(EnvName(key)); ok {
		return v, SourceEnv, true
	}
	if v, ok := s.configStore.Get(key); ok {
		return v, SourceConfig, true
	}
	return nil, "", false
}

func (s *SettingsService) defaults() map[string]any {
	d := domain.DefaultSettings()

	indexDir := ""
	if s.dataDir != "" {
		indexDir = filepath.Join(s.dataDir, "index")
	}

	return map[string]any{
		KeyCorpusDir:          d.CorpusDir,
		KeyChunkSize:          d.Chunking.Size,
		KeyChunkOverlap:       d.Chunking.Overlap,
		KeyChunkSplitter:      d.Chunking.Splitter,
		KeyTopK:               d.Retrieval.TopK,
		KeyEmbedProvider:      string(DefaultEmbeddingProvider),
		KeyEmbedModel:         "",
		KeyEmbedBaseURL:       "",
		KeyEmbedAPIKey:        "",
		KeyEmbedDimensions:    0,
		KeyEmbedBatchSize:     d.Embedding.BatchSize,
		KeyEmbedConcurrency:   d.Embedding.Concurrency,
		KeyLLMProvider:        string(DefaultLLMProvider),
		KeyLLMModel:           "",
		KeyLLMBaseURL:         "",
		KeyLLMAPIKey:          "",
		KeyLLMTemperature:     *d.LLM.Temperature,
		KeyLLMMaxTokens:       0,
		KeyRemoteMaxRetries:   d.Remote.MaxRetries,
		KeyRemoteTimeout:      int(d.Remote.Timeout / time.Second),
		KeyRemoteRate:         d.Remote.RatePerSecond,
		KeyIndexPersist:       d.Index.Persist,
		KeyIndexBackend:       string(d.Index.Backend),
		KeyIndexDir:           indexDir,
		KeyIndexPostgresDSN:   "",
		KeyPromptLanguage:     d.Prompt.Language,
		KeyPromptStyle:        d.Prompt.Style,
		KeyPromptSystem:       "",
		KeyPromptHuman:        "",
		KeyPromptHistoryTurns: d.Prompt.HistoryTurns,
		KeySessionBackend:     string(d.Session.Backend),
		KeySessionRedisAddr:   "",
		KeySessionTTL:         int(d.Session.TTL / time.Minute),
		KeyServerAddr:         d.ServerAddr,
	}
}

// Value conversion. Config values arrive typed from TOML; environment values
// arrive as strings.

func toString(key string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	default:
		return "", badValue(key, v)
	}
}

func toInt(key string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, badValue(key, v)
		}
		return n, nil
	default:
		return 0, badValue(key, v)
	}
}

func toFloat(key string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, badValue(key, v)
		}
		return f, nil
	default:
		return 0, badValue(key, v)
	}
}

func toBool(key string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, badValue(key, v)
		}
		return b, nil
	default:
		return false, badValue(key, v)
	}
}

func badValue(key string, v any) error {
	return fmt.Errorf("%w: invalid value %v for %s", domain.ErrConfiguration, v, key)
}

func positive(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func nonNegative(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

func oneOfProviders(list func() []domain.AIProvider) func(string) error {
	return func(v string) error {
		names := make([]string, 0, 3)
		for _, p := range list() {
			if string(p) == v {
				return nil
			}
			names = append(names, string(p))
		}
		return fmt.Errorf("must be one of %s", strings.Join(names, ", "))
	}
}
