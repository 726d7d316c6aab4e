package config

import "time"

// YAMLConfig is the root shape of the on-disk configuration file
// ("partner.yaml" by convention, loaded by Load).
type YAMLConfig struct {
	System       SystemConfig                `yaml:"system"`
	Gates        GateConfig                  `yaml:"gates"`
	Privacy      PrivacyConfig               `yaml:"privacy"`
	Queue        QueueConfig                 `yaml:"queue"`
	Monitor      MonitorConfig               `yaml:"monitor"`
	Feedback     FeedbackConfig              `yaml:"feedback"`
	ModelRouter  RouterConfig                `yaml:"model_router"`
	LLMProviders map[string]ModelProviderYAML `yaml:"llm_providers"`
}

// SystemConfig groups system-wide infrastructure settings.
type SystemConfig struct {
	DataDir          string   `yaml:"data_dir" validate:"required"`
	CredentialFile   string   `yaml:"credential_file" validate:"required"`
	AllowedWSOrigins []string `yaml:"allowed_ws_origins"`
	ListenAddr       string   `yaml:"listen_addr"`
}

// GateConfig carries the four gate thresholds (spec.md §4.4).
type GateConfig struct {
	AutonomyThreshold  float64 `yaml:"autonomy_threshold"`
	HumanityThreshold  float64 `yaml:"humanity_threshold"`
	OversightThreshold float64 `yaml:"oversight_threshold"`
	AlignmentThreshold float64 `yaml:"alignment_threshold"`
	ProtectedPaths     []string `yaml:"protected_paths"`
	// TribunalToleranceBand is how close the mean failed-gate score must be
	// to its threshold for the Tribunal to consider an override (see
	// DESIGN.md Open Question resolution for Tribunal scoring).
	TribunalToleranceBand float64 `yaml:"tribunal_tolerance_band"`
}

// PrivacyConfig carries Privacy Engine defaults: per-user differential
// privacy budget defaults and masking pattern toggles.
type PrivacyConfig struct {
	DefaultEpsilonCap float64       `yaml:"default_epsilon_cap" validate:"required"`
	DefaultQueryCap   int           `yaml:"default_query_cap" validate:"required"`
	BudgetResetPeriod time.Duration `yaml:"budget_reset_period"`
	EnabledPatterns   []string      `yaml:"enabled_patterns"`
}

// QueueConfig sizes the orchestrator's worker pool.
type QueueConfig struct {
	WorkerCount       int           `yaml:"worker_count" validate:"required,min=1"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	LocalTimeout      time.Duration `yaml:"local_timeout"`
	RemoteTimeout     time.Duration `yaml:"remote_timeout"`
	FactCheckTimeout  time.Duration `yaml:"fact_check_timeout"`
}

// MonitorConfig carries ARI/EDM alert thresholds.
type MonitorConfig struct {
	ARIWindowSize        int     `yaml:"ari_window_size"`
	DeltaAgencyAlert     float64 `yaml:"delta_agency_alert"`
	BHIRAlert            float64 `yaml:"bhir_alert"`
	SkillDeltaAlert      float64 `yaml:"skill_delta_alert"`
	RelianceAlert        float64 `yaml:"reliance_alert"`
	CriticalTrendAverage float64 `yaml:"critical_trend_average"`
	CitationWindowChars  int     `yaml:"citation_window_chars"`
	AutoResolveVerified  bool    `yaml:"auto_resolve_verified"`
	RDIWeights           RDIWeights `yaml:"rdi_weights"`
}

// RDIWeights is the user-configurable weighted mean over the three RDI
// sub-scores (spec.md §9 Open Question).
type RDIWeights struct {
	Semantic float64 `yaml:"semantic"`
	Factual  float64 `yaml:"factual"`
	Logical  float64 `yaml:"logical"`
}

// FeedbackConfig carries the self-improvement loop's thresholds.
type FeedbackConfig struct {
	MinFeedback            int           `yaml:"min_feedback"`
	NegativeRatioThreshold float64       `yaml:"negative_ratio_threshold"`
	Window                 time.Duration `yaml:"window"`
	AutoImplementThreshold float64       `yaml:"auto_implement_threshold"`
}

// RouterConfig carries Model Router defaults (fallback ordering, cost
// reference, backpressure ceiling).
type RouterConfig struct {
	CostReference        float64       `yaml:"cost_reference"`
	LatencyReferenceMS   float64       `yaml:"latency_reference_ms"`
	FallbackOrder        []string      `yaml:"fallback_order"`
	ErrorRateCeiling     float64       `yaml:"error_rate_ceiling"`
	ErrorRateWindow      int           `yaml:"error_rate_window"`
	CoolDownPeriod       time.Duration `yaml:"cool_down_period"`
	PreferredModelMaxComplexity string `yaml:"preferred_model_max_complexity"`
}

// ModelProviderYAML is the on-disk shape of one registry entry; Load
// converts this into a domain.ModelDescriptor.
type ModelProviderYAML struct {
	Provider          string  `yaml:"provider" validate:"required"`
	Model             string  `yaml:"model" validate:"required"`
	APIKeyEnv         string  `yaml:"api_key_env,omitempty"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	MaxContextTokens  int     `yaml:"max_context_tokens" validate:"required"`
	SupportsStreaming bool    `yaml:"supports_streaming"`
	SupportsFunctions bool    `yaml:"supports_functions"`
	SupportsVision    bool    `yaml:"supports_vision"`
	QualityReasoning  float64 `yaml:"quality_reasoning"`
	QualityBreadth    float64 `yaml:"quality_breadth"`
	QualityCode       float64 `yaml:"quality_code"`
	QualityCreativity float64 `yaml:"quality_creativity"`
	InputCostPer1K    float64 `yaml:"input_cost_per_1k"`
	OutputCostPer1K   float64 `yaml:"output_cost_per_1k"`
	TypicalLatencyMS  float64 `yaml:"typical_latency_ms"`
	RetentionDays     int     `yaml:"retention_days"`
	TrainsOnData      bool    `yaml:"trains_on_data"`
	LocalExecution    bool    `yaml:"local_execution"`
}
