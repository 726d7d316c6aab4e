package config

import "time"

// Defaults returns a YAMLConfig pre-populated with the system's built-in
// defaults, mirroring tarsy's pkg/config/defaults.go + builtin.go pattern:
// Load merges a user file on top of this via mergo, so a partial user file
// is always safe.
func Defaults() YAMLConfig {
	return YAMLConfig{
		System: SystemConfig{
			DataDir:        "./data",
			CredentialFile: "./data/credentials.json",
			ListenAddr:     ":8080",
		},
		Gates: GateConfig{
			AutonomyThreshold:     0.0,
			HumanityThreshold:     0.6,
			OversightThreshold:    0.8,
			AlignmentThreshold:    0.7,
			TribunalToleranceBand: 0.15,
		},
		Privacy: PrivacyConfig{
			DefaultEpsilonCap: 1.0,
			DefaultQueryCap:   100,
			BudgetResetPeriod: 24 * time.Hour,
		},
		Queue: QueueConfig{
			WorkerCount:      4,
			PollInterval:     500 * time.Millisecond,
			LocalTimeout:     60 * time.Second,
			RemoteTimeout:    30 * time.Second,
			FactCheckTimeout: 10 * time.Second,
		},
		Monitor: MonitorConfig{
			ARIWindowSize:        30,
			DeltaAgencyAlert:     -0.1,
			BHIRAlert:            0.8,
			SkillDeltaAlert:      -0.15,
			RelianceAlert:        0.9,
			CriticalTrendAverage: -0.2,
			CitationWindowChars:  120,
			AutoResolveVerified:  true,
			RDIWeights:           RDIWeights{Semantic: 0.34, Factual: 0.33, Logical: 0.33},
		},
		Feedback: FeedbackConfig{
			MinFeedback:            5,
			NegativeRatioThreshold: 0.3,
			Window:                 30 * 24 * time.Hour,
			AutoImplementThreshold: 0.85,
		},
		ModelRouter: RouterConfig{
			CostReference:               0.03,
			LatencyReferenceMS:          5000,
			ErrorRateCeiling:            0.5,
			ErrorRateWindow:             20,
			CoolDownPeriod:              2 * time.Minute,
			PreferredModelMaxComplexity: "moderate",
			FallbackOrder:               []string{"local:default"},
		},
		LLMProviders: map[string]ModelProviderYAML{
			"local:default": {
				Provider:          "local",
				Model:              "default",
				MaxContextTokens:  8192,
				SupportsStreaming: true,
				QualityReasoning:  0.5,
				QualityBreadth:    0.5,
				QualityCode:       0.5,
				QualityCreativity: 0.5,
				TypicalLatencyMS:  400,
				LocalExecution:    true,
			},
		},
	}
}
