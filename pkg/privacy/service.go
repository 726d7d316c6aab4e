package privacy

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/storage"
)

// Service is the Privacy Engine: PII detection/action, differential-
// privacy budget enforcement, and the consent ledger. It owns all three
// data sets exclusively, serializing writes through one mutex per
// spec.md §5's single-writer policy — mirroring tarsy's MaskingService
// (pkg/masking/service.go) generalized with budget/consent state.
type Service struct {
	mu sync.RWMutex

	budgetStore  *storage.Store
	consentStore *storage.Store
	auditStore   *storage.Store

	budgets  map[string]*domain.PrivacyBudget
	consents map[string]*domain.ConsentRecord
	tokens   map[string]string

	defaultEpsilonCap float64
	defaultQueryCap   int
	resetPeriod       time.Duration
}

// NewService constructs a Privacy Engine rooted at dataDir, loading any
// persisted budgets/consents.
func NewService(dataDir string, defaultEpsilonCap float64, defaultQueryCap int, resetPeriod time.Duration) (*Service, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	budgetStore, err := root.Sub("privacy")
	if err != nil {
		return nil, err
	}
	s := &Service{
		budgetStore:       budgetStore,
		consentStore:      budgetStore,
		auditStore:        budgetStore,
		budgets:           make(map[string]*domain.PrivacyBudget),
		consents:          make(map[string]*domain.ConsentRecord),
		tokens:            make(map[string]string),
		defaultEpsilonCap: defaultEpsilonCap,
		defaultQueryCap:   defaultQueryCap,
		resetPeriod:       resetPeriod,
	}

	var budgets map[string]*domain.PrivacyBudget
	if err := budgetStore.ReadSnapshot("privacy_budgets.json", &budgets); err == nil {
		s.budgets = budgets
	}
	var consents map[string]*domain.ConsentRecord
	if err := budgetStore.ReadSnapshot("consent_records.json", &consents); err == nil {
		s.consents = consents
	}
	return s, nil
}

func (s *Service) persistBudgetsLocked() error {
	return s.budgetStore.WriteSnapshot("privacy_budgets.json", s.budgets)
}

func (s *Service) persistConsentsLocked() error {
	return s.consentStore.WriteSnapshot("consent_records.json", s.consents)
}

func randomToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
