package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownPolicy = errors.New("pricing: unknown fee policy version")

const (
	PolicyV1 = "v1"
	PolicyV2 = "v2"

	DefaultPolicyVersion = PolicyV2
)

// FeePolicy is one epoch of platform fees. Listings keep the version they were created under.
type FeePolicy struct {
	Version              string
	ServiceFeeRate       decimal.Decimal
	InsuranceRatePerUnit decimal.Decimal
	RefundableDeposit    decimal.Decimal
}

// InsuranceOffered reports whether renters can add insurance under this policy.
func (p FeePolicy) InsuranceOffered() bool {
	return p.InsuranceRatePerUnit.IsPositive()
}

func (p FeePolicy) validate() error {
	if strings.TrimSpace(p.Version) == "" {
		return errors.New("pricing: policy version is required")
	}
	if p.ServiceFeeRate.IsNegative() || p.InsuranceRatePerUnit.IsNegative() || p.RefundableDeposit.IsNegative() {
		return errors.New("pricing: policy rates must be non-negative")
	}
	return nil
}

// BuiltinPolicies returns the fee epochs the marketplace has shipped.
func BuiltinPolicies() []FeePolicy {
	return []FeePolicy{
		{
			Version:           PolicyV1,
			ServiceFeeRate:    decimal.RequireFromString("0.10"),
			RefundableDeposit: decimal.RequireFromString("50.00"),
		},
		{
			Version:              PolicyV2,
			ServiceFeeRate:       decimal.RequireFromString("0.20"),
			InsuranceRatePerUnit: decimal.RequireFromString("0.15"),
		},
	}
}

// PolicyBook resolves fee policy versions. It is immutable after construction.
type PolicyBook struct {
	current  string
	policies map[string]FeePolicy
}

// NewPolicyBook registers the builtin epochs, then overrides. An override with an
// existing version replaces it.
func NewPolicyBook(current string, overrides ...FeePolicy) (*PolicyBook, error) {
	book := &PolicyBook{policies: make(map[string]FeePolicy)}
	for _, p := range append(BuiltinPolicies(), overrides...) {
		if err := p.validate(); err != nil {
			return nil, err
		}
		book.policies[p.Version] = p
	}
	if strings.TrimSpace(current) == "" {
		current = DefaultPolicyVersion
	}
	if _, ok := book.policies[current]; !ok {
		return nil, ErrUnknownPolicy
	}
	book.current = current
	return book, nil
}

// MustPolicyBook panics on error; for tests and fixtures.
func MustPolicyBook(current string, overrides ...FeePolicy) *PolicyBook {
	book, err := NewPolicyBook(current, overrides...)
	if err != nil {
		panic(err)
	}
	return book
}

// Current returns the policy applied to newly created listings.
func (b *PolicyBook) Current() FeePolicy {
	return b.policies[b.current]
}

// Resolve returns the policy for version; an empty version means current.
func (b *PolicyBook) Resolve(version string) (FeePolicy, error) {
	if strings.TrimSpace(version) == "" {
		return b.Current(), nil
	}
	p, ok := b.policies[version]
	if !ok {
		return FeePolicy{}, ErrUnknownPolicy
	}
	return p, nil
}
