package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"qrdine-order-service/internal/catalog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidAccount     = errors.New("invalid account details")
)

const minPasswordLength = 8

type Preferences struct {
	DietaryFilter       catalog.DietaryFilter `json:"dietaryFilter"`
	OrderNotifications  bool                  `json:"orderNotifications"`
	PromoNotifications  bool                  `json:"promoNotifications"`
	PreferredLanguage   string                `json:"preferredLanguage,omitempty"`
	FavouriteVenueIDs   []string              `json:"favouriteVenueIds,omitempty"`
	AllergyInformation  string                `json:"allergyInformation,omitempty"`
	DefaultInstructions string                `json:"defaultInstructions,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		DietaryFilter:      catalog.DietAll,
		OrderNotifications: true,
		PromoNotifications: true,
	}
}

type Account struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"createdAt"`
	passwordHash []byte
}

// AccountStore keeps customer accounts in memory, keyed by lower-cased
// email.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string
	cost    int
	now     func() time.Time
}

func NewAccountStore(cost int) *AccountStore {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &AccountStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
		cost:    cost,
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountStore) Register(name, email, phone, password string) (Account, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return Account{}, fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, fmt.Errorf("%w: email is invalid", ErrInvalidAccount)
	}
	if len(password) < minPasswordLength {
		return Account{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidAccount, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return Account{}, ErrEmailTaken
	}
	acc := &Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		Preferences:  DefaultPreferences(),
		CreatedAt:    s.now(),
		passwordHash: hash,
	}
	s.byID[acc.ID] = acc
	s.byEmail[email] = acc.ID
	return acc.copy(), nil
}

// Authenticate checks the password. Unknown emails and wrong passwords
// return the same error.
func (s *AccountStore) Authenticate(email, password string) (Account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var acc *Account
	if ok {
		acc = s.byID[id]
	}
	s.mu.RUnlock()

	if acc == nil {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc.copy(), nil
}

func (s *AccountStore) Get(id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc.copy(), nil
}

func (s *AccountStore) UpdatePreferences(id string, prefs Preferences) (Account, error) {
	if prefs.DietaryFilter == "" {
		prefs.DietaryFilter = catalog.DietAll
	}
	if !prefs.DietaryFilter.Valid() {
		return Account{}, fmt.Errorf("%w: unknown dietary filter %q", ErrInvalidAccount, prefs.DietaryFilter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	acc.Preferences = prefs
	acc.Preferences.FavouriteVenueIDs = append([]string(nil), prefs.FavouriteVenueIDs...)
	return acc.copy(), nil
}

func (a *Account) copy() Account {
	out := *a
	out.Preferences.FavouriteVenueIDs = append([]string(nil), a.Preferences.FavouriteVenueIDs...)
	return out
}
