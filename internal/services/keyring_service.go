package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/99designs/keyring"

	"chatdesk/internal/models"
)

const serviceName = "chatdesk"

// OpenKeyring opens the OS keyring for chatdesk. The encrypted file backend
// is used where no native keyring exists; it is unlocked with filePassword,
// or a terminal prompt when that is empty.
func OpenKeyring(filePassword string) (keyring.Keyring, error) {
	var passwordFunc keyring.PromptFunc = keyring.TerminalPrompt
	if filePassword != "" {
		passwordFunc = keyring.FixedStringPrompt(filePassword)
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:             serviceName,
		KeychainName:            serviceName,
		KWalletAppID:            serviceName,
		KWalletFolder:           serviceName,
		LibSecretCollectionName: serviceName,
		FileDir:                 "~/.config/" + serviceName + "/keys",
		FilePasswordFunc:        passwordFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

// KeyringService keeps provider API keys out of the persisted settings.
type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if err := validateProvider(provider); err != nil {
		return err
	}

	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by chatdesk",
	})
}

// GetApiKey returns the stored key; a provider without a key yields
// keyring.ErrKeyNotFound.
func (s *KeyringService) GetApiKey(provider string) (string, error) {
	if err := validateProvider(provider); err != nil {
		return "", err
	}
	item, err := s.ring.Get(provider)
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	if err := validateProvider(provider); err != nil {
		return err
	}
	err := s.ring.Remove(provider)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *KeyringService) ListApiKeys() ([]map[string]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	var results []map[string]string
	for _, provider := range keys {
		if !models.LLMProvider(provider).Valid() {
			continue
		}
		results = append(results, map[string]string{
			"provider":    provider,
			"label":       provider + " API key",
			"description": "API key for " + provider + " used by chatdesk",
		})
	}
	return results, nil
}

func validateProvider(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	if !models.LLMProvider(provider).Valid() {
		return fmt.Errorf("unknown provider %q", provider)
	}
	return nil
}
