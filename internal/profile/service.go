package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=profile
type Repository interface {
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update Update) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	// ID is the identity issued by the external auth provider. A nil ID lets the store assign one.
	ID          uuid.UUID
	DisplayName string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Profile, error) {
	name, err := displayName(params.DisplayName)
	if err != nil {
		return nil, err
	}

	p := &Profile{ID: params.ID, DisplayName: name}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// List returns every profile ordered by display name.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	return s.repo.ListProfiles(ctx)
}

// Exists reports whether id resolves to a profile.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.GetProfile(ctx, id)
	return err
}

func (s *Service) UpdateDisplay(ctx context.Context, id uuid.UUID, name string) (*Profile, error) {
	name, err := displayName(name)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, id, Update{DisplayName: &name})
}

func (s *Service) UpdateBank(ctx context.Context, id uuid.UUID, bank BankInfo) (*Profile, error) {
	bank = BankInfo{
		BankCode:      strings.TrimSpace(bank.BankCode),
		AccountNumber: strings.ReplaceAll(strings.TrimSpace(bank.AccountNumber), " ", ""),
		AccountHolder: strings.TrimSpace(bank.AccountHolder),
	}

	if bank.BankCode == "" || bank.AccountNumber == "" {
		return nil, fmt.Errorf("%w: bank code and account number are required", ErrValidation)
	}

	return s.update(ctx, id, Update{Bank: &bank})
}

func (s *Service) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (*Profile, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: avatar url is required", ErrValidation)
	}

	return s.update(ctx, id, Update{AvatarURL: &url})
}

func (s *Service) update(ctx context.Context, id uuid.UUID, update Update) (*Profile, error) {
	if err := s.repo.UpdateProfile(ctx, id, update); err != nil {
		return nil, err
	}

	return s.repo.GetProfile(ctx, id)
}

func displayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: display name is required", ErrValidation)
	}

	return name, nil
}
