package service

import (
	"context"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/imagehost"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/payment"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

// Repositories groups the stores the service works on.
type Repositories struct {
	Users    repository.UserRepository
	Members  repository.MemberRepository
	Graph    repository.GraphRepository
	Photos   repository.PhotoRepository
	Payments repository.PaymentRepository
}

// TokenIssuer signs bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UpgradeNotifier is told whenever a user's entitlement flips to paid.
type UpgradeNotifier interface {
	NotifyUpgrade(ctx context.Context, user *models.User, via string) error
}

// BillingConfig holds the product and redirect settings of the paid plan.
type BillingConfig struct {
	Amount         int64
	Currency       string
	ProductName    string
	Description    string
	FrontendURL    string
	PublishableKey string
}

// Dependencies are the external collaborators of the service. Gateway,
// Images and Notifier may be nil when not configured.
type Dependencies struct {
	Tokens   TokenIssuer
	Gateway  payment.Gateway
	Images   imagehost.Host
	Notifier UpgradeNotifier
	Billing  BillingConfig
}

// Service is the central business logic layer that holds all repositories
// and the external adapters. Every operation takes the caller's user id
// explicitly.
type Service struct {
	logger *logrus.Logger

	Users    repository.UserRepository
	Members  repository.MemberRepository
	Graph    repository.GraphRepository
	Photos   repository.PhotoRepository
	Payments repository.PaymentRepository

	tokens   TokenIssuer
	gateway  payment.Gateway
	images   imagehost.Host
	notifier UpgradeNotifier
	billing  BillingConfig
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, repos Repositories, deps Dependencies) *Service {
	billing := deps.Billing
	if billing.Amount <= 0 {
		billing.Amount = DefaultPriceAmount
	}
	if billing.Currency == "" {
		billing.Currency = DefaultPriceCurrency
	}
	if billing.ProductName == "" {
		billing.ProductName = "Family Album Pro"
	}
	if billing.Description == "" {
		billing.Description = "Unlock uploads & family tree features"
	}
	if billing.FrontendURL == "" {
		billing.FrontendURL = "http://localhost:3000"
	}

	return &Service{
		logger:   logger,
		Users:    repos.Users,
		Members:  repos.Members,
		Graph:    repos.Graph,
		Photos:   repos.Photos,
		Payments: repos.Payments,
		tokens:   deps.Tokens,
		gateway:  deps.Gateway,
		images:   deps.Images,
		notifier: deps.Notifier,
		billing:  billing,
	}
}

// Upload is an image attached to a request.
type Upload struct {
	Content io.Reader
}

// upload stores an image and fails the operation when the host is missing
// or the upload fails.
func (s *Service) upload(ctx context.Context, u *Upload, opts imagehost.UploadOptions) (*models.PhotoRef, error) {
	if u == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, unavailableError("image upload is not configured", nil)
	}
	ref, err := s.images.Upload(ctx, u.Content, opts)
	if err != nil {
		return nil, unavailableError("photo upload failed", err)
	}
	return &ref, nil
}

// releasePhotos destroys hosted images best-effort. Failures are collected
// and logged; they never fail the calling operation.
func (s *Service) releasePhotos(ctx context.Context, refs ...*models.PhotoRef) {
	if s.images == nil {
		return
	}

	var result *multierror.Error
	for _, ref := range refs {
		if ref == nil || ref.PublicID == "" {
			continue
		}
		if err := s.images.Destroy(ctx, ref.PublicID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		s.logger.WithError(err).Warn("failed to release hosted photos")
	}
}
