package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/familyalbum/internal/imagehost"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/payment"
	"github.com/Kerhoff/familyalbum/internal/repository/memory"
)

type fakeTokens struct{}

func (fakeTokens) Issue(userID string) (string, error) {
	return "token-" + userID, nil
}

type fakeImages struct {
	mu        sync.Mutex
	uploads   []imagehost.UploadOptions
	destroyed []string
	failNext  bool
	failDrop  bool
	seq       int
}

func (f *fakeImages) Upload(_ context.Context, r io.Reader, opts imagehost.UploadOptions) (models.PhotoRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return models.PhotoRef{}, errors.New("upload exploded")
	}
	if _, err := io.ReadAll(r); err != nil {
		return models.PhotoRef{}, err
	}
	f.seq++
	f.uploads = append(f.uploads, opts)
	id := fmt.Sprintf("%s/img%d", opts.Folder, f.seq)
	return models.PhotoRef{URL: "https://img.example/" + id, PublicID: id}, nil
}

func (f *fakeImages) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	if f.failDrop {
		return errors.New("destroy exploded")
	}
	return nil
}

type fakeGateway struct {
	intents  map[string]*payment.Intent
	sessions map[string]*payment.Session
	created  []payment.IntentParams
	checkout []payment.SessionParams
	getErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:  make(map[string]*payment.Intent),
		sessions: make(map[string]*payment.Session),
	}
}

func (g *fakeGateway) CreateIntent(_ context.Context, p payment.IntentParams) (*payment.Intent, error) {
	g.created = append(g.created, p)
	id := fmt.Sprintf("pi_%d", len(g.created))
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       p.Amount,
		Currency:     p.Currency,
		Metadata:     map[string]string{payment.MetadataUserID: p.UserID},
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	intent, ok := g.intents[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return intent, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p payment.SessionParams) (*payment.Session, error) {
	g.checkout = append(g.checkout, p)
	return &payment.Session{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*payment.Session, error) {
	s, ok := g.sessions[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return s, nil
}

type fakeNotifier struct {
	upgrades []string
}

func (n *fakeNotifier) NotifyUpgrade(_ context.Context, user *models.User, via string) error {
	n.upgrades = append(n.upgrades, user.ID+":"+via)
	return nil
}

type fixture struct {
	svc      *Service
	images   *fakeImages
	gateway  *fakeGateway
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.New()
	f := &fixture{
		images:   &fakeImages{},
		gateway:  newFakeGateway(),
		notifier: &fakeNotifier{},
	}
	f.svc = New(logger, Repositories{
		Users:    store.Users(),
		Members:  store.Members(),
		Graph:    store.Graph(),
		Photos:   store.Photos(),
		Payments: store.Payments(),
	}, Dependencies{
		Tokens:   fakeTokens{},
		Gateway:  f.gateway,
		Images:   f.images,
		Notifier: f.notifier,
		Billing:  BillingConfig{FrontendURL: "https://app.example/", PublishableKey: "pk_test"},
	})
	return f
}

func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Name: "Test", Email: email, Password: "secret"})
	require.NoError(t, err)
	return res.User.ID
}

func image() *Upload {
	return &Upload{Content: bytes.NewReader([]byte("jpeg bytes"))}
}

func str(s string) *string {
	return &s
}
