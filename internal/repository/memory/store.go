// Package memory is a mutex-guarded in-process implementation of the
// repository interfaces. It enforces the same unique keys as the Postgres
// schema and is used by tests and by local runs without a database.
package memory

import (
	"fmt"
	"sync"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

type nodeKey struct {
	owner string
	id    string
}

type pairKey struct {
	owner  string
	source string
	target string
}

// Store holds every entity behind one lock.
type Store struct {
	mu sync.RWMutex

	users       map[string]models.User
	emails      map[string]string
	members     map[string]models.Member
	nodes       map[nodeKey]models.Node
	connections map[nodeKey]models.Connection
	pairs       map[pairKey]string
	photos      map[string]models.Photo
	payments    map[string]models.Payment
	intents     map[string]string

	// seq orders rows created in the same instant.
	seq      int64
	memberAt map[string]int64
	nodeAt   map[nodeKey]int64
	connAt   map[nodeKey]int64
	photoAt  map[string]int64
	payAt    map[string]int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		emails:      make(map[string]string),
		members:     make(map[string]models.Member),
		nodes:       make(map[nodeKey]models.Node),
		connections: make(map[nodeKey]models.Connection),
		pairs:       make(map[pairKey]string),
		photos:      make(map[string]models.Photo),
		payments:    make(map[string]models.Payment),
		intents:     make(map[string]string),
		memberAt:    make(map[string]int64),
		nodeAt:      make(map[nodeKey]int64),
		connAt:      make(map[nodeKey]int64),
		photoAt:     make(map[string]int64),
		payAt:       make(map[string]int64),
	}
}

// Users returns the user repository view of the store
func (s *Store) Users() repository.UserRepository { return &userRepository{s} }

// Members returns the flat family repository view of the store
func (s *Store) Members() repository.MemberRepository { return &memberRepository{s} }

// Graph returns the canvas repository view of the store
func (s *Store) Graph() repository.GraphRepository { return &graphRepository{s} }

// Photos returns the album repository view of the store
func (s *Store) Photos() repository.PhotoRepository { return &photoRepository{s} }

// Payments returns the payment ledger view of the store
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepository{s} }

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, what)
}

func copyPhoto(p *models.PhotoRef) *models.PhotoRef {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
