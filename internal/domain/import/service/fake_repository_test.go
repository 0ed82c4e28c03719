package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/parser"
)

// memoryRepository is a transactional in-memory Repository. Writes made
// inside RunInTx are only kept when fn returns nil.
type memoryRepository struct {
	categories   map[string]CategoryRef
	persons      map[string]PersonRef
	transactions []NewTransaction

	categoryCalls int
	personCalls   int
	commits       int
	rollbacks     int

	// failOn makes CreateTransaction fail for records with this concept.
	failOn  string
	failErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		categories: make(map[string]CategoryRef),
		persons:    make(map[string]PersonRef),
	}
}

func (m *memoryRepository) RunInTx(ctx context.Context, fn func(Store) error) error {
	tx := &memoryTx{
		repo:       m,
		categories: make(map[string]CategoryRef),
		persons:    make(map[string]PersonRef),
	}
	if err := fn(tx); err != nil {
		m.rollbacks++
		return err
	}

	for k, v := range tx.categories {
		m.categories[k] = v
	}
	for k, v := range tx.persons {
		m.persons[k] = v
	}
	m.transactions = append(m.transactions, tx.transactions...)
	m.commits++
	return nil
}

type memoryTx struct {
	repo         *memoryRepository
	categories   map[string]CategoryRef
	persons      map[string]PersonRef
	transactions []NewTransaction
}

func (t *memoryTx) FindOrCreateCategory(ctx context.Context, name string, kind parser.Kind) (CategoryRef, error) {
	t.repo.categoryCalls++
	key := categoryKey(kind, name)
	if ref, ok := t.repo.categories[key]; ok {
		return ref, nil
	}
	if ref, ok := t.categories[key]; ok {
		return ref, nil
	}
	ref := CategoryRef{ID: uuid.New(), Name: name, Kind: kind}
	t.categories[key] = ref
	return ref, nil
}

func (t *memoryTx) FindOrCreatePerson(ctx context.Context, name string) (PersonRef, error) {
	t.repo.personCalls++
	key := strings.ToLower(name)
	if ref, ok := t.repo.persons[key]; ok {
		return ref, nil
	}
	if ref, ok := t.persons[key]; ok {
		return ref, nil
	}
	ref := PersonRef{ID: uuid.New(), Name: name}
	t.persons[key] = ref
	return ref, nil
}

func (t *memoryTx) CreateTransaction(ctx context.Context, tx NewTransaction) (RecordRef, error) {
	if t.repo.failOn != "" && tx.Concept == t.repo.failOn {
		err := t.repo.failErr
		if err == nil {
			err = errors.New("insert failed")
		}
		return RecordRef{}, err
	}
	t.transactions = append(t.transactions, tx)
	return RecordRef{ID: uuid.New(), CreatedAt: time.Now()}, nil
}
