// Package testutil provides test doubles for the claim tracking services.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/service"
)

// Compile-time interface check.
var _ service.Storage = (*MemoryStorage)(nil)

// MemoryStorage is an in-memory service.Storage implementation for tests. It
// enforces the same pair-uniqueness invariant as the SQLite storage.
type MemoryStorage struct {
	mu          sync.RWMutex
	documents   map[string]model.Document
	claims      map[string]model.Claim
	assignments map[string]model.Assignment
	drafts      map[string]model.DraftClaim
	illnesses   map[string]model.Illness

	// order preserves insertion order for GetAll calls.
	documentOrder   []string
	claimOrder      []string
	assignmentOrder []string
	draftOrder      []string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		documents:   make(map[string]model.Document),
		claims:      make(map[string]model.Claim),
		assignments: make(map[string]model.Assignment),
		drafts:      make(map[string]model.DraftClaim),
		illnesses:   make(map[string]model.Illness),
	}
}

// SaveDocuments stores documents, replacing existing ids.
func (m *MemoryStorage) SaveDocuments(_ context.Context, documents []model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range documents {
		if _, ok := m.documents[doc.ID]; !ok {
			m.documentOrder = append(m.documentOrder, doc.ID)
		}
		m.documents[doc.ID] = doc
	}
	return nil
}

// GetAllDocuments returns all documents in insertion order.
func (m *MemoryStorage) GetAllDocuments(_ context.Context) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]model.Document, 0, len(m.documentOrder))
	for _, id := range m.documentOrder {
		docs = append(docs, m.documents[id])
	}
	return docs, nil
}

// GetDocumentByID returns a document or common.ErrNotFound.
func (m *MemoryStorage) GetDocumentByID(_ context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return &doc, nil
}

// SaveClaims stores claims, replacing existing ids.
func (m *MemoryStorage) SaveClaims(_ context.Context, claims []model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, claim := range claims {
		if _, ok := m.claims[claim.ID]; !ok {
			m.claimOrder = append(m.claimOrder, claim.ID)
		}
		m.claims[claim.ID] = claim
	}
	return nil
}

// GetAllClaims returns all claims in insertion order.
func (m *MemoryStorage) GetAllClaims(_ context.Context) ([]model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	claims := make([]model.Claim, 0, len(m.claimOrder))
	for _, id := range m.claimOrder {
		claims = append(claims, m.claims[id])
	}
	return claims, nil
}

// GetClaimByID returns a claim or common.ErrNotFound.
func (m *MemoryStorage) GetClaimByID(_ context.Context, id string) (*model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	claim, ok := m.claims[id]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", id, common.ErrNotFound)
	}
	return &claim, nil
}

// SaveAssignment inserts a new assignment, enforcing pair uniqueness.
func (m *MemoryStorage) SaveAssignment(_ context.Context, assignment *model.Assignment) error {
	if err := assignment.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assignments {
		if existing.DocumentID == assignment.DocumentID && existing.ClaimID == assignment.ClaimID {
			return fmt.Errorf("assignment for document %s and claim %s: %w",
				assignment.DocumentID, assignment.ClaimID, common.ErrDuplicateEntry)
		}
	}
	m.assignments[assignment.ID] = *assignment
	m.assignmentOrder = append(m.assignmentOrder, assignment.ID)
	return nil
}

// UpdateAssignment replaces an existing assignment.
func (m *MemoryStorage) UpdateAssignment(_ context.Context, assignment *model.Assignment) error {
	if err := assignment.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[assignment.ID]; !ok {
		return fmt.Errorf("assignment %s: %w", assignment.ID, common.ErrNotFound)
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

// GetAllAssignments returns all assignments in insertion order.
func (m *MemoryStorage) GetAllAssignments(_ context.Context) ([]model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	assignments := make([]model.Assignment, 0, len(m.assignmentOrder))
	for _, id := range m.assignmentOrder {
		if a, ok := m.assignments[id]; ok {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// GetAssignmentByID returns an assignment or common.ErrNotFound.
func (m *MemoryStorage) GetAssignmentByID(_ context.Context, id string) (*model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	assignment, ok := m.assignments[id]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", id, common.ErrNotFound)
	}
	return &assignment, nil
}

// GetAssignmentByPair returns the assignment for a (document, claim) pair or
// common.ErrNotFound.
func (m *MemoryStorage) GetAssignmentByPair(_ context.Context, documentID, claimID string) (*model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.assignmentOrder {
		a, ok := m.assignments[id]
		if ok && a.DocumentID == documentID && a.ClaimID == claimID {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("assignment for document %s and claim %s: %w", documentID, claimID, common.ErrNotFound)
}

// GetAssignmentsForDocument returns all assignments referencing a document.
func (m *MemoryStorage) GetAssignmentsForDocument(_ context.Context, documentID string) ([]model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var assignments []model.Assignment
	for _, id := range m.assignmentOrder {
		if a, ok := m.assignments[id]; ok && a.DocumentID == documentID {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// ClearCandidateAssignments removes a document's candidate assignments,
// leaving reviewed rows untouched.
func (m *MemoryStorage) ClearCandidateAssignments(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.assignments {
		if a.DocumentID == documentID && a.Status == model.AssignmentCandidate {
			delete(m.assignments, id)
		}
	}
	return nil
}

// SaveDraftClaim inserts a new draft claim.
func (m *MemoryStorage) SaveDraftClaim(_ context.Context, draft *model.DraftClaim) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[draft.ID]; ok {
		return fmt.Errorf("draft claim %s: %w", draft.ID, common.ErrDuplicateEntry)
	}
	m.drafts[draft.ID] = *draft
	m.draftOrder = append(m.draftOrder, draft.ID)
	return nil
}

// UpdateDraftClaim replaces an existing draft claim.
func (m *MemoryStorage) UpdateDraftClaim(_ context.Context, draft *model.DraftClaim) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[draft.ID]; !ok {
		return fmt.Errorf("draft claim %s: %w", draft.ID, common.ErrNotFound)
	}
	m.drafts[draft.ID] = *draft
	return nil
}

// GetAllDraftClaims returns all draft claims in insertion order.
func (m *MemoryStorage) GetAllDraftClaims(_ context.Context) ([]model.DraftClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	drafts := make([]model.DraftClaim, 0, len(m.draftOrder))
	for _, id := range m.draftOrder {
		drafts = append(drafts, m.drafts[id])
	}
	return drafts, nil
}

// GetDraftClaimByID returns a draft claim or common.ErrNotFound.
func (m *MemoryStorage) GetDraftClaimByID(_ context.Context, id string) (*model.DraftClaim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	draft, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft claim %s: %w", id, common.ErrNotFound)
	}
	return &draft, nil
}

// SaveIllness stores an illness.
func (m *MemoryStorage) SaveIllness(_ context.Context, illness *model.Illness) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.illnesses[illness.ID] = *illness
	return nil
}

// GetIllnessByID returns an illness or common.ErrNotFound.
func (m *MemoryStorage) GetIllnessByID(_ context.Context, id string) (*model.Illness, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	illness, ok := m.illnesses[id]
	if !ok {
		return nil, fmt.Errorf("illness %s: %w", id, common.ErrNotFound)
	}
	return &illness, nil
}

// MergeIllnessAccounts merges accounts into an illness, deduplicated by
// email.
func (m *MemoryStorage) MergeIllnessAccounts(_ context.Context, id string, accounts []model.ProviderAccount) (*model.Illness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	illness, ok := m.illnesses[id]
	if !ok {
		return nil, fmt.Errorf("illness %s: %w", id, common.ErrNotFound)
	}
	illness.Accounts = model.MergeAccounts(illness.Accounts, accounts)
	m.illnesses[id] = illness
	return &illness, nil
}

// Migrate is a no-op for in-memory storage.
func (m *MemoryStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op for in-memory storage.
func (m *MemoryStorage) Close() error { return nil }
