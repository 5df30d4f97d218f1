// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

// Storage defines the contract for our persistence layer. All matching and
// lifecycle operations load collections fully into memory; there is no
// pagination.
type Storage interface {
	// Document operations
	SaveDocuments(ctx context.Context, documents []model.Document) error
	GetAllDocuments(ctx context.Context) ([]model.Document, error)
	GetDocumentByID(ctx context.Context, id string) (*model.Document, error)

	// Claim operations
	SaveClaims(ctx context.Context, claims []model.Claim) error
	GetAllClaims(ctx context.Context) ([]model.Claim, error)
	GetClaimByID(ctx context.Context, id string) (*model.Claim, error)

	// Assignment operations. At most one assignment exists per
	// (document, claim) pair; SaveAssignment surfaces a violation as
	// common.ErrDuplicateEntry.
	SaveAssignment(ctx context.Context, assignment *model.Assignment) error
	UpdateAssignment(ctx context.Context, assignment *model.Assignment) error
	GetAllAssignments(ctx context.Context) ([]model.Assignment, error)
	GetAssignmentByID(ctx context.Context, id string) (*model.Assignment, error)
	GetAssignmentByPair(ctx context.Context, documentID, claimID string) (*model.Assignment, error)
	GetAssignmentsForDocument(ctx context.Context, documentID string) ([]model.Assignment, error)
	ClearCandidateAssignments(ctx context.Context, documentID string) error

	// Draft claim operations
	SaveDraftClaim(ctx context.Context, draft *model.DraftClaim) error
	UpdateDraftClaim(ctx context.Context, draft *model.DraftClaim) error
	GetAllDraftClaims(ctx context.Context) ([]model.DraftClaim, error)
	GetDraftClaimByID(ctx context.Context, id string) (*model.DraftClaim, error)

	// Illness operations
	SaveIllness(ctx context.Context, illness *model.Illness) error
	GetIllnessByID(ctx context.Context, id string) (*model.Illness, error)
	MergeIllnessAccounts(ctx context.Context, id string, accounts []model.ProviderAccount) (*model.Illness, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
