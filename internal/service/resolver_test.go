package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceline/karting-api/internal/domain"
)

type fakeResolverRepo struct {
	linked []domain.User
}

func (f *fakeResolverRepo) FindLinkedByDriverName(_ context.Context, driverName string) ([]domain.User, error) {
	var matches []domain.User
	for _, user := range f.linked {
		if strings.EqualFold(user.KartingLink.DriverName, driverName) {
			matches = append(matches, user)
		}
	}

	return matches, nil
}

func (f *fakeResolverRepo) FindAllLinked(_ context.Context) ([]domain.User, error) {
	return f.linked, nil
}

func resolverWith(users ...domain.User) *ResolverService {
	return NewResolverService(&fakeResolverRepo{linked: users})
}

func TestResolverService_ResolveCandidates_EmptyName(t *testing.T) {
	svc := resolverWith()

	_, err := svc.ResolveCandidates(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyDriverName)
}

func TestResolverService_ResolveCandidates_ExactMatchConfirmed(t *testing.T) {
	svc := resolverWith(linkedUser(1, "Diego R"), linkedUser(2, "Marta V"))

	candidates, err := svc.ResolveCandidates(context.Background(), "diego r")
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, uint(1), candidates[0].User.ID)
	assert.Equal(t, domain.ConfidenceConfirmed, candidates[0].Confidence)
}

func TestResolverService_ResolveCandidates_MultipleExactIsConflict(t *testing.T) {
	// Two accounts holding the same name should be impossible, but the
	// resolver must still surface it instead of picking one.
	svc := resolverWith(linkedUser(1, "Diego R"), linkedUser(2, "diego r"))

	candidates, err := svc.ResolveCandidates(context.Background(), "Diego R")
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	for _, candidate := range candidates {
		assert.Equal(t, domain.ConfidenceConflict, candidate.Confidence)
	}
}

func TestResolverService_ResolveCandidates_FuzzyConfidence(t *testing.T) {
	svc := resolverWith(linkedUser(1, "Diego R"))

	// One character out: likely.
	candidates, err := svc.ResolveCandidates(context.Background(), "Dego R")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint(1), candidates[0].User.ID)
	assert.Equal(t, domain.ConfidenceLikely, candidates[0].Confidence)

	// Far from the name: still a candidate, but only possible.
	candidates, err = svc.ResolveCandidates(context.Background(), "Dgo")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.ConfidencePossible, candidates[0].Confidence)
}

func TestResolverService_ResolveCandidates_NoMatchIsEmpty(t *testing.T) {
	svc := resolverWith(linkedUser(1, "Diego R"))

	candidates, err := svc.ResolveCandidates(context.Background(), "Xavier Q")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestResolverService_ResolveCandidates_PreviousNameDedupes(t *testing.T) {
	user := linkedUser(1, "Diego Ramirez")
	user.KartingLink.PreviousDriverName = "Diego R"
	svc := resolverWith(user)

	// The query matches both the current and the historical name; the
	// account surfaces once.
	candidates, err := svc.ResolveCandidates(context.Background(), "Diego")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint(1), candidates[0].User.ID)
}

func TestResolverService_ResolveCandidates_CapsCandidates(t *testing.T) {
	users := []domain.User{
		linkedUser(1, "Diego R"),
		linkedUser(2, "Diego M"),
		linkedUser(3, "Diego V"),
		linkedUser(4, "Diego K"),
		linkedUser(5, "Diego T"),
		linkedUser(6, "Diego W"),
		linkedUser(7, "Diego Z"),
	}
	svc := resolverWith(users...)

	candidates, err := svc.ResolveCandidates(context.Background(), "Diego")
	require.NoError(t, err)
	assert.Len(t, candidates, maxFuzzyCandidates)
}
