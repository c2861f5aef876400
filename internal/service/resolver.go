package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/raceline/karting-api/internal/domain"
)

var ErrEmptyDriverName = errors.New("driver name must not be empty")

const (
	// likelyMaxDistance is the largest edit distance still reported as a
	// "likely" match; anything above is only "possible".
	likelyMaxDistance = 2

	maxFuzzyCandidates = 5
)

type ResolverUserRepository interface {
	FindLinkedByDriverName(ctx context.Context, driverName string) ([]domain.User, error)
	FindAllLinked(ctx context.Context) ([]domain.User, error)
}

// ResolverService ranks registered accounts against a free-text driver
// name from the timing system. It is a pure read: it never writes a
// link, and anything short of a single exact match goes to a human.
type ResolverService struct {
	userRepo ResolverUserRepository
}

func NewResolverService(userRepo ResolverUserRepository) *ResolverService {
	return &ResolverService{
		userRepo: userRepo,
	}
}

// ResolveCandidates returns match candidates for a driver name, best
// first. Exactly one exact (case-insensitive) match against a linked
// account yields a single "confirmed" candidate; two or more exact
// matches are each surfaced as "conflict" and never auto-resolved.
// Otherwise fuzzy matches against current and historical linked names
// are returned as "likely"/"possible". No match is an empty slice, not
// an error.
func (s *ResolverService) ResolveCandidates(ctx context.Context, driverName string) ([]domain.MatchCandidate, error) {
	name := strings.TrimSpace(driverName)
	if name == "" {
		return nil, ErrEmptyDriverName
	}

	exact, err := s.userRepo.FindLinkedByDriverName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindLinkedByDriverName -> %w", err)
	}

	if len(exact) == 1 {
		return []domain.MatchCandidate{{
			User:       exact[0],
			Confidence: domain.ConfidenceConfirmed,
			Evidence:   fmt.Sprintf("exact match on linked driver name %q", exact[0].KartingLink.DriverName),
		}}, nil
	}

	if len(exact) > 1 {
		// Broken invariant or duplicate real-world names: surface every
		// holder for manual disambiguation.
		candidates := make([]domain.MatchCandidate, 0, len(exact))
		for _, user := range exact {
			candidates = append(candidates, domain.MatchCandidate{
				User:       user,
				Confidence: domain.ConfidenceConflict,
				Evidence:   fmt.Sprintf("%d linked accounts claim driver name %q", len(exact), name),
			})
		}

		return candidates, nil
	}

	return s.fuzzyCandidates(ctx, name)
}

func (s *ResolverService) fuzzyCandidates(ctx context.Context, name string) ([]domain.MatchCandidate, error) {
	linked, err := s.userRepo.FindAllLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindAllLinked -> %w", err)
	}

	// Corpus: every linked account's current name plus the historical
	// variant kept from its last re-link.
	var targets []string
	owners := make([]domain.User, 0, len(linked))
	for _, user := range linked {
		targets = append(targets, user.KartingLink.DriverName)
		owners = append(owners, user)
		if user.KartingLink.PreviousDriverName != "" {
			targets = append(targets, user.KartingLink.PreviousDriverName)
			owners = append(owners, user)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(name, targets)
	sort.Sort(ranks)

	seen := make(map[uint]bool)
	candidates := make([]domain.MatchCandidate, 0, maxFuzzyCandidates)
	for _, rank := range ranks {
		owner := owners[rank.OriginalIndex]
		if seen[owner.ID] {
			continue
		}
		seen[owner.ID] = true

		confidence := domain.ConfidencePossible
		if rank.Distance <= likelyMaxDistance {
			confidence = domain.ConfidenceLikely
		}

		candidates = append(candidates, domain.MatchCandidate{
			User:       owner,
			Confidence: confidence,
			Evidence:   fmt.Sprintf("fuzzy match against %q (distance %d)", rank.Target, rank.Distance),
		})

		if len(candidates) == maxFuzzyCandidates {
			break
		}
	}

	return candidates, nil
}
