package identity

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/log"
	models "github.com/votebridge/VoteBridge/internal/models"
)

// ErrIdentityMappingBroken is returned when a ledger native identifier
// cannot be tied to any local candidate, not even by position.
var ErrIdentityMappingBroken = errors.New("ledger identity cannot be mapped to a local candidate")

// Mapper resolves ledger native candidate identifiers back to local
// candidates. After a ledger redeploy the stored identifiers go stale,
// the mapper then falls back to provisioning position and repairs the
// stored identifier.
type Mapper struct {
	candidates repositories.CandidateRepository
}

func NewMapper(candidates repositories.CandidateRepository) *Mapper {
	return &Mapper{candidates: candidates}
}

func (mapper *Mapper) ResolveCandidate(electionId uint, kind ledger.Kind, nativeId uint64) (*models.Candidate, error) {
	candidate, err := mapper.candidates.GetCandidateByNativeId(electionId, kind, nativeId)
	if err == nil {
		return candidate, nil
	}

	if !errors.Is(err, repositories.ErrCandidateNotFound) {
		return nil, err
	}

	return mapper.resolveByPosition(electionId, kind, nativeId)
}

// resolveByPosition matches the native identifier against provisioning
// positions. Ledgers hand out sequential candidate identifiers starting
// at 1, so after a redeploy the fresh identifiers line up with the
// order candidates were provisioned in.
func (mapper *Mapper) resolveByPosition(electionId uint, kind ledger.Kind, nativeId uint64) (*models.Candidate, error) {
	candidates, err := mapper.candidates.GetCandidatesByProvisionOrder(electionId)
	if err != nil {
		return nil, err
	}

	if nativeId == 0 || nativeId > uint64(len(candidates)) {
		log.Warn("ledger identity outside positional range",
			zap.Uint("electionId", electionId),
			zap.String("kind", string(kind)),
			zap.Uint64("nativeId", nativeId),
			zap.Int("candidates", len(candidates)))
		return nil, ErrIdentityMappingBroken
	}

	candidate := candidates[nativeId-1]

	position := candidate.ProvisionOrder
	if position == 0 {
		position = uint(nativeId)
	}

	err = mapper.candidates.SetNativeId(candidate.Id, kind, nativeId, position)
	if err != nil {
		return nil, err
	}

	candidate.SetNativeId(kind, nativeId)

	log.Warn("repaired drifted candidate identity",
		zap.Uint("electionId", electionId),
		zap.Uint("candidateId", candidate.Id),
		zap.String("kind", string(kind)),
		zap.Uint64("nativeId", nativeId))

	return candidate, nil
}
