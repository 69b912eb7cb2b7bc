package ingest

import (
	"fmt"

	"github.com/openfinality/chainquery/consensus"
	"github.com/openfinality/chainquery/types"
)

// PairCertificates reassembles justified leaves from a decide. The chain
// arrives newest first and each leaf's embedded certificate vouches for its
// parent, so the certificate justifying leaf i is carried by leaf i-1, and
// the newest leaf is justified by the finalizing certificate itself. The
// certificate that the oldest leaf carries points below the chain and is
// discarded.
//
// Records come back in ascending view order. An empty chain yields an empty
// batch. If any pairing fails validation the whole batch is rejected with
// types.ErrInconsistentLeaf.
func PairCertificates(finalizing consensus.Certificate, leafChain []consensus.LeafInfo) ([]*types.LeafRecord, error) {
	records := make([]*types.LeafRecord, 0, len(leafChain))
	for i := len(leafChain) - 1; i >= 0; i-- {
		var cert consensus.Certificate
		if i == 0 {
			cert = finalizing
		} else {
			cert = leafChain[i-1].Leaf.Justify
		}
		rec, err := types.NewLeafRecord(leafChain[i].Leaf, cert)
		if err != nil {
			return nil, fmt.Errorf("failed to pair leaf at view %d: %w", leafChain[i].Leaf.View, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
