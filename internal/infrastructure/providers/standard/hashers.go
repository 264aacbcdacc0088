package standard

import (
	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
)

func (p *Provider) hasherAlgorithm(name string) func() (*algorithm.Algorithm, error) {
	return func() (*algorithm.Algorithm, error) {
		alg, err := algorithm.New(name)
		if err != nil {
			return nil, err
		}

		hasher, err := algorithm.NewHasherBuilder[string](name).
			Initializer(func() (string, error) { return name, nil }).
			Hash(func(digest string, data []byte) (string, error) {
				return p.digest.Digest(digest, data)
			}).
			Build()
		if err != nil {
			return nil, err
		}

		if err := alg.AttachHasher(hasher); err != nil {
			return nil, err
		}
		return alg, nil
	}
}
