package models

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

var ErrUnknownModel = errors.New("unknown model")

var builders = map[string]func() (*hmm.MarkovModel, error){
	"casino": func() (*hmm.MarkovModel, error) {
		c, err := NewCasino()
		if err != nil {
			return nil, err
		}
		return c.Model, nil
	},
	"edit-dna": func() (*hmm.MarkovModel, error) {
		e, err := NewEdit(DefaultEditConfig())
		if err != nil {
			return nil, err
		}
		return e.Model, nil
	},
	"edit-dna-silent": func() (*hmm.MarkovModel, error) {
		cfg := DefaultEditConfig()
		cfg.SilentEnds = true
		e, err := NewEdit(cfg)
		if err != nil {
			return nil, err
		}
		return e.Model, nil
	},
}

// Names. names accepted by Build, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Build(name string) (*hmm.MarkovModel, error) {
	build, ok := builders[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "%q", name)
	}
	return build()
}
