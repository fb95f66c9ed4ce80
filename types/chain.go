package types

import (
	"fmt"
	"sort"
	"strings"
)

// Chain names the settlement blockchain associated with a sender address.
type Chain string

const (
	ChainArbitrum   Chain = "ARB"
	ChainAurora     Chain = "AURORA"
	ChainAvax       Chain = "AVAX"
	ChainBase       Chain = "BASE"
	ChainBlast      Chain = "BLAST"
	ChainBob        Chain = "BOB"
	ChainBSC        Chain = "BSC"
	ChainCosmos     Chain = "CSDK"
	ChainCyber      Chain = "CYBER"
	ChainPolkadot   Chain = "DOT"
	ChainEclipse    Chain = "ES"
	ChainEthereum   Chain = "ETH"
	ChainEtherlink  Chain = "ETHERLINK"
	ChainFraxtal    Chain = "FRAX"
	ChainHype       Chain = "HYPE"
	ChainInk        Chain = "INK"
	ChainLens       Chain = "LENS"
	ChainLinea      Chain = "LINEA"
	ChainLisk       Chain = "LISK"
	ChainMetis      Chain = "METIS"
	ChainMode       Chain = "MODE"
	ChainNeo        Chain = "NEO"
	ChainNuls       Chain = "NULS"
	ChainNuls2      Chain = "NULS2"
	ChainOptimism   Chain = "OP"
	ChainPolygon    Chain = "POL"
	ChainSolana     Chain = "SOL"
	ChainSomnia     Chain = "STT"
	ChainSonic      Chain = "SONIC"
	ChainTezos      Chain = "TEZOS"
	ChainUnichain   Chain = "UNICHAIN"
	ChainWorldchain Chain = "WLD"
	ChainZora       Chain = "ZORA"
)

var chains = map[Chain]bool{
	ChainArbitrum: true, ChainAurora: true, ChainAvax: true, ChainBase: true, ChainBlast: true,
	ChainBob: true, ChainBSC: true, ChainCosmos: false, ChainCyber: true, ChainPolkadot: false,
	ChainEclipse: false, ChainEthereum: true, ChainEtherlink: true, ChainFraxtal: true, ChainHype: true,
	ChainInk: true, ChainLens: true, ChainLinea: true, ChainLisk: true, ChainMetis: true,
	ChainMode: true, ChainNeo: false, ChainNuls: false, ChainNuls2: false, ChainOptimism: true,
	ChainPolygon: true, ChainSolana: false, ChainSomnia: true, ChainSonic: true, ChainTezos: false,
	ChainUnichain: true, ChainWorldchain: true, ChainZora: true,
}

// ParseChain accepts a chain tag in any case.
func ParseChain(s string) (Chain, error) {
	c := Chain(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := chains[c]; !ok {
		return "", fmt.Errorf("types: unknown chain %q", s)
	}
	return c, nil
}

// Valid reports whether c is a known chain tag.
func (c Chain) Valid() bool {
	_, ok := chains[c]
	return ok
}

// IsEVM reports whether addresses on c use the 0x-prefixed, EIP-55 form.
func (c Chain) IsEVM() bool { return chains[c] }

func (c Chain) String() string { return string(c) }

func (c *Chain) UnmarshalText(b []byte) error {
	parsed, err := ParseChain(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Chains returns every known chain tag, sorted.
func Chains() []Chain {
	out := make([]Chain, 0, len(chains))
	for c := range chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
