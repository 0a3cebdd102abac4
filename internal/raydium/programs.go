package raydium

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// Mainnet program and mint addresses
const (
	AmmV4ProgramAddress    = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	AuthorityV4Address     = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	OpenBookProgramAddress = "srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"
	TokenProgramAddress    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	WrappedSOLMintAddress  = "So11111111111111111111111111111111111111112"
	WrappedSOLDecimals     = 9
)

// Programs holds the fixed addresses a swap touches. Tests and devnet
// deployments can override them.
type Programs struct {
	AmmV4        solana.PublicKey
	AuthorityV4  solana.PublicKey
	OpenBook     solana.PublicKey
	TokenProgram solana.PublicKey
	WrappedSOL   solana.PublicKey
}

// DefaultPrograms returns the mainnet addresses.
func DefaultPrograms() Programs {
	return Programs{
		AmmV4:        solana.MustPublicKeyFromBase58(AmmV4ProgramAddress),
		AuthorityV4:  solana.MustPublicKeyFromBase58(AuthorityV4Address),
		OpenBook:     solana.MustPublicKeyFromBase58(OpenBookProgramAddress),
		TokenProgram: solana.MustPublicKeyFromBase58(TokenProgramAddress),
		WrappedSOL:   solana.MustPublicKeyFromBase58(WrappedSOLMintAddress),
	}
}

// LoadPrograms reads program overrides from a YAML file of the form
//
//	programs:
//	  amm_v4: 675kPX9...
//	  openbook: srmqPv...
//
// Keys that are absent keep their mainnet value. An empty path returns the
// defaults.
func LoadPrograms(path string) (Programs, error) {
	p := DefaultPrograms()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read programs file: %w", err)
	}

	var file struct {
		Programs map[string]string `yaml:"programs"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("failed to parse programs YAML: %w", err)
	}

	targets := map[string]*solana.PublicKey{
		"amm_v4":        &p.AmmV4,
		"authority_v4":  &p.AuthorityV4,
		"openbook":      &p.OpenBook,
		"token_program": &p.TokenProgram,
		"wsol":          &p.WrappedSOL,
	}
	for name, addr := range file.Programs {
		dst, ok := targets[name]
		if !ok {
			return p, fmt.Errorf("unknown program %q in %s", name, path)
		}
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return p, fmt.Errorf("program %q: invalid address %q: %w", name, addr, err)
		}
		*dst = pk
	}

	return p, nil
}
