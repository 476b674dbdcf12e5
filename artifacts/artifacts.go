// Package artifacts loads compiled contract artifacts in the Hardhat format.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrAmbiguousArtifact = errors.New("more than one artifact with the same contract name")
	ErrNoBytecode        = errors.New("artifact has no bytecode")
)

// Artifact is a compiled contract as written by `hardhat compile` under
// artifacts/contracts/<Source>.sol/<Contract>.json.
type Artifact struct {
	Format           string          `json:"_format,omitempty"`
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	RawABI           json.RawMessage `json:"abi"`
	RawBytecode      string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`
}

// ABI parses the contract ABI.
func (a *Artifact) ABI() (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.RawABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("artifact %s: failed to parse abi: %w", a.ContractName, err)
	}

	return parsed, nil
}

// Bytecode decodes the creation bytecode.
func (a *Artifact) Bytecode() ([]byte, error) {
	raw := strings.TrimSpace(a.RawBytecode)
	if raw == "" || raw == "0x" {
		return nil, fmt.Errorf("artifact %s: %w", a.ContractName, ErrNoBytecode)
	}
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}

	code, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: failed to decode bytecode: %w", a.ContractName, err)
	}

	return code, nil
}

// Load finds the artifact of contractName in fsys. Debug files (*.dbg.json) and build-info
// directories are skipped.
//
// contractName is either a bare name or a fully qualified name "<sourceName>:<name>", such as
// "contracts/Foo.sol:Foo". A fully qualified name is read from <sourceName>/<name>.json and
// never ambiguous.
func Load(fsys fs.FS, contractName string) (*Artifact, error) {
	if source, name, ok := SplitFullyQualifiedName(contractName); ok {
		return loadQualified(fsys, source, name)
	}

	want := contractName + ".json"

	var matches []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return fs.SkipDir
			}

			return nil
		}
		if path.Base(p) == want {
			matches = append(matches, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk artifacts: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, contractName)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrAmbiguousArtifact, contractName, strings.Join(matches, ", "))
	}

	return ReadFile(fsys, matches[0])
}

// SplitFullyQualifiedName splits "<sourceName>:<name>". It reports false for bare names.
func SplitFullyQualifiedName(contractName string) (string, string, bool) {
	i := strings.LastIndex(contractName, ":")
	if i <= 0 || i == len(contractName)-1 {
		return "", "", false
	}

	return contractName[:i], contractName[i+1:], true
}

func loadQualified(fsys fs.FS, source, name string) (*Artifact, error) {
	fqn := source + ":" + name

	a, err := ReadFile(fsys, path.Join(source, name+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, fqn)
	}
	if err != nil {
		return nil, err
	}
	if a.SourceName != "" && a.SourceName != source {
		return nil, fmt.Errorf("%w: %s (artifact source is %s)", ErrArtifactNotFound, fqn, a.SourceName)
	}

	return a, nil
}

// ReadFile reads and decodes a single artifact file.
func ReadFile(fsys fs.FS, name string) (*Artifact, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var a Artifact
	if err = json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", name, err)
	}
	if a.ContractName == "" {
		a.ContractName = strings.TrimSuffix(path.Base(name), ".json")
	}

	return &a, nil
}
