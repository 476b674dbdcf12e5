package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tokenstake/deployments/internal/jsonutils"
)

const (
	// DeployedAddressesFile holds a flat futureID -> address map, the format Hardhat Ignition
	// writes, so existing tooling can read it.
	DeployedAddressesFile = "deployed_addresses.json"
	// AddressRefsFile holds the full AddressRef records.
	AddressRefsFile = "address_refs.json"
	// JournalFile holds the operation reports of the chain.
	JournalFile = "journal.json"
)

// FileStore is a MemoryAddressRefStore for a single chain that is loaded from and saved to
// <root>/chain-<chainID>/.
type FileStore struct {
	*MemoryAddressRefStore

	dir string
}

// OpenFileStore loads the records of chainID below root. A missing directory is an empty store.
func OpenFileStore(root string, chainID uint64) (*FileStore, error) {
	dir := ChainDir(root, chainID)

	records, err := jsonutils.LoadFileOrZero[[]AddressRef](filepath.Join(dir, AddressRefsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore for chain %d: %w", chainID, err)
	}

	mem := NewMemoryAddressRefStore()
	for _, r := range records {
		if err = mem.Upsert(r); err != nil {
			return nil, fmt.Errorf("failed to load address ref %s: %w", r.Key(), err)
		}
	}

	return &FileStore{MemoryAddressRefStore: mem, dir: dir}, nil
}

// ChainDir returns the directory holding the files of chainID.
func ChainDir(root string, chainID uint64) string {
	return filepath.Join(root, "chain-"+strconv.FormatUint(chainID, 10))
}

// Dir returns the chain directory of the store.
func (s *FileStore) Dir() string { return s.dir }

// JournalPath returns the path of the operation reports file next to the records.
func (s *FileStore) JournalPath() string {
	return filepath.Join(s.dir, JournalFile)
}

// DeployedAddresses returns the futureID -> address map.
func (s *FileStore) DeployedAddresses() map[string]string {
	records := s.Filter()
	out := make(map[string]string, len(records))
	for _, r := range records {
		out[r.FutureID] = r.Address
	}

	return out
}

// Save writes the records and the deployed addresses map.
func (s *FileStore) Save() error {
	records, err := s.Fetch()
	if err != nil {
		return err
	}

	if err = jsonutils.WriteFile(filepath.Join(s.dir, AddressRefsFile), records); err != nil {
		return fmt.Errorf("failed to save address refs: %w", err)
	}

	if err = jsonutils.WriteFile(filepath.Join(s.dir, DeployedAddressesFile), s.DeployedAddresses()); err != nil {
		return fmt.Errorf("failed to save deployed addresses: %w", err)
	}

	return nil
}

// Reset removes every record and file of the chain.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	s.Records = []AddressRef{}
	s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to reset %s: %w", s.dir, err)
	}

	return nil
}
