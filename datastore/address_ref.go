package datastore

import (
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrAddressRefNotFound = errors.New("no address ref record can be found for the provided key")
	ErrAddressRefExists   = errors.New("an address ref with the supplied key already exists")
	ErrInvalidAddressRef  = errors.New("invalid address ref")
)

// AddressRef records the deployment of a single module future on a chain.
type AddressRef struct {
	// ChainSelector is zero for chains unknown to chain-selectors. Records are kept per chain
	// ID directory, so the key stays unique.
	ChainSelector uint64 `json:"chainSelector"`
	// FutureID is "<ModuleID>#<local id>".
	FutureID     string `json:"futureId"`
	ModuleID     string `json:"moduleId"`
	ContractName string `json:"contractName"`
	Address      string `json:"address"`
	TxHash       string `json:"txHash"`
	BlockNumber  uint64 `json:"blockNumber"`
	// Calldata is the ABI packed constructor arguments, used to detect changed arguments.
	Calldata hexutil.Bytes `json:"calldata"`
	// Version is the version of the operation which deployed the contract.
	Version    *semver.Version `json:"version"`
	DeployedAt time.Time       `json:"deployedAt"`
	// Forced is set when the deployment replaced an earlier one on purpose.
	Forced bool `json:"forced,omitempty"`
}

// Key returns the primary key of the record.
func (r AddressRef) Key() AddressRefKey {
	return NewAddressRefKey(r.ChainSelector, r.FutureID)
}

// Validate checks the required fields.
func (r AddressRef) Validate() error {
	var errs []error
	if r.FutureID == "" {
		errs = append(errs, errors.New("future id is required"))
	}
	if !common.IsHexAddress(r.Address) {
		errs = append(errs, fmt.Errorf("address %q is not a hex address", r.Address))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidAddressRef, errors.Join(errs...))
	}

	return nil
}

// Clone returns a deep copy of the record.
func (r AddressRef) Clone() AddressRef {
	c := r
	if r.Calldata != nil {
		c.Calldata = append(hexutil.Bytes{}, r.Calldata...)
	}
	if r.Version != nil {
		v := *r.Version
		c.Version = &v
	}

	return c
}

// AddressRefKey uniquely identifies an AddressRef.
type AddressRefKey interface {
	Comparable[AddressRefKey]
	fmt.Stringer

	ChainSelector() uint64
	FutureID() string
}

var _ AddressRefKey = addressRefKey{}

type addressRefKey struct {
	chainSelector uint64
	futureID      string
}

func (k addressRefKey) ChainSelector() uint64 { return k.chainSelector }

func (k addressRefKey) FutureID() string { return k.futureID }

// Equals returns true if the two keys point at the same record.
func (k addressRefKey) Equals(other AddressRefKey) bool {
	return k.chainSelector == other.ChainSelector() && k.futureID == other.FutureID()
}

func (k addressRefKey) String() string {
	return fmt.Sprintf("%d/%s", k.chainSelector, k.futureID)
}

// NewAddressRefKey creates a new AddressRefKey.
func NewAddressRefKey(chainSelector uint64, futureID string) AddressRefKey {
	return addressRefKey{chainSelector: chainSelector, futureID: futureID}
}
