package datastore

import "strings"

// Default filters for AddressRef records. They compose:
//
//	records := store.Filter(AddressRefByChainSelector(sel), AddressRefByModule("StakingModule"))
var (
	_ FilterFunc[AddressRefKey, AddressRef] = AddressRefByChainSelector(0)
	_ FilterFunc[AddressRefKey, AddressRef] = AddressRefByModule("")
)

func addressRefFilter(predicate func(record AddressRef) bool) FilterFunc[AddressRefKey, AddressRef] {
	return func(records []AddressRef) []AddressRef {
		filtered := make([]AddressRef, 0, len(records))
		for _, record := range records {
			if predicate(record) {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}

// AddressRefByChainSelector keeps records of the given chain.
func AddressRefByChainSelector(chainSelector uint64) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.ChainSelector == chainSelector
	})
}

// AddressRefByModule keeps records deployed by the given module.
func AddressRefByModule(moduleID string) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.ModuleID == moduleID
	})
}

// AddressRefByContract keeps records of the given contract name.
func AddressRefByContract(contractName string) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.ContractName == contractName
	})
}

// AddressRefByAddress keeps records with the given address, compared case-insensitively.
func AddressRefByAddress(address string) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return strings.EqualFold(record.Address, address)
	})
}
