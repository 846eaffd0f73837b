package util

// EthereumAddressesToStrings converts a slice of EthereumAddress to their lowercase hex string representation.
func EthereumAddressesToStrings(addrs []EthereumAddress) []string {
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.Address()
	}
	return strs
}

// EthereumAddressesFromStrings parses a slice of hex strings, failing on the
// first invalid entry.
func EthereumAddressesFromStrings(strs []string) ([]EthereumAddress, error) {
	addrs := make([]EthereumAddress, len(strs))
	for i, s := range strs {
		a, err := NewEthereumAddressFromString(s)
		if err != nil {
			return nil, err
		}
		addrs[i] = a
	}
	return addrs, nil
}
