package vmmap

import "os"

// Read returns the current process's mappings.
func Read() ([]Region, error) {
	data, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}
