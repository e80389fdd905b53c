package device

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of the devices file.
type File struct {
	Devices []Descriptor `yaml:"devices"`
}

// LoadDescriptors reads and validates a devices file.
//
// Example file:
//
//	devices:
//	  - key: partition-1
//	    name: Ballroom Partition
//	    type: glspartcn
//	    control:
//	      cresnet_id: 0x97
//	      parent_key: hub-1
//	      branch_index: 2
//	    properties:
//	      sensitivity: 6
//	      enableSensor: true
//
// Parameters:
//   - path: Path to the YAML devices file
//
// Returns:
//   - []Descriptor: Descriptors in file order
//   - error: If the file cannot be read, parsed, or validation fails
func LoadDescriptors(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading devices file: %w", err)
	}
	return ParseDescriptors(data)
}

// ParseDescriptors parses and validates devices YAML.
func ParseDescriptors(data []byte) ([]Descriptor, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing devices file: %w", err)
	}

	for i := range f.Devices {
		f.Devices[i].Type = strings.ToLower(strings.TrimSpace(f.Devices[i].Type))
	}

	if err := ValidateDescriptors(f.Devices); err != nil {
		return nil, err
	}
	return f.Devices, nil
}

// ValidateDescriptors checks every descriptor and reports all problems at once.
func ValidateDescriptors(descs []Descriptor) error {
	var errs []string
	seen := make(map[string]int, len(descs))

	for i, d := range descs {
		if d.Key == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].key is required", i))
		} else {
			k := strings.ToLower(d.Key)
			if j, dup := seen[k]; dup {
				errs = append(errs, fmt.Sprintf("devices[%d].key %q duplicates devices[%d]", i, d.Key, j))
			}
			seen[k] = i
		}
		if d.Type == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].type is required", i))
		}
		if err := d.Control.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("devices[%d].control: %v", i, err))
		}
		if !d.Control.IsRoot() && strings.EqualFold(d.Control.ParentKey, d.Key) {
			errs = append(errs, fmt.Sprintf("devices[%d].control.parent_key cannot name itself", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDevice, strings.Join(errs, "; "))
	}
	return nil
}
