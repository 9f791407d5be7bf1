// Package fixtures holds the sample bills used by tests and by the --seed flag.
package fixtures

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/billed/internal/domain/entity"
)

// Email is the owner of every fixture bill
const Email = "a@a"

//go:embed bills.yaml
var billsYAML []byte

type document struct {
	Bills []entity.Bill `yaml:"bills"`
}

// Bills returns a fresh copy of the fixture bills
func Bills() []entity.Bill {
	bills, err := Parse(billsYAML)
	if err != nil {
		panic(fmt.Sprintf("fixtures: %v", err))
	}
	return bills
}

// Parse decodes a bills document
func Parse(data []byte) ([]entity.Bill, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bills: %w", err)
	}
	return doc.Bills, nil
}
