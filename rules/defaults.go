package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// DefaultVersion tags the bundled rule set seeded when durable storage is
// empty or unreachable.
const DefaultVersion = "NGAP_2024"

//go:embed ngap_2024.json
var ngap2024JSON []byte

// DefaultRules returns a fresh copy of the bundled NGAP 2024 rule list.
// The bundle ships inside the binary so the engine stays usable with no
// storage reachable at all.
func DefaultRules() []Rule {
	var out []Rule
	if err := json.Unmarshal(ngap2024JSON, &out); err != nil {
		// The bundle is embedded at build time; a decode failure is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("rules: embedded default rule set is invalid: %v", err))
	}
	return out
}

// DefaultRuleSet wraps DefaultRules with the default version tag.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{Version: DefaultVersion, Rules: DefaultRules()}
}
