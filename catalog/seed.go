package catalog

import "github.com/poiesic/rankit/core"

// seed is the built-in catalog. Default hands out fresh copies.
var seed = []Entry{
	{
		ID:          "ethereum/go-ethereum",
		Name:        "go-ethereum",
		URL:         "https://github.com/ethereum/go-ethereum",
		Language:    "Go",
		Description: "Official Go implementation of the Ethereum protocol",
		Tags:        []string{"blockchain", "ethereum", "go", "client", "node"},
		Synergy:     []string{"blockchain_core", "ethereum_ecosystem", "defi_foundation"},
		Features: features(0.95, 0.92, 0.7, criteria{
			innovation: 0.9, stability: 0.95, community: 0.85, security: 0.9, documentation: 0.8,
		}),
	},
	{
		ID:          "ConsenSys/mythril",
		Name:        "mythril",
		URL:         "https://github.com/ConsenSys/mythril",
		Language:    "Python",
		Description: "Symbolic execution security analysis tool for EVM bytecode",
		Tags:        []string{"security", "audit", "ethereum", "solidity", "smart-contract"},
		Synergy:     []string{"smart_contract_security", "vulnerability_analysis", "audit_tools"},
		Features: features(0.88, 0.87, 0.5, criteria{
			innovation: 0.85, stability: 0.8, community: 0.75, security: 0.95, documentation: 0.85,
		}),
	},
	{
		ID:          "crytic/slither",
		Name:        "slither",
		URL:         "https://github.com/crytic/slither",
		Language:    "Python",
		Description: "Static analyzer for Solidity and Vyper smart contracts",
		Tags:        []string{"security", "audit", "solidity", "static-analysis", "smart-contract"},
		Synergy:     []string{"static_analysis", "solidity_security", "vulnerability_detection"},
		Features: features(0.89, 0.86, 0.4, criteria{
			innovation: 0.88, stability: 0.85, community: 0.8, security: 0.92, documentation: 0.8,
		}),
	},
	{
		ID:          "OpenZeppelin/openzeppelin-contracts",
		Name:        "openzeppelin-contracts",
		URL:         "https://github.com/OpenZeppelin/openzeppelin-contracts",
		Language:    "Solidity",
		Description: "Library of secure, reusable smart contracts",
		Tags:        []string{"solidity", "library", "security", "smart-contract", "defi", "ethereum"},
		Synergy:     []string{"smart_contract_foundation", "security_standards", "defi_building_blocks"},
		Features: features(0.93, 0.94, 0.3, criteria{
			innovation: 0.85, stability: 0.95, community: 0.9, security: 0.98, documentation: 0.95,
		}),
	},
	{
		ID:          "langchain-ai/langchain",
		Name:        "langchain",
		URL:         "https://github.com/langchain-ai/langchain",
		Language:    "Python",
		Description: "Framework for building applications with large language models",
		Tags:        []string{"ai", "llm", "framework", "agents", "python"},
		Synergy:     []string{"ai_workflows", "consciousness_enhancement", "language_processing"},
		Features: features(0.91, 0.89, 0.6, criteria{
			innovation: 0.95, stability: 0.8, community: 0.85, security: 0.75, documentation: 0.9,
		}),
	},
	{
		ID:          "microsoft/semantic-kernel",
		Name:        "semantic-kernel",
		URL:         "https://github.com/microsoft/semantic-kernel",
		Language:    "C#",
		Description: "SDK for integrating large language models into applications",
		Tags:        []string{"ai", "llm", "sdk", "orchestration"},
		Synergy:     []string{"ai_orchestration", "semantic_understanding", "consciousness_alignment"},
		Features: features(0.87, 0.85, 0.65, criteria{
			innovation: 0.9, stability: 0.85, community: 0.8, security: 0.85, documentation: 0.88,
		}),
	},
	{
		ID:          "OWASP/CheatSheetSeries",
		Name:        "CheatSheetSeries",
		URL:         "https://github.com/OWASP/CheatSheetSeries",
		Language:    "Markdown",
		Description: "Concise application security guidance on specific topics",
		Tags:        []string{"security", "documentation", "guide", "owasp", "best-practices"},
		Synergy:     []string{"security_knowledge", "best_practices", "vulnerability_prevention"},
		Features: features(0.85, 0.83, 0.2, criteria{
			innovation: 0.7, stability: 0.9, community: 0.95, security: 0.98, documentation: 0.95,
		}),
	},
	{
		ID:          "trufflesecurity/trufflehog",
		Name:        "trufflehog",
		URL:         "https://github.com/trufflesecurity/trufflehog",
		Language:    "Go",
		Description: "Find, verify and analyze leaked credentials",
		Tags:        []string{"security", "secrets", "scanner", "go", "git"},
		Synergy:     []string{"secret_detection", "security_scanning", "vulnerability_prevention"},
		Features: features(0.82, 0.81, 0.4, criteria{
			innovation: 0.8, stability: 0.85, community: 0.75, security: 0.92, documentation: 0.8,
		}),
	},
}

type criteria struct {
	innovation, stability, community, security, documentation float64
}

func features(quality, coherence, complexity float64, c criteria) map[string]float64 {
	return map[string]float64{
		core.FeatureBaseQuality:     quality,
		core.FeatureCoherence:       coherence,
		core.FeatureComplexity:      complexity,
		core.CriterionInnovation:    c.innovation,
		core.CriterionStability:     c.stability,
		core.CriterionCommunity:     c.community,
		core.CriterionSecurity:      c.security,
		core.CriterionDocumentation: c.documentation,
	}
}

// Default returns fresh copies of the built-in catalog.
func Default() []*core.Candidate {
	out := make([]*core.Candidate, 0, len(seed))
	for _, entry := range seed {
		out = append(out, entry.Candidate())
	}
	return out
}
