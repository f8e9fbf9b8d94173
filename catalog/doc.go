// Package catalog provides the built-in seed list of candidate repositories
// and reads catalog files in YAML.
//
// A catalog file lists candidates under a top-level "candidates" key:
//
//	candidates:
//	  - id: crytic/slither
//	    name: slither
//	    url: https://github.com/crytic/slither
//	    language: Python
//	    tags: [security, solidity]
//	    synergy: [static_analysis]
//	    features:
//	      base_quality: 0.89
//	      coherence: 0.86
//	      complexity: 0.4
package catalog
